package cargo_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/buildkite/bintest/v3"
	"github.com/oxidelab/mirirun/internal/cargo"
	"github.com/oxidelab/mirirun/logger"
)

const cargoListOutput = `Installed Commands:
    add                  Add dependencies to a Cargo.toml manifest file
    bench                Execute all benchmarks of a local package
    build, b             Compile a local package and all of its dependencies
    miri
    nextest
    test, t              Execute all unit and integration tests
`

func TestHasSubcommand(t *testing.T) {
	proxy, err := bintest.CompileProxy("cargo")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(cargo) error = %v", err)
	}
	defer proxy.Close()

	client := cargo.NewClient(logger.Discard, cargo.WithPath(proxy.Path))

	go func() {
		call := <-proxy.Ch
		fmt.Fprint(call.Stdout, cargoListOutput)
		call.Exit(0)
	}()

	has, err := client.HasSubcommand("nextest")
	if err != nil {
		t.Fatalf("client.HasSubcommand(nextest) error = %v", err)
	}
	if !has {
		t.Errorf("client.HasSubcommand(nextest) = false, want true")
	}
}

func TestHasSubcommandMissing(t *testing.T) {
	proxy, err := bintest.CompileProxy("cargo")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(cargo) error = %v", err)
	}
	defer proxy.Close()

	client := cargo.NewClient(logger.Discard, cargo.WithPath(proxy.Path))

	go func() {
		call := <-proxy.Ch
		fmt.Fprint(call.Stdout, "Installed Commands:\n    build, b    Compile a local package\n")
		call.Exit(0)
	}()

	has, err := client.HasSubcommand("nextest")
	if err != nil {
		t.Fatalf("client.HasSubcommand(nextest) error = %v", err)
	}
	if has {
		t.Errorf("client.HasSubcommand(nextest) = true, want false")
	}
}

func TestLocateWorkspaceRoot(t *testing.T) {
	proxy, err := bintest.CompileProxy("cargo")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(cargo) error = %v", err)
	}
	defer proxy.Close()

	client := cargo.NewClient(logger.Discard, cargo.WithPath(proxy.Path))

	go func() {
		call := <-proxy.Ch
		fmt.Fprintln(call.Stdout, "/home/llama/mycelium/Cargo.toml")
		call.Exit(0)
	}()

	root, err := client.LocateWorkspaceRoot("")
	if err != nil {
		t.Fatalf("client.LocateWorkspaceRoot() error = %v", err)
	}

	if got, want := root, "/home/llama/mycelium"; got != want {
		t.Errorf("client.LocateWorkspaceRoot() = %q, want %q", got, want)
	}
}

func TestLocateWorkspaceRootFromSubdirectory(t *testing.T) {
	proxy, err := bintest.CompileProxy("cargo")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(cargo) error = %v", err)
	}
	defer proxy.Close()

	client := cargo.NewClient(logger.Discard, cargo.WithPath(proxy.Path))

	// A workspace subdirectory with no manifest of its own. Resolution has
	// to run from inside it and let cargo search upwards.
	subdir := filepath.Join(t.TempDir(), "src")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatalf("os.MkdirAll(%q) error = %v", subdir, err)
	}

	calls := make(chan *bintest.Call, 1)

	go func() {
		call := <-proxy.Ch
		calls <- call
		fmt.Fprintln(call.Stdout, "/home/llama/mycelium/Cargo.toml")
		call.Exit(0)
	}()

	root, err := client.LocateWorkspaceRoot(subdir)
	if err != nil {
		t.Fatalf("client.LocateWorkspaceRoot(%q) error = %v", subdir, err)
	}

	if got, want := root, "/home/llama/mycelium"; got != want {
		t.Errorf("client.LocateWorkspaceRoot(%q) = %q, want %q", subdir, got, want)
	}

	call := <-calls

	for _, arg := range call.Args {
		if arg == "--manifest-path" {
			t.Errorf("locate-project was given --manifest-path, args: %v", call.Args)
		}
	}

	gotDir, err := filepath.EvalSymlinks(call.Dir)
	if err != nil {
		t.Fatalf("filepath.EvalSymlinks(%q) error = %v", call.Dir, err)
	}
	wantDir, err := filepath.EvalSymlinks(subdir)
	if err != nil {
		t.Fatalf("filepath.EvalSymlinks(%q) error = %v", subdir, err)
	}
	if gotDir != wantDir {
		t.Errorf("locate-project working directory = %q, want %q", gotDir, wantDir)
	}
}

func TestLocateWorkspaceRootOutsideWorkspace(t *testing.T) {
	proxy, err := bintest.CompileProxy("cargo")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(cargo) error = %v", err)
	}
	defer proxy.Close()

	client := cargo.NewClient(logger.Discard, cargo.WithPath(proxy.Path))

	go func() {
		call := <-proxy.Ch
		fmt.Fprintln(call.Stderr, "error: could not find `Cargo.toml` in `/` or any parent directory")
		call.Exit(101)
	}()

	if _, err := client.LocateWorkspaceRoot(""); err == nil {
		t.Errorf("client.LocateWorkspaceRoot() error = nil, want non-nil error")
	}
}

func TestInstallNextest(t *testing.T) {
	proxy, err := bintest.CompileProxy("cargo")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(cargo) error = %v", err)
	}
	defer proxy.Close()

	client := cargo.NewClient(logger.Discard, cargo.WithPath(proxy.Path))

	go func() {
		call := <-proxy.Ch
		call.Exit(0)
	}()

	if err := client.InstallNextest(context.Background()); err != nil {
		t.Errorf("client.InstallNextest() error = %v", err)
	}
}

func TestInstallNextestFailure(t *testing.T) {
	proxy, err := bintest.CompileProxy("cargo")
	if err != nil {
		t.Fatalf("bintest.CompileProxy(cargo) error = %v", err)
	}
	defer proxy.Close()

	client := cargo.NewClient(logger.Discard, cargo.WithPath(proxy.Path))

	go func() {
		call := <-proxy.Ch
		fmt.Fprintln(call.Stderr, "error: failed to compile `cargo-nextest`")
		call.Exit(101)
	}()

	if err := client.InstallNextest(context.Background()); err == nil {
		t.Errorf("client.InstallNextest() error = nil, want non-nil error")
	}
}
