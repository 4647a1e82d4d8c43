// Package cargo wraps the handful of cargo invocations mirirun needs:
// workspace discovery, subcommand probing, and cargo-nextest installation.
package cargo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oxidelab/mirirun/logger"
	"github.com/oxidelab/mirirun/process"
)

const (
	// NextestSubcommand is the cargo subcommand provided by cargo-nextest.
	NextestSubcommand = "nextest"

	// nextestCrate is the crate that provides it.
	nextestCrate = "cargo-nextest"
)

// Client issues cargo commands through a fixed binary path.
type Client struct {
	logger logger.Logger

	// Path to the cargo binary.
	Path string
}

type NewClientOpt = func(*Client)

// WithPath overrides the cargo binary path, mostly for tests.
func WithPath(path string) NewClientOpt {
	return func(c *Client) { c.Path = path }
}

func NewClient(l logger.Logger, opts ...NewClientOpt) *Client {
	c := &Client{
		logger: l,
		Path:   "cargo",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LocateWorkspaceRoot resolves the root directory of the Cargo workspace
// containing dir, so the launcher behaves identically wherever it is invoked
// from. The command runs with dir as its working directory, letting cargo
// search upwards from there; dir itself does not need a manifest. An error
// here is fatal to the launcher: no tests run outside a workspace.
func (c *Client) LocateWorkspaceRoot(dir string) (string, error) {
	out, err := process.Run(c.logger, dir, c.Path, "locate-project", "--workspace", "--message-format", "plain")
	if err != nil {
		return "", fmt.Errorf("locating the Cargo workspace root: %w", err)
	}

	manifest := strings.TrimSpace(out)
	if manifest == "" {
		return "", fmt.Errorf("cargo locate-project returned no manifest path")
	}

	return filepath.Dir(manifest), nil
}

// HasSubcommand reports whether `cargo <name>` is available, by inspecting
// the installed subcommand list.
func (c *Client) HasSubcommand(name string) (bool, error) {
	out, err := process.Run(c.logger, "", c.Path, "--list")
	if err != nil {
		return false, fmt.Errorf("listing cargo subcommands: %w", err)
	}

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == name {
			return true, nil
		}
	}

	return false, nil
}

// InstallNextest runs `cargo install cargo-nextest` with the launcher's
// stdio attached, so the user can watch the build. A non-zero exit is
// returned as an error; the launcher treats it as fatal.
func (c *Client) InstallNextest(ctx context.Context) error {
	c.logger.Notice("Installing %s with `%s install %s`", nextestCrate, c.Path, nextestCrate)

	p := process.New(c.logger, process.Config{
		Path:   c.Path,
		Args:   []string{"install", nextestCrate},
		Env:    os.Environ(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})

	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("installing %s: %w", nextestCrate, err)
	}

	if code := p.ExitCode(); code != 0 {
		return fmt.Errorf("installing %s: cargo install exited with status %d", nextestCrate, code)
	}

	return nil
}
