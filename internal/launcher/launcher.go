// Package launcher assembles and executes a Miri test run: it picks the test
// frontend, layers the fixed checker and compiler flags onto the ambient
// environment, and hands the result to a single cargo subprocess.
package launcher

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oxidelab/mirirun/env"
	"github.com/oxidelab/mirirun/internal/cargo"
	"github.com/oxidelab/mirirun/internal/prompt"
	"github.com/oxidelab/mirirun/logger"
	"github.com/oxidelab/mirirun/process"
)

const (
	// NoNextestEnv forces the fallback `cargo miri test` frontend when set
	// to any non-empty value.
	NoNextestEnv = "MIRI_NO_NEXTEST"

	miriFlagsEnv = "MIRIFLAGS"
	rustFlagsEnv = "RUSTFLAGS"
	proptestEnv  = "PROPTEST_CASES"

	// Downstream proptest suites get very slow under Miri, so keep the
	// default case count small. Callers can still override it.
	defaultProptestCases = "10"
)

// Miri flags: strict provenance catches pointer-origin violations, and
// isolation has to be off because the proptest suites need real host entropy.
var miriFlags = []string{"-Zmiri-strict-provenance", "-Zmiri-disable-isolation"}

// Rustc flags: randomized struct layout flushes out layout-dependent code.
var rustcFlags = []string{"-Zrandomize-layout"}

// CargoClient is the part of the cargo client the launcher needs.
type CargoClient interface {
	LocateWorkspaceRoot(dir string) (string, error)
	HasSubcommand(name string) (bool, error)
	InstallNextest(ctx context.Context) error
}

// Launcher prepares and executes exactly one test subprocess per invocation.
type Launcher struct {
	logger logger.Logger
	cargo  CargoClient

	// Confirm asks whether cargo-nextest should be installed. The default
	// is the interactive terminal prompt.
	Confirm func(title, description string) (bool, error)

	// AssumeYes answers the install prompt affirmatively without asking.
	AssumeYes bool

	// DryRun suppresses every side effect during preparation. The prompt
	// and the cargo-nextest install are skipped; the accelerated frontend
	// is reported as if the install had happened.
	DryRun bool
}

type NewOpt = func(*Launcher)

func WithAssumeYes(y bool) NewOpt { return func(l *Launcher) { l.AssumeYes = y } }
func WithDryRun(d bool) NewOpt    { return func(l *Launcher) { l.DryRun = d } }

func WithConfirm(fn func(title, description string) (bool, error)) NewOpt {
	return func(l *Launcher) { l.Confirm = fn }
}

func New(l logger.Logger, cargo CargoClient, opts ...NewOpt) *Launcher {
	launcher := &Launcher{
		logger:  l,
		cargo:   cargo,
		Confirm: prompt.Confirm,
	}
	for _, opt := range opts {
		opt(launcher)
	}
	return launcher
}

// Invocation is the fully assembled subprocess: the cargo argument vector,
// the working directory and the augmented environment. Immutable once
// prepared; executed exactly once.
type Invocation struct {
	Dir  string
	Args []string
	Env  *env.Environment
}

// Prepare resolves the workspace root, selects the test frontend, and merges
// the fixed flag lists into a copy of environ. Extra args are forwarded
// verbatim after the fixed --lib argument.
func (l *Launcher) Prepare(ctx context.Context, environ *env.Environment, chdir string, extra []string) (*Invocation, error) {
	root, err := l.cargo.LocateWorkspaceRoot(chdir)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Resolved Cargo workspace root: %s", root)

	useNextest, err := l.chooseFrontend(ctx, environ)
	if err != nil {
		return nil, err
	}

	inv := &Invocation{
		Dir:  root,
		Args: buildArgs(useNextest, extra),
		Env:  assembleEnv(environ),
	}

	l.echo(inv)

	return inv, nil
}

// chooseFrontend decides between `miri nextest run` and `miri test`,
// installing cargo-nextest on the way if the user opts in.
func (l *Launcher) chooseFrontend(ctx context.Context, environ *env.Environment) (useNextest bool, err error) {
	if v, ok := environ.Get(NoNextestEnv); ok && v != "" {
		l.logger.Notice("%s is set, using `cargo miri test`", NoNextestEnv)
		return false, nil
	}

	installed, err := l.cargo.HasSubcommand(cargo.NextestSubcommand)
	if err != nil {
		return false, err
	}
	if installed {
		return true, nil
	}

	l.logger.Warn("cargo-nextest is not installed; it runs the Miri suite substantially faster")

	if l.DryRun {
		l.logger.Notice("Dry run, skipping the cargo-nextest install")
		return true, nil
	}

	yes := l.AssumeYes
	if !yes {
		yes, err = l.Confirm(
			"Install cargo-nextest now?",
			"Skipping it falls back to the slower `cargo miri test`.",
		)
		if err != nil {
			return false, err
		}
	}

	if !yes {
		l.logger.Notice("Falling back to `cargo miri test`")
		return false, nil
	}

	if err := l.cargo.InstallNextest(ctx); err != nil {
		return false, err
	}

	return true, nil
}

// buildArgs returns the cargo argument vector: the selected base command,
// the fixed --lib argument, then the caller's arguments verbatim.
func buildArgs(useNextest bool, extra []string) []string {
	var args []string
	if useNextest {
		args = []string{"miri", "nextest", "run"}
	} else {
		args = []string{"miri", "test"}
	}

	args = append(args, "--lib")
	return append(args, extra...)
}

// assembleEnv copies environ and layers the fixed flags on top: new flags
// first, any pre-existing value preserved verbatim after them.
func assembleEnv(environ *env.Environment) *env.Environment {
	e := environ.Copy()
	e.Prepend(miriFlagsEnv, miriFlags...)
	e.Prepend(rustFlagsEnv, rustcFlags...)
	e.SetDefault(proptestEnv, defaultProptestCases)
	return e
}

// echo logs the effective command and environment so the user can see
// exactly what is about to run.
func (l *Launcher) echo(inv *Invocation) {
	for _, key := range []string{miriFlagsEnv, rustFlagsEnv, proptestEnv} {
		v, _ := inv.Env.Get(key)
		l.logger.Notice("%s=%q", key, v)
	}
	l.logger.Notice("Running `cargo %s` in %s", strings.Join(inv.Args, " "), inv.Dir)
}

// Exec runs the prepared invocation with the launcher's stdio attached,
// forwarding SIGINT and SIGTERM to the test run's process group, and returns
// the subprocess exit code unmodified.
func (l *Launcher) Exec(ctx context.Context, cargoPath string, inv *Invocation) (int, error) {
	p := process.New(l.logger, process.Config{
		Path:            cargoPath,
		Args:            inv.Args,
		Dir:             inv.Dir,
		Env:             inv.Env.ToSlice(),
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		InterruptSignal: syscall.SIGINT,
	})

	// The subprocess runs in its own process group, so terminal signals
	// land on the launcher and have to be passed through by hand.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		for {
			select {
			case sig := <-signals:
				_ = p.Signal(sig.(syscall.Signal))
			case <-p.Done():
				return
			}
		}
	}()

	if err := p.Run(ctx); err != nil {
		return 1, err
	}

	return p.ExitCode(), nil
}
