package clicommand

import (
	"context"
	"fmt"
	"os"

	"github.com/oxidelab/mirirun/cliconfig"
	"github.com/oxidelab/mirirun/env"
	"github.com/oxidelab/mirirun/internal/cargo"
	"github.com/oxidelab/mirirun/internal/launcher"
	"github.com/oxidelab/mirirun/internal/prompt"
	"github.com/urfave/cli"
)

const runHelpDescription = `Usage:

   mirirun run [arguments...]

Description:

   Run the library test suite under Miri with strict provenance checking,
   host isolation disabled, and randomized struct layout.

   Every argument is forwarded verbatim to the test command after a fixed
   --lib argument; mirirun parses no flags of its own here. When cargo-nextest
   is installed the suite runs as ′cargo miri nextest run′, otherwise mirirun
   offers to install it and falls back to ′cargo miri test′.

   Configuration is via environment variables:

     MIRI_NO_NEXTEST     non-empty forces the ′cargo miri test′ fallback
     MIRIRUN_ASSUME_YES  install cargo-nextest without prompting
     MIRIRUN_DRY_RUN     log the command and environment, then exit
     MIRIRUN_CHDIR       resolve the workspace root from this directory
     MIRIRUN_CARGO       path to the cargo binary

   Existing MIRIFLAGS and RUSTFLAGS values are preserved after the fixed
   flags, and PROPTEST_CASES defaults to 10 if unset.

Example:

   $ mirirun run
   $ mirirun run --test interrupt
   $ MIRI_NO_NEXTEST=1 mirirun run`

type RunConfig struct {
	Args      []string `cli:"arg:*" label:"test arguments"`
	AssumeYes bool     `cli:"yes"`
	DryRun    bool     `cli:"dry-run"`
	Chdir     string   `cli:"chdir" normalize:"filepath"`
	CargoPath string   `cli:"cargo" validate:"required"`

	Debug    bool   `cli:"debug"`
	LogLevel string `cli:"log-level"`
	NoColor  bool   `cli:"no-color"`
}

func RunCommand(ctx context.Context) cli.Command {
	return cli.Command{
		Name:        "run",
		Usage:       "Run the library test suite under Miri",
		Description: runHelpDescription,

		// The command is a pure pass-through: arguments are never parsed,
		// only forwarded. Flag values still arrive through their EnvVars.
		SkipFlagParsing: true,

		// MIRI_NO_NEXTEST is deliberately not bound to a flag: any
		// non-empty value forces the fallback frontend, including
		// values that do not parse as booleans. The launcher reads it
		// straight from the environment.
		Flags: append([]cli.Flag{
			cli.BoolFlag{
				Name:   "yes",
				Usage:  "Install cargo-nextest without prompting",
				EnvVar: "MIRIRUN_ASSUME_YES",
			},
			cli.BoolFlag{
				Name:   "dry-run",
				Usage:  "Log the effective command and environment without executing it",
				EnvVar: "MIRIRUN_DRY_RUN",
			},
			cli.StringFlag{
				Name:   "chdir",
				Usage:  "Resolve the Cargo workspace root starting from this directory",
				EnvVar: "MIRIRUN_CHDIR",
			},
			cli.StringFlag{
				Name:   "cargo",
				Value:  "cargo",
				Usage:  "Path to the cargo binary",
				EnvVar: "MIRIRUN_CARGO",
			},
		}, globalFlags()...),

		Action: func(c *cli.Context) error {
			cfg := RunConfig{}
			loader := cliconfig.Loader{CLI: c, Config: &cfg}
			if err := loader.Load(); err != nil {
				fmt.Fprintf(c.App.ErrWriter, "%s\n", err)
				return NewExitError(1, err)
			}

			l := CreateLogger(&cfg)

			client := cargo.NewClient(l, cargo.WithPath(cfg.CargoPath))

			miri := launcher.New(l, client,
				launcher.WithAssumeYes(cfg.AssumeYes),
				launcher.WithDryRun(cfg.DryRun),
				launcher.WithConfirm(prompt.Confirm),
			)

			environ := env.FromSlice(os.Environ())

			inv, err := miri.Prepare(ctx, environ, cfg.Chdir, cfg.Args)
			if err != nil {
				l.Error("%v", err)
				return NewExitError(1, err)
			}

			if cfg.DryRun {
				l.Notice("Dry run, not executing the test command")
				return nil
			}

			code, err := miri.Exec(ctx, cfg.CargoPath, inv)
			if err != nil {
				l.Error("%v", err)
				return NewExitError(1, err)
			}

			// Test failures belong to the test run, not to mirirun: the
			// subprocess exit code is passed through untouched.
			if code != 0 {
				return NewExitError(code, fmt.Errorf("test run exited with status %d", code))
			}

			return nil
		},
	}
}
