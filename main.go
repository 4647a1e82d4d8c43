package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oxidelab/mirirun/clicommand"
	"github.com/oxidelab/mirirun/version"
	"github.com/urfave/cli"
)

const appHelpTemplate = `Usage:

  {{.Name}} <command> [arguments...]

Available commands are:

  {{range .Commands}}{{.Name}}{{with .ShortName}}, {{.}}{{end}}{{ "\t" }}{{.Usage}}
  {{end}}
Use "{{.Name}} <command> --help" for more information about a command.

`

func main() {
	cli.AppHelpTemplate = appHelpTemplate

	ctx := context.Background()

	app := cli.NewApp()
	app.Name = "mirirun"
	app.Version = version.FullVersion()
	app.Usage = "Run Rust test suites under Miri with a curated set of checker flags"
	app.Commands = clicommand.Commands(ctx)

	app.CommandNotFound = func(c *cli.Context, command string) {
		fmt.Fprintf(os.Stderr, "%s: %q is not a command. See '%s --help'\n", app.Name, command, app.Name)
		os.Exit(1)
	}

	if err := app.Run(os.Args); err != nil {
		// Commands communicate their desired exit code with an ExitError;
		// a failing test subprocess arrives here with its code intact.
		if exitErr := new(clicommand.ExitError); errors.As(err, &exitErr) {
			os.Exit(exitErr.Code())
		}

		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
