package clicommand

import (
	"context"

	"github.com/urfave/cli"
)

func Commands(ctx context.Context) []cli.Command {
	return []cli.Command{
		RunCommand(ctx),
	}
}
