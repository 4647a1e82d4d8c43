package clicommand

import (
	"strings"

	"github.com/oleiade/reflections"
	"github.com/oxidelab/mirirun/logger"
	"github.com/urfave/cli"
)

var DebugFlag = cli.BoolFlag{
	Name:   "debug",
	Usage:  "Enable debug mode (environment-only on pass-through commands)",
	EnvVar: "MIRIRUN_DEBUG",
}

var LogLevelFlag = cli.StringFlag{
	Name:   "log-level",
	Value:  "notice",
	Usage:  "Set the log level: debug, info, notice, warn or error",
	EnvVar: "MIRIRUN_LOG_LEVEL",
}

var NoColorFlag = cli.BoolFlag{
	Name:   "no-color",
	Usage:  "Don't show colors in logging",
	EnvVar: "MIRIRUN_NO_COLOR",
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		DebugFlag,
		LogLevelFlag,
		NoColorFlag,
	}
}

// CreateLogger builds the logger for a command from the LogLevel, Debug and
// NoColor fields of its config struct, where present.
func CreateLogger(cfg any) logger.Logger {
	l := logger.NewTextLogger()

	if name, err := reflections.GetField(cfg, "LogLevel"); err == nil {
		if s, ok := name.(string); ok && s != "" {
			if level, err := logger.ParseLevel(strings.ToUpper(s)); err == nil {
				l.SetLevel(level)
			}
		}
	}

	// Debug wins over log-level
	if debug, err := reflections.GetField(cfg, "Debug"); err == nil && debug == true {
		l.SetLevel(logger.DEBUG)
	}

	if noColor, err := reflections.GetField(cfg, "NoColor"); err == nil && noColor == true {
		if tl, ok := l.(*logger.TextLogger); ok {
			tl.Colors = false
		}
	}

	return l
}
