package process

import (
	"os/exec"
	"strings"

	"github.com/oxidelab/mirirun/logger"
)

// Run executes a command in dir, waits for it, and returns its trimmed
// stdout. An empty dir runs in the caller's working directory. Intended for
// short probe commands where capturing the output is the point.
func Run(l logger.Logger, dir string, command string, arg ...string) (string, error) {
	cmd := exec.Command(command, arg...)
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		l.Debug("Could not run: %s %s (returned %s) (%T: %v)", command, arg, output, err, err)
		return "", err
	}

	return strings.Trim(string(output), "\n"), nil
}
