// Package prompt provides the interactive yes/no confirmation used before
// installing cargo-nextest.
package prompt

import (
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/crypto/ssh/terminal"
)

// Confirm asks the user a yes/no question on the terminal.
//
// When stdin is not a terminal (CI, redirected input) there is nobody to
// answer: the question is skipped and the answer is "no", so an unattended
// run can never hang on the prompt.
func Confirm(title, description string) (bool, error) {
	if !Interactive() {
		return false, nil
	}

	var yes bool

	confirm := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Install").
		Negative("Skip").
		Value(&yes)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, err
	}

	return yes, nil
}

// Interactive reports whether stdin is attached to a terminal.
func Interactive() bool {
	return terminal.IsTerminal(int(os.Stdin.Fd()))
}
