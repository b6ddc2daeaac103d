package app

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// readPassword reads a line from a terminal without echo.
var readPassword = term.ReadPassword //nolint:gochecknoglobals

func askPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")

	pwd, err := readPassword(int(os.Stdin.Fd())) //nolint:gosec
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}

	return string(pwd), nil
}
