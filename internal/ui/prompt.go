package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PasswordEnvVar supplies the manager password without prompting
const PasswordEnvVar = "FWFLEET_PASSWORD"

// ReadPassword returns the password from FWFLEET_PASSWORD, or prompts for
// it on out. Input is hidden when in is a terminal.
func ReadPassword(in *os.File, out io.Writer, username string) (string, error) {
	if pw := os.Getenv(PasswordEnvVar); pw != "" {
		return pw, nil
	}

	_, _ = fmt.Fprintf(out, "Password for %s: ", username)

	if term.IsTerminal(int(in.Fd())) {
		pw, err := term.ReadPassword(int(in.Fd()))
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
