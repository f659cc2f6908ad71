package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptCredentials asks for the credentials of the authenticated checks.
// It only prompts on an interactive terminal; an empty password skips the
// authenticated block.
func promptCredentials(w io.Writer, username, email string) (string, string) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return username, ""
	}

	if username == "" {
		fmt.Fprintf(w, "Username for authenticated checks [%s]: ", email)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		username = strings.TrimSpace(line)
		if username == "" {
			username = email
		}
	}

	fmt.Fprintf(w, "Password for %s (empty to skip): ", username)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return username, ""
	}
	return username, string(pw)
}
