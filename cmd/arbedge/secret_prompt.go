package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// promptMasterSecret asks for the vault master secret on stdin without
// echoing it, when stdin is an interactive terminal. It returns "" (no
// prompt attempted) when stdin is not a TTY, e.g. under a process manager or
// in CI, where a blocking read would hang the process.
func promptMasterSecret(envVar string) string {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ""
	}

	fmt.Fprintf(os.Stderr, "%s is unset; enter the vault master secret: ", envVar)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(secret)
}
