package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes: 0 clean, 1 diagnostics reported, 2 usage or runtime error.
const (
	exitClean       = 0
	exitDiagnostics = 1
	exitError       = 2
)

// exitCode carries a non-zero status out of a command without printing an
// error.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return exitClean
	}
	var code exitCode
	if errors.As(err, &code) {
		return int(code)
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitError
}
