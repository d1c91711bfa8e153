package main

import (
	"fmt"
	"io"
	"os"
)

// stdinName is the input name that means standard input
const stdinName = "-"

// openInput returns a reader for name, which is a path or "-".
// The close function is always safe to call.
func openInput(name string, stdin io.Reader) (io.Reader, func() error, error) {
	if name == stdinName {
		return stdin, func() error { return nil }, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file %s: %w", name, err)
	}
	return f, f.Close, nil
}

// displayName is how an input is named in logs and headers
func displayName(name string) string {
	if name == stdinName {
		return "<stdin>"
	}
	return name
}

// hasPipedInput detects if there's data piped to stdin
func hasPipedInput(stdin io.Reader) bool {
	f, ok := stdin.(*os.File)
	if !ok {
		// Tests and embedders hand in plain readers
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}

	// Check if stdin is not a character device (i.e., it's piped)
	return (stat.Mode() & os.ModeCharDevice) == 0
}
