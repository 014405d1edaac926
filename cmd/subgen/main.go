package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Exit codes: 0 success, 1 fatal error, 2 run completed with failed slices.
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		var partial *partialRunError
		if errors.As(err, &partial) {
			fmt.Fprintln(os.Stderr, partial.Error())
			return exitPartial
		}
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		return exitFatal
	}
	return exitOK
}
