// Package main provides the quizpack CLI for building and packaging the Quiz Generator for macOS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
)

func main() {
	// Cancellation kills the packaging tool so patched files are restored before exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp()
	err := a.rootCommand().ExecuteContext(ctx)
	stop()
	_ = a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Error.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}
