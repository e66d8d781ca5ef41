// Command likert-admin runs operator tasks against the configured survey store
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"likert/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries command output (export writes csv there)
	opts := logger.FromEnv()
	opts.Writer = os.Stderr
	logger.Init(opts)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "likert-admin:", err)
		os.Exit(1)
	}
}
