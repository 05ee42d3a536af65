// Preflight - Know what you are signing before you sign it.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

// Command preflightctl manages the scam intelligence store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
