package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tierscan/internal/cli"
)

func main() {
	// Cancel in-flight probes on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
