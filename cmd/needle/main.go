package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/bethropolis/needle/internal/cli"
)

func main() {
	// Interrupts cancel the search; results found so far are still printed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
