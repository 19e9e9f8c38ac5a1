package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abelbrown/moviefinder/internal/cli"
)

func main() {
	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
