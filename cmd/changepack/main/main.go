package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/changepack/cmd/changepack"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := changepack.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		changepack.RenderError(rootCmd, err)
		stop()
		os.Exit(1)
	}
}
