package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantum-portal/api/internal/cli"
	"github.com/quantum-portal/api/internal/platform/observability"
)

func main() {
	logger, err := observability.NewLogger(observability.LoggerOptionsFromEnv("cmsctl"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(cli.Commands{Logger: logger.Named("cmsctl"), Out: os.Stdout})
	if err := root.ExecuteContext(observability.WithLogger(ctx, logger)); err != nil {
		fmt.Fprintln(os.Stderr, "cmsctl:", err)
		os.Exit(1)
	}
}
