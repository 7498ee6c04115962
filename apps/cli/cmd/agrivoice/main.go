// Package main contains the agrivoice command line client. It drives the same
// voice pipeline as the API server against the local configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agrivoice/packages/go/backend/config"
	"agrivoice/packages/go/backend/di"
	"agrivoice/packages/go/backend/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(loadContainer).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "agrivoice: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadContainer wires services from the config file named by --config, or the
// defaults plus environment when none is given.
func loadContainer(ctx context.Context, flags globalFlags, opts ...di.ContainerOption) (*di.Container, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewConsole(flags.logLevel)
	if err != nil {
		return nil, err
	}

	return di.New(ctx, cfg, append([]di.ContainerOption{di.WithLogger(logger)}, opts...)...)
}
