// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cortex-dev/cortex/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cortex HTTP server",
		Long:  "Load configuration, open the embedding store, probe the backends, and serve the retrieval API.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := WireApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	srv, err := server.New(server.Config{ListenAddr: cfg.Server.Listen})
	if err != nil {
		return err
	}
	srv.RegisterServices(&server.Services{
		Search: app.Search,
		Index:  app.Indexer,
		Health: app.Health,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "cortex listening on %s\n", cfg.Server.Listen)
	return srv.Start(ctx)
}
