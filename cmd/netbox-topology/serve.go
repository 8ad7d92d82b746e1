package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/braunma/netbox-topology/pkg/server"
	"github.com/braunma/netbox-topology/pkg/utils"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduled audits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	logger := utils.NewLogger(false)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", err)
		return err
	}

	app := &server.App{}
	if err := app.Initialize(cfg); err != nil {
		logger.Error("Failed to initialize server", err)
		return err
	}
	return app.Run(ctx)
}
