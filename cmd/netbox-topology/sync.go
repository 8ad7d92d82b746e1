package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/braunma/netbox-topology/pkg/reconciler"
	"github.com/braunma/netbox-topology/pkg/server"
	"github.com/braunma/netbox-topology/pkg/store"
	"github.com/braunma/netbox-topology/pkg/topology"
	"github.com/braunma/netbox-topology/pkg/utils"
)

func newSyncCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Apply the YAML definitions to the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Simulate changes without applying them")
	return cmd
}

func runSync(ctx context.Context, dryRun bool) error {
	logger := utils.NewLogger(dryRun)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", err)
		return err
	}

	defs, err := loadDefinitions(logger)
	if err != nil {
		logger.Error("Failed to load definitions", err)
		return err
	}
	logger.Info("Loaded %d sites, %d racks, %d device types, %d devices",
		len(defs.Sites), len(defs.Racks), len(defs.DeviceTypes), len(defs.Devices))

	log, err := structuredLogger(cfg)
	if err != nil {
		return err
	}
	st, err := server.OpenStore(cfg.Database)
	if err != nil {
		logger.Error("Failed to open store", err)
		return err
	}
	defer st.Close()

	var target topology.Store = st
	if dryRun {
		// the plan runs against a private copy of the stored inventory
		err := topology.NewEngine(st, log).Snapshot(ctx, func(inv *topology.Inventory) error {
			target = store.NewMemoryStoreFrom(inv)
			return nil
		})
		if err != nil {
			logger.Error("Failed to read store", err)
			return err
		}
	}

	stats, err := reconciler.New(topology.NewEngine(target, log), logger).Sync(ctx, defs)
	if err != nil {
		logger.Error("Sync failed", err)
		return err
	}

	logger.Phase("Summary")
	logger.Info("created: %d, updated: %d, unchanged: %d, cascaded: %d, cables: %d",
		stats.Created, stats.Updated, stats.Unchanged, stats.Cascaded, stats.Cables)
	if dryRun {
		logger.Warning("DRY RUN COMPLETE: No changes applied")
	} else {
		logger.Success("SYNC COMPLETE: Changes applied successfully")
	}
	return nil
}
