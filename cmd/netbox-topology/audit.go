package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/braunma/netbox-topology/internal/config"
	"github.com/braunma/netbox-topology/pkg/audit"
	"github.com/braunma/netbox-topology/pkg/client"
	"github.com/braunma/netbox-topology/pkg/reconciler"
	"github.com/braunma/netbox-topology/pkg/store"
	"github.com/braunma/netbox-topology/pkg/topology"
	"github.com/braunma/netbox-topology/pkg/utils"
)

type auditFlags struct {
	source string
	site   string
	save   bool
	json   bool
}

func newAuditCmd() *cobra.Command {
	var flags auditFlags
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check every consistency rule against an inventory",
		Long: `Audits a whole inventory and reports every violation.

Sources:
  netbox       the live NetBox API (NETBOX_URL / NETBOX_TOKEN)
  store        the configured database
  definitions  the YAML definitions in the data directory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.source, "source", "netbox", "Inventory to audit: netbox, store or definitions")
	cmd.Flags().StringVar(&flags.site, "site", "", "Limit a NetBox audit to one site slug")
	cmd.Flags().BoolVar(&flags.save, "save", false, "Store the report in the report database")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the report as JSON")
	return cmd
}

func runAudit(ctx context.Context, flags auditFlags) error {
	logger := utils.NewLogger(false)
	if flags.json {
		// keep stdout parseable
		logger = utils.NewLoggerTo(os.Stderr, false)
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", err)
		return err
	}
	log, err := structuredLogger(cfg)
	if err != nil {
		return err
	}
	auditor := audit.NewAuditor(log)

	var report *audit.Report
	run := func(inv *topology.Inventory) error {
		report = auditor.Run(inv, flags.source)
		return nil
	}

	switch flags.source {
	case "netbox":
		if err := cfg.RequireNetBox(); err != nil {
			logger.Error("NetBox is not configured", err)
			return err
		}
		logger.Info("Fetching inventory from %s...", cfg.NetBox.URL)
		c := client.NewClient(cfg.NetBox.URL, cfg.NetBox.Token, client.Options{
			Timeout:  cfg.NetBox.Timeout,
			Insecure: cfg.NetBox.Insecure,
			PageSize: cfg.NetBox.PageSize,
		}, logger)
		inv, err := c.FetchInventory(ctx, flags.site)
		if err != nil {
			logger.Error("Failed to fetch inventory", err)
			return err
		}
		_ = run(inv)

	case "store":
		engine, st, err := openEngine(ctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to open store", err)
			return err
		}
		defer st.Close()
		if err := engine.Snapshot(ctx, run); err != nil {
			return err
		}

	case "definitions":
		engine, err := definitionsEngine(ctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to load definitions", err)
			return err
		}
		if err := engine.Snapshot(ctx, run); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown source %q (expected netbox, store or definitions)", flags.source)
	}

	if flags.save {
		if err := saveReport(ctx, cfg, report); err != nil {
			logger.Error("Failed to save report", err)
			return err
		}
		logger.Success("Report %s saved", report.ID)
	}

	if flags.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(logger, report)
	}

	if !report.Valid() {
		return fmt.Errorf("audit found %d violations", len(report.Findings))
	}
	return nil
}

// definitionsEngine syncs the data directory into an empty in-memory store
func definitionsEngine(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*topology.Engine, error) {
	defs, err := loadDefinitions(logger)
	if err != nil {
		return nil, err
	}
	log, err := structuredLogger(cfg)
	if err != nil {
		return nil, err
	}
	engine := topology.NewEngine(store.NewMemoryStore(), log)
	if _, err := reconciler.New(engine, utils.NewLoggerTo(io.Discard, false)).Sync(ctx, defs); err != nil {
		return nil, err
	}
	return engine, nil
}

func saveReport(ctx context.Context, cfg *config.Config, report *audit.Report) error {
	log, err := structuredLogger(cfg)
	if err != nil {
		return err
	}
	reports, err := store.OpenReportStore(cfg.Reports.Path, log)
	if err != nil {
		return err
	}
	defer reports.Close()
	return reports.Save(ctx, report)
}

func printReport(logger *utils.Logger, report *audit.Report) {
	logger.Phase("Audit of %s: %d objects in %s", report.Source, report.Objects, report.Duration)

	for _, rack := range report.Racks {
		logger.Info("  %-20s %-12s %5.1f%%", rack.Rack, rack.Site, rack.Percent)
	}

	if report.Valid() {
		logger.Success("No violations found")
		return
	}

	for _, f := range report.Findings {
		logger.Warning("%s %s (#%d) %s: %s", f.ObjectType, f.Object, f.ObjectID, f.Field, f.Message)
	}

	summary := report.Summary()
	types := make([]string, 0, len(summary))
	for t := range summary {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		logger.Error("%d violations on %s", nil, summary[t], t)
	}
}
