package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/braunma/netbox-topology/internal/config"
	"github.com/braunma/netbox-topology/pkg/loader"
	"github.com/braunma/netbox-topology/pkg/reconciler"
	"github.com/braunma/netbox-topology/pkg/server"
	"github.com/braunma/netbox-topology/pkg/topology"
	"github.com/braunma/netbox-topology/pkg/utils"
)

var (
	envFile    string
	configFile string
	dataDir    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "netbox-topology",
		Short:         "NetBox Topology Consistency Engine",
		Long:          `Validates and maintains the physical topology of a NetBox inventory: containment, rack units, module nesting, cabling and MAC assignment`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "config", ".env", "Environment file path")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", ".", "Base directory for definitions and inventory (e.g., 'example' for test data)")

	rootCmd.AddCommand(newSyncCmd(), newAuditCmd(), newRackCmd(), newServeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		utils.NewLogger(false).Error("Command failed", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile})
}

// structuredLogger builds the engine's logger; the CLI only shows its warnings
func structuredLogger(cfg *config.Config) (*logrus.Logger, error) {
	level := cfg.Logging.Level
	if level == "info" {
		level = "warn"
	}
	return utils.NewStructuredLogger(utils.LogOptions{
		Level:  level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
}

// loadDefinitions reads the data directory
func loadDefinitions(logger *utils.Logger) (*loader.Definitions, error) {
	dir, err := resolveDataDir(dataDir, logger)
	if err != nil {
		return nil, err
	}
	return loader.NewDataLoader(dir, logger).LoadAll()
}

// openEngine opens the configured store. The in-memory store starts empty, so it is
// filled from the data directory first.
func openEngine(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*topology.Engine, topology.Store, error) {
	log, err := structuredLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := server.OpenStore(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	engine := topology.NewEngine(st, log)
	if cfg.Database.Driver != "" {
		return engine, st, nil
	}

	defs, err := loadDefinitions(logger)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	quiet := utils.NewLoggerTo(io.Discard, false)
	if _, err := reconciler.New(engine, quiet).Sync(ctx, defs); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	return engine, st, nil
}

// resolveDataDir determines the correct data directory to use
// It implements auto-detection: if definitions/ doesn't exist in the specified directory,
// it falls back to the example/ directory
func resolveDataDir(dir string, logger *utils.Logger) (string, error) {
	definitionsPath := buildPath(dir, "definitions")
	if _, err := os.Stat(definitionsPath); err == nil {
		logger.Info("Using data directory: %s", dir)
		return dir, nil
	}

	examplePath := "example"
	if _, err := os.Stat(buildPath(examplePath, "definitions")); err == nil {
		logger.Warning("definitions/ not found in '%s', falling back to '%s'", dir, examplePath)
		return examplePath, nil
	}

	return "", fmt.Errorf("no valid data directory found: checked '%s' and '%s'", dir, examplePath)
}

// buildPath constructs a path relative to the data directory
func buildPath(dataDir, subPath string) string {
	if dataDir == "." {
		return subPath
	}
	return fmt.Sprintf("%s/%s", dataDir, subPath)
}
