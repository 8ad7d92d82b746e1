package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/topology"
	"github.com/braunma/netbox-topology/pkg/utils"
)

func newRackCmd() *cobra.Command {
	var (
		face    string
		uHeight float64
	)
	cmd := &cobra.Command{
		Use:   "rack <id|name>",
		Short: "Show the elevation and utilization of a rack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRack(cmd.Context(), args[0], face, uHeight)
		},
	}
	cmd.Flags().StringVar(&face, "face", constants.FaceFront, "Rack face to show: front or rear")
	cmd.Flags().Float64Var(&uHeight, "fit", 0, "Also list the positions where a device of this height fits")
	return cmd
}

func runRack(ctx context.Context, arg, face string, uHeight float64) error {
	logger := utils.NewLogger(false)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", err)
		return err
	}
	engine, st, err := openEngine(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", err)
		return err
	}
	defer st.Close()

	var rackID uint
	var rackName string
	err = engine.Snapshot(ctx, func(inv *topology.Inventory) error {
		rackID, rackName, err = findRack(inv, arg)
		return err
	})
	if err != nil {
		logger.Error("Rack lookup failed", err)
		return err
	}

	units, err := engine.RackElevation(ctx, rackID, face, nil)
	if err != nil {
		return err
	}
	pct, err := engine.Utilization(ctx, rackID)
	if err != nil {
		return err
	}

	logger.Phase("Rack %s (%s)", rackName, face)
	used := color.New(color.FgYellow).SprintFunc()
	for _, u := range units {
		if u.Occupied {
			fmt.Printf("%6s  %s\n", u.Name, used(u.Device.Name))
		} else {
			fmt.Printf("%6s  -\n", u.Name)
		}
	}
	logger.Info("Utilization: %.1f%%", pct)

	if uHeight > 0 {
		free, err := engine.AvailableUnits(ctx, rackID, uHeight, face, nil)
		if err != nil {
			return err
		}
		if len(free) == 0 {
			logger.Warning("No room for a %gU device", uHeight)
		} else {
			logger.Success("A %gU device fits at %v", uHeight, free)
		}
	}
	return nil
}

// findRack accepts a rack ID or a unique rack name
func findRack(inv *topology.Inventory, arg string) (uint, string, error) {
	if id, err := strconv.ParseUint(arg, 10, 64); err == nil {
		rack, ok := inv.Rack(uint(id))
		if !ok {
			return 0, "", fmt.Errorf("rack %d: %w", id, topology.ErrNotFound)
		}
		return rack.ID, rack.Name, nil
	}

	var found []uint
	for _, rack := range inv.Racks() {
		if rack.Name == arg {
			found = append(found, rack.ID)
		}
	}
	switch len(found) {
	case 0:
		return 0, "", fmt.Errorf("rack %q: %w", arg, topology.ErrNotFound)
	case 1:
		return found[0], arg, nil
	default:
		return 0, "", fmt.Errorf("rack name %q is ambiguous: IDs %v", arg, found)
	}
}
