package reconciler

import (
	"context"
	"fmt"
	"reflect"

	"github.com/braunma/netbox-topology/pkg/loader"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/topology"
	"github.com/braunma/netbox-topology/pkg/utils"
)

// Stats counts what a sync did
type Stats struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Cascaded  int `json:"cascaded"`
	Cables    int `json:"cables"`
}

// state is shared by the reconcilers of one sync run
type state struct {
	engine *topology.Engine
	logger *utils.Logger
	stats  *Stats

	// working copy of the store; refreshed at phase boundaries and after cascades
	inv *topology.Inventory

	// config slugs that have no column of their own
	racks       map[string]uint
	moduleTypes map[string]uint

	pending []pendingCable
}

func newState(engine *topology.Engine, logger *utils.Logger) *state {
	return &state{
		engine:      engine,
		logger:      logger,
		stats:       &Stats{},
		inv:         topology.NewInventory(),
		racks:       make(map[string]uint),
		moduleTypes: make(map[string]uint),
	}
}

func (s *state) refresh(ctx context.Context) error {
	return s.engine.Snapshot(ctx, func(inv *topology.Inventory) error {
		s.inv = inv.Clone()
		return nil
	})
}

// apply persists desired through save unless it matches the stored copy
func (s *state) apply(desired models.Object, label string, save func() error) error {
	created := desired.GetID() == 0
	if !created {
		if stored, ok := s.inv.Get(models.RefOf(desired)); ok && reflect.DeepEqual(stored, desired) {
			s.stats.Unchanged++
			s.logger.Debug("  = %s: no changes", label)
			return nil
		}
	}

	if s.logger.DryRunEnabled() {
		action := "UPDATE"
		if created {
			action = "CREATE"
		}
		s.logger.DryRun(action, "%s %s", desired.ObjectType(), label)
	}

	if err := save(); err != nil {
		return fmt.Errorf("%s %s: %w", desired.ObjectType(), label, err)
	}
	s.inv.Put(desired.Clone())

	if created {
		s.stats.Created++
		s.logger.Success("Created %s %s", desired.ObjectType(), label)
	} else {
		s.stats.Updated++
		s.logger.Success("Updated %s %s", desired.ObjectType(), label)
	}
	return nil
}

// cascaded records a containment cascade and reloads the working copy
func (s *state) cascaded(ctx context.Context, label string, result *topology.CascadeResult) error {
	if result == nil || result.Total() == 0 {
		return nil
	}
	s.stats.Cascaded += result.Total()
	s.logger.Info("  ↳ %s moved %d locations, %d racks, %d devices, %d power panels, %d cable terminations",
		label, result.Locations, result.Racks, result.Devices, result.PowerPanels, result.CableTerminations)
	return s.refresh(ctx)
}

// Reconciler drives a full sync of a definitions tree into the engine
type Reconciler struct {
	state      *state
	foundation *FoundationReconciler
	types      *DeviceTypeReconciler
	network    *NetworkReconciler
	devices    *DeviceReconciler
	cables     *CableReconciler
}

// New creates a reconciler writing through engine
func New(engine *topology.Engine, logger *utils.Logger) *Reconciler {
	s := newState(engine, logger)
	return &Reconciler{
		state:      s,
		foundation: &FoundationReconciler{state: s},
		types:      &DeviceTypeReconciler{state: s},
		network:    &NetworkReconciler{state: s},
		devices:    &DeviceReconciler{state: s},
		cables:     NewCableReconciler(s),
	}
}

// Sync reconciles every definition in dependency order. Objects are created or updated,
// never deleted.
func (r *Reconciler) Sync(ctx context.Context, defs *loader.Definitions) (*Stats, error) {
	logger := r.state.logger
	r.state.stats = &Stats{}
	r.state.pending = nil
	r.cables.Reset()

	phases := []struct {
		title string
		run   func() error
	}{
		{"Phase 1: Foundation", func() error { return r.foundation.Reconcile(ctx, defs) }},
		{"Phase 2: Device & Module Types", func() error {
			if err := r.types.ReconcileDeviceTypes(ctx, defs.DeviceTypes); err != nil {
				return err
			}
			return r.types.ReconcileModuleTypes(ctx, defs.ModuleTypes)
		}},
		{"Phase 3: Circuits", func() error { return r.network.ReconcileCircuits(ctx, defs.Circuits) }},
		{"Phase 4: Devices", func() error { return r.devices.ReconcileDevices(ctx, defs.Devices) }},
		{"Phase 5: Cables", func() error { return r.cables.ReconcilePending(ctx, r.state.pending) }},
		{"Phase 6: MAC Addresses", func() error { return r.network.ReconcileMACAddresses(ctx, defs.Devices) }},
	}

	for _, phase := range phases {
		logger.Phase("%s", phase.title)
		if err := r.state.refresh(ctx); err != nil {
			return r.state.stats, fmt.Errorf("failed to load inventory: %w", err)
		}
		if err := phase.run(); err != nil {
			return r.state.stats, err
		}
	}

	return r.state.stats, nil
}
