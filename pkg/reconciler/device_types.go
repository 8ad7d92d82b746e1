package reconciler

import (
	"context"
	"fmt"

	"github.com/braunma/netbox-topology/pkg/models"
)

// DeviceTypeReconciler handles device type and module type reconciliation
type DeviceTypeReconciler struct {
	*state
}

// ReconcileModuleTypes reconciles module type definitions
func (dtr *DeviceTypeReconciler) ReconcileModuleTypes(ctx context.Context, moduleTypes []*models.ModuleTypeConfig) error {
	dtr.logger.Info("Reconciling %d module types...", len(moduleTypes))

	for _, cfg := range moduleTypes {
		mt := &models.ModuleType{}
		if existing, ok := first(dtr.inv.ModuleTypes(), func(x *models.ModuleType) bool {
			return x.Manufacturer == cfg.Manufacturer && x.Model == cfg.Model
		}); ok {
			mt = existing.Clone().(*models.ModuleType)
		}
		mt.Manufacturer = cfg.Manufacturer
		mt.Model = cfg.Model

		if err := dtr.apply(mt, cfg.Slug, func() error { return dtr.engine.SaveModuleType(ctx, mt) }); err != nil {
			return fmt.Errorf("failed to reconcile module type %s: %w", cfg.Model, err)
		}
		dtr.moduleTypes[cfg.Slug] = mt.ID
	}

	return nil
}

// ReconcileDeviceTypes reconciles device type definitions. Height and depth changes are
// checked against every device of the type already racked. Component templates only
// affect devices created afterwards.
func (dtr *DeviceTypeReconciler) ReconcileDeviceTypes(ctx context.Context, deviceTypes []*models.DeviceTypeConfig) error {
	dtr.logger.Info("Reconciling %d device types...", len(deviceTypes))

	for _, cfg := range deviceTypes {
		dt := &models.DeviceType{}
		if existing, ok := dtr.deviceType(cfg.Slug); ok {
			dt = existing.Clone().(*models.DeviceType)
		}
		dt.Manufacturer = cfg.Manufacturer
		dt.Model = cfg.Model
		dt.Slug = cfg.Slug
		dt.UHeight = cfg.UHeight
		dt.IsFullDepth = cfg.FullDepth()
		dt.ExcludeFromUtilization = cfg.ExcludeFromUtilization
		dt.SubdeviceRole = cfg.SubdeviceRole
		dt.Components = cfg.ComponentTemplates

		if err := dtr.apply(dt, cfg.Slug, func() error { return dtr.engine.SaveDeviceType(ctx, dt) }); err != nil {
			return fmt.Errorf("failed to reconcile device type %s: %w", cfg.Model, err)
		}
	}

	return nil
}
