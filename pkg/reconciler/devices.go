package reconciler

import (
	"context"
	"fmt"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// DeviceReconciler handles devices, their modules and their components. Component links
// are queued and reconciled once every device exists.
type DeviceReconciler struct {
	*state
}

// ReconcileDevices reconciles device configurations
func (dr *DeviceReconciler) ReconcileDevices(ctx context.Context, devices []*models.DeviceConfig) error {
	dr.logger.Info("Reconciling %d devices...", len(devices))

	for i, device := range devices {
		dr.logger.Debug("──── Device %d/%d: %s ────", i+1, len(devices), device.Name)
		if err := dr.reconcileDevice(ctx, device); err != nil {
			return fmt.Errorf("failed to reconcile device %s: %w", device.Name, err)
		}
	}
	return nil
}

// reconcileDevice reconciles a single device
func (dr *DeviceReconciler) reconcileDevice(ctx context.Context, cfg *models.DeviceConfig) error {
	// Get required IDs
	siteID, err := dr.siteID(cfg.SiteSlug)
	if err != nil {
		return err
	}
	dt, ok := dr.deviceType(cfg.DeviceTypeSlug)
	if !ok {
		return fmt.Errorf("device type %s not found", cfg.DeviceTypeSlug)
	}
	rackID, err := dr.rackID(cfg.SiteSlug, siteID, cfg.RackSlug)
	if err != nil {
		return err
	}
	locationID, err := dr.optionalLocation(siteID, cfg.LocationSlug)
	if err != nil {
		return err
	}
	if rackID != nil {
		// Racked devices take the rack's location
		if rack, ok := dr.inv.Rack(*rackID); ok && rack.LocationID != nil {
			locationID = models.UintPtr(*rack.LocationID)
		}
	}

	var clusterID *uint
	if cfg.Cluster != "" {
		cluster, ok := dr.cluster(cfg.Cluster)
		if !ok {
			return fmt.Errorf("cluster %s not found", cfg.Cluster)
		}
		clusterID = models.UintPtr(cluster.ID)
	}

	device := &models.Device{}
	if existing, ok := dr.deviceByName(siteID, cfg.Name); ok {
		device = existing.Clone().(*models.Device)
	} else if existing, ok := dr.peerDevice(cfg.Name); ok {
		// Moved from another site
		device = existing.Clone().(*models.Device)
	}
	device.Name = cfg.Name
	device.DeviceTypeID = dt.ID
	device.SiteID = siteID
	device.LocationID = locationID
	device.RackID = rackID
	device.Position = nil
	if cfg.Position != nil {
		device.Position = models.FloatPtr(*cfg.Position)
	}
	device.Face = cfg.Face
	device.ClusterID = clusterID
	device.Status = cfg.Status
	device.Serial = cfg.Serial

	created := device.ID == 0
	if err := dr.apply(device, cfg.Name, func() error { return dr.engine.SaveDevice(ctx, device) }); err != nil {
		return err
	}
	if created && dt.Components.Count() > 0 {
		// Pick up the components created from the type's templates
		dr.logger.Debug("  %s created with %d components from %s", cfg.Name, dt.Components.Count(), dt.Slug)
		dr.stats.Created += dt.Components.Count()
		if err := dr.refresh(ctx); err != nil {
			return err
		}
	}

	// Reconcile modules first so components can be placed on them
	dr.logger.Debug("  Reconciling modules for %s...", cfg.Name)
	if err := dr.reconcileModules(ctx, device, cfg); err != nil {
		return fmt.Errorf("failed to reconcile modules: %w", err)
	}

	dr.logger.Debug("  Reconciling interfaces for %s...", cfg.Name)
	if err := dr.reconcileInterfaces(ctx, device, cfg); err != nil {
		return fmt.Errorf("failed to reconcile interfaces: %w", err)
	}

	// Rear ports before front ports (front ports reference rear ports)
	dr.logger.Debug("  Reconciling rear ports for %s...", cfg.Name)
	if err := dr.reconcileRearPorts(ctx, device, cfg); err != nil {
		return fmt.Errorf("failed to reconcile rear ports: %w", err)
	}

	dr.logger.Debug("  Reconciling front ports for %s...", cfg.Name)
	if err := dr.reconcileFrontPorts(ctx, device, cfg); err != nil {
		return fmt.Errorf("failed to reconcile front ports: %w", err)
	}

	dr.logger.Debug("  Reconciling power and console ports for %s...", cfg.Name)
	if err := dr.reconcilePower(ctx, device, cfg); err != nil {
		return fmt.Errorf("failed to reconcile power ports: %w", err)
	}
	if err := dr.reconcileConsole(ctx, device, cfg); err != nil {
		return fmt.Errorf("failed to reconcile console ports: %w", err)
	}

	return nil
}

// reconcileModules reconciles the device's module bays, then installs modules. A module
// may sit in a bay provided by another module, so modules are installed as their bays
// appear.
func (dr *DeviceReconciler) reconcileModules(ctx context.Context, device *models.Device, cfg *models.DeviceConfig) error {
	for _, bayCfg := range cfg.ModuleBays {
		if err := dr.reconcileModuleBay(ctx, device, nil, bayCfg); err != nil {
			return err
		}
	}

	remaining := cfg.Modules
	for len(remaining) > 0 {
		var deferred []models.ModuleConfig
		for _, modCfg := range remaining {
			bay, ok := dr.moduleBay(device.ID, modCfg.Bay)
			if !ok {
				deferred = append(deferred, modCfg)
				continue
			}
			if err := dr.reconcileModule(ctx, device, bay, modCfg); err != nil {
				return err
			}
		}
		if len(deferred) == len(remaining) {
			return fmt.Errorf("module bay %s not found on %s", deferred[0].Bay, device)
		}
		remaining = deferred
	}
	return nil
}

func (dr *DeviceReconciler) reconcileModuleBay(ctx context.Context, device *models.Device, moduleID *uint, cfg models.ModuleBayConfig) error {
	bay := &models.ModuleBay{}
	if existing, ok := dr.moduleBay(device.ID, cfg.Name); ok {
		bay = existing.Clone().(*models.ModuleBay)
	}
	bay.DeviceID = device.ID
	bay.ModuleID = moduleID
	bay.Name = cfg.Name
	bay.Label = cfg.Label
	bay.Position = cfg.Position

	label := fmt.Sprintf("%s[%s]", device, cfg.Name)
	if err := dr.apply(bay, label, func() error { return dr.engine.SaveModuleBay(ctx, bay) }); err != nil {
		return fmt.Errorf("failed to apply module bay %s: %w", cfg.Name, err)
	}
	return nil
}

func (dr *DeviceReconciler) reconcileModule(ctx context.Context, device *models.Device, bay *models.ModuleBay, cfg models.ModuleConfig) error {
	moduleTypeID, err := dr.moduleTypeID(cfg.ModuleTypeSlug)
	if err != nil {
		return err
	}

	module := &models.Module{}
	if existing, ok := dr.inv.ModuleInBay(bay.ID); ok {
		module = existing.Clone().(*models.Module)
	}
	module.DeviceID = device.ID
	module.ModuleBayID = bay.ID
	module.ModuleTypeID = moduleTypeID
	module.Serial = cfg.Serial
	module.Status = cfg.Status

	label := fmt.Sprintf("%s in %s[%s]", cfg.ModuleTypeSlug, device, bay.Name)
	if err := dr.apply(module, label, func() error { return dr.engine.SaveModule(ctx, module) }); err != nil {
		return fmt.Errorf("failed to apply module in bay %s: %w", bay.Name, err)
	}

	for _, bayCfg := range cfg.ModuleBays {
		if err := dr.reconcileModuleBay(ctx, device, models.UintPtr(module.ID), bayCfg); err != nil {
			return err
		}
	}
	return nil
}

// prepare returns a copy of the stored component or a new one, placed on the device
func (dr *DeviceReconciler) prepare(device *models.Device, objectType, name, moduleBay string) (models.Component, error) {
	moduleID, err := dr.moduleIn(device.ID, moduleBay)
	if err != nil {
		return nil, err
	}

	var comp models.Component
	if existing, ok := dr.component(device.ID, objectType, name); ok {
		comp = existing.Clone().(models.Component)
	} else {
		term, _ := models.NewTermination(objectType)
		comp = term.(models.Component)
	}
	dc := comp.Component()
	dc.DeviceID = device.ID
	dc.Name = name
	dc.ModuleID = moduleID
	return comp, nil
}

// saveComponent applies a component and queues its link
func (dr *DeviceReconciler) saveComponent(ctx context.Context, device *models.Device, comp models.Component, link *models.LinkConfig) error {
	name := comp.Component().Name
	label := fmt.Sprintf("%s[%s]", device, name)
	if err := dr.apply(comp, label, func() error { return dr.engine.SaveTermination(ctx, comp) }); err != nil {
		return err
	}

	// Queue cable for later reconciliation (after all devices are processed)
	dr.queue(&CableEndpoint{
		DeviceName: device.Name,
		PortName:   name,
		ObjectType: comp.ObjectType(),
		ObjectID:   comp.GetID(),
	}, link)
	return nil
}

// reconcileInterfaces reconciles device interfaces
func (dr *DeviceReconciler) reconcileInterfaces(ctx context.Context, device *models.Device, cfg *models.DeviceConfig) error {
	for i, ifaceCfg := range cfg.Interfaces {
		dr.logger.Debug("    Interface %d/%d: %s", i+1, len(cfg.Interfaces), ifaceCfg.Name)

		comp, err := dr.prepare(device, constants.TerminationInterface, ifaceCfg.Name, ifaceCfg.Module)
		if err != nil {
			return fmt.Errorf("interface %s: %w", ifaceCfg.Name, err)
		}
		iface := comp.(*models.Interface)
		iface.Type = ifaceCfg.Type
		iface.Enabled = ifaceCfg.IsEnabled()
		iface.MgmtOnly = ifaceCfg.MgmtOnly
		iface.MarkConnected = ifaceCfg.MarkConnected

		if err := dr.saveComponent(ctx, device, iface, ifaceCfg.Link); err != nil {
			return fmt.Errorf("failed to apply interface %s: %w", ifaceCfg.Name, err)
		}
	}
	return nil
}

// reconcileRearPorts reconciles device rear ports
func (dr *DeviceReconciler) reconcileRearPorts(ctx context.Context, device *models.Device, cfg *models.DeviceConfig) error {
	for _, rpCfg := range cfg.RearPorts {
		comp, err := dr.prepare(device, constants.TerminationRearPort, rpCfg.Name, rpCfg.Module)
		if err != nil {
			return fmt.Errorf("rear port %s: %w", rpCfg.Name, err)
		}
		rp := comp.(*models.RearPort)
		rp.Type = rpCfg.Type
		rp.Positions = rpCfg.Positions
		if rp.Positions == 0 {
			rp.Positions = 1
		}

		if err := dr.saveComponent(ctx, device, rp, rpCfg.Link); err != nil {
			return fmt.Errorf("failed to apply rear port %s: %w", rpCfg.Name, err)
		}
	}
	return nil
}

// reconcileFrontPorts reconciles device front ports
func (dr *DeviceReconciler) reconcileFrontPorts(ctx context.Context, device *models.Device, cfg *models.DeviceConfig) error {
	for _, fpCfg := range cfg.FrontPorts {
		rear, ok := dr.component(device.ID, constants.TerminationRearPort, fpCfg.RearPort)
		if !ok {
			return fmt.Errorf("rear port %s for front port %s not found", fpCfg.RearPort, fpCfg.Name)
		}

		comp, err := dr.prepare(device, constants.TerminationFrontPort, fpCfg.Name, fpCfg.Module)
		if err != nil {
			return fmt.Errorf("front port %s: %w", fpCfg.Name, err)
		}
		fp := comp.(*models.FrontPort)
		fp.Type = fpCfg.Type
		fp.RearPortID = rear.GetID()
		fp.RearPortPosition = fpCfg.RearPortPosition
		if fp.RearPortPosition == 0 {
			fp.RearPortPosition = 1
		}

		if err := dr.saveComponent(ctx, device, fp, fpCfg.Link); err != nil {
			return fmt.Errorf("failed to apply front port %s: %w", fpCfg.Name, err)
		}
	}
	return nil
}

// reconcilePower reconciles power ports, then the outlets fed by them
func (dr *DeviceReconciler) reconcilePower(ctx context.Context, device *models.Device, cfg *models.DeviceConfig) error {
	for _, ppCfg := range cfg.PowerPorts {
		comp, err := dr.prepare(device, constants.TerminationPowerPort, ppCfg.Name, "")
		if err != nil {
			return err
		}
		pp := comp.(*models.PowerPort)
		pp.MaximumDraw = ppCfg.MaximumDraw
		pp.AllocatedDraw = ppCfg.AllocatedDraw

		if err := dr.saveComponent(ctx, device, pp, ppCfg.Link); err != nil {
			return fmt.Errorf("failed to apply power port %s: %w", ppCfg.Name, err)
		}
	}

	for _, poCfg := range cfg.PowerOutlets {
		comp, err := dr.prepare(device, constants.TerminationPowerOutlet, poCfg.Name, "")
		if err != nil {
			return err
		}
		po := comp.(*models.PowerOutlet)
		po.FeedLeg = poCfg.FeedLeg
		po.PowerPortID = nil
		if poCfg.PowerPort != "" {
			pp, ok := dr.component(device.ID, constants.TerminationPowerPort, poCfg.PowerPort)
			if !ok {
				return fmt.Errorf("power port %s for outlet %s not found", poCfg.PowerPort, poCfg.Name)
			}
			po.PowerPortID = models.UintPtr(pp.GetID())
		}

		if err := dr.saveComponent(ctx, device, po, poCfg.Link); err != nil {
			return fmt.Errorf("failed to apply power outlet %s: %w", poCfg.Name, err)
		}
	}
	return nil
}

// reconcileConsole reconciles console ports and console server ports
func (dr *DeviceReconciler) reconcileConsole(ctx context.Context, device *models.Device, cfg *models.DeviceConfig) error {
	kinds := []struct {
		objectType string
		ports      []models.ConsolePortConfig
	}{
		{constants.TerminationConsolePort, cfg.ConsolePorts},
		{constants.TerminationConsoleServerPort, cfg.ConsoleServerPorts},
	}

	for _, kind := range kinds {
		for _, portCfg := range kind.ports {
			comp, err := dr.prepare(device, kind.objectType, portCfg.Name, "")
			if err != nil {
				return err
			}
			if err := dr.saveComponent(ctx, device, comp, portCfg.Link); err != nil {
				return fmt.Errorf("failed to apply %s %s: %w", kind.objectType, portCfg.Name, err)
			}
		}
	}
	return nil
}
