package topology

import (
	"context"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

const msgModuleRecursion = "A module bay cannot belong to a module installed within it."

// walkModules follows module -> occupied bay -> module providing that bay, failing when
// a module or bay is visited twice. bays seeds the visited bays. The walk is bounded by
// the number of modules in the inventory.
func walkModules(inv *Inventory, start *models.Module, startBay *models.ModuleBay, bays []uint) bool {
	visitedBays := make(map[uint]bool, len(bays))
	for _, id := range bays {
		visitedBays[id] = true
	}
	visitedModules := make(map[uint]bool)

	module, bay := start, startBay
	for steps := 0; module != nil && steps <= inv.Count(constants.ObjectModule)+1; steps++ {
		if visitedModules[module.ID] || (bay != nil && visitedBays[bay.ID]) {
			return false
		}
		visitedModules[module.ID] = true
		if bay == nil {
			return true
		}
		visitedBays[bay.ID] = true
		if bay.ModuleID == nil {
			return true
		}

		next, ok := inv.Module(*bay.ModuleID)
		if !ok {
			return true
		}
		if next.ID == start.ID {
			// The stored copy of the candidate closes the loop.
			return false
		}
		module = next
		bay, _ = inv.ModuleBay(module.ModuleBayID)
	}
	return true
}

// CleanModuleBay rejects a bay provided by a module that is installed, directly or
// transitively, within the bay itself
func CleanModuleBay(inv *Inventory, bay *models.ModuleBay) error {
	verr := NewValidationError()
	if !requireRef(verr, inv, "device", constants.ObjectDevice, bay.DeviceID) {
		return verr
	}
	if bay.ModuleID == nil {
		return nil
	}

	module, ok := inv.Module(*bay.ModuleID)
	if !ok {
		verr.Add("module", "Related object %s %d does not exist.", constants.ObjectModule, *bay.ModuleID)
		return verr
	}
	if module.DeviceID != bay.DeviceID {
		verr.Add("module", "Module %s does not belong to the same device as the module bay.", module)
		return verr
	}

	occupied, _ := inv.ModuleBay(module.ModuleBayID)
	if occupied != nil && occupied.ID == bay.ID {
		// The stored bay is being replaced by the candidate.
		occupied = bay
	}
	seed := []uint{}
	if bay.ID != 0 {
		seed = append(seed, bay.ID)
	}
	if !walkModules(inv, module, occupied, seed) {
		verr.Add("", msgModuleRecursion)
	}
	return verr.Err()
}

// CleanModule checks that a module is installed in a free bay of its own device and not,
// directly or transitively, within one of its own bays
func CleanModule(inv *Inventory, m *models.Module) error {
	verr := NewValidationError()
	device, ok := inv.Device(m.DeviceID)
	if !ok {
		verr.Add("device", "Related object %s %d does not exist.", constants.ObjectDevice, m.DeviceID)
		return verr
	}
	requireRef(verr, inv, "module_type", constants.ObjectModuleType, m.ModuleTypeID)
	bay, ok := inv.ModuleBay(m.ModuleBayID)
	if !ok {
		verr.Add("module_bay", "Related object %s %d does not exist.", constants.ObjectModuleBay, m.ModuleBayID)
		return verr
	}
	if verr.HasErrors() {
		return verr
	}

	if bay.DeviceID != m.DeviceID {
		verr.Add("", "Module must be installed within a module bay belonging to the assigned device (%s).", device)
		return verr
	}
	if !walkModules(inv, m, bay, nil) {
		verr.Add("", msgModuleRecursion)
		return verr
	}
	if other, ok := inv.ModuleInBay(bay.ID); ok && other.ID != m.ID {
		verr.Add("module_bay", "Module bay %s is already occupied by %s.", bay, other)
	}
	return verr.Err()
}

// SaveModuleBay validates and persists a module bay
func (e *Engine) SaveModuleBay(ctx context.Context, bay *models.ModuleBay) error {
	return e.save(ctx, bay, func(tx Tx) error {
		return CleanModuleBay(tx.Inventory(), bay)
	}, nil)
}

// SaveModule validates and persists a module
func (e *Engine) SaveModule(ctx context.Context, m *models.Module) error {
	return e.save(ctx, m, func(tx Tx) error {
		return CleanModule(tx.Inventory(), m)
	}, nil)
}
