package topology

import (
	"context"
	"fmt"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// IsConnectableInterfaceType reports whether an interface of the given type can carry a cable
func IsConnectableInterfaceType(ifaceType string) bool {
	for _, group := range [][]string{
		constants.VirtualInterfaceTypes,
		constants.WirelessInterfaceTypes,
		constants.CellularInterfaceTypes,
	} {
		for _, t := range group {
			if t == ifaceType {
				return false
			}
		}
	}
	return true
}

func interfaceTypeLabel(ifaceType string) string {
	if label, ok := constants.InterfaceTypeLabels[ifaceType]; ok {
		return label
	}
	return ifaceType
}

// CleanTermination checks a cable termination against its parent and, per kind, the
// objects it refers to
func CleanTermination(inv *Inventory, term models.Termination) error {
	verr := NewValidationError()
	parent := term.Parent()
	if _, ok := inv.Get(parent); !ok {
		verr.Add("", "Related object %s does not exist.", parent)
		return verr
	}

	if comp, ok := term.(models.Component); ok {
		dc := comp.Component()
		if dc.ModuleID != nil {
			module, ok := inv.Module(*dc.ModuleID)
			if !ok {
				verr.Add("module", "Related object %s %d does not exist.", constants.ObjectModule, *dc.ModuleID)
			} else if module.DeviceID != dc.DeviceID {
				verr.Add("module", "Module %s does not belong to the parent device.", module)
			}
		}
	}

	cabled := term.Cabled()
	if cabled.MarkConnected && cabled.CableID != nil {
		verr.Add("mark_connected", "Cannot mark as connected with a cable attached.")
	}

	switch t := term.(type) {
	case *models.Interface:
		if t.CableID != nil && !IsConnectableInterfaceType(t.Type) {
			verr.Add("type", "%s interfaces cannot have a cable attached.", interfaceTypeLabel(t.Type))
		}
		if t.PrimaryMACAddressID != nil {
			mac, ok := inv.MACAddress(*t.PrimaryMACAddressID)
			switch {
			case !ok:
				verr.Add("primary_mac_address", "Related object %s %d does not exist.", constants.ObjectMACAddress, *t.PrimaryMACAddressID)
			case t.ID == 0 || !assignedTo(mac, models.RefOf(t)):
				verr.Add("primary_mac_address", "MAC address %s is not assigned to this interface.", mac)
			}
		}
	case *models.FrontPort:
		rear, ok := inv.RearPort(t.RearPortID)
		if !ok {
			verr.Add("rear_port", "Related object %s %d does not exist.", constants.TerminationRearPort, t.RearPortID)
			break
		}
		if rear.DeviceID != t.DeviceID {
			verr.Add("rear_port", "Rear port (%s) must belong to the same device", rear.Name)
		}
		if t.RearPortPosition > rear.Positions {
			verr.Add("rear_port_position", "Invalid rear port position (%d): Rear port %s has only %d positions.",
				t.RearPortPosition, rear.Name, rear.Positions)
		}
	case *models.CircuitTermination:
		if t.SiteID != nil && t.ProviderNetworkID != nil {
			verr.Add("", "A circuit termination cannot attach to both a site and a provider network.")
		}
		requireOptionalRef(verr, inv, "site", constants.ObjectSite, t.SiteID)
		requireOptionalRef(verr, inv, "provider_network", constants.ObjectProviderNetwork, t.ProviderNetworkID)
		if t.ProviderNetworkID != nil && t.CableID != nil {
			verr.Add("provider_network", "Circuit terminations attached to a provider network may not be cabled.")
		}
	case *models.PowerFeed:
		requireOptionalRef(verr, inv, "rack", constants.ObjectRack, t.RackID)
	}
	return verr.Err()
}

// SaveTermination validates and persists a cable termination. Cable state is owned by the
// cable operations: the stored cable and cable end are kept whatever the caller passes.
func (e *Engine) SaveTermination(ctx context.Context, term models.Termination) error {
	if _, ok := models.NewTermination(term.ObjectType()); !ok {
		return fmt.Errorf("%s is not a termination type", term.ObjectType())
	}
	return e.save(ctx, term, func(tx Tx) error {
		inv := tx.Inventory()
		cabled := term.Cabled()
		cabled.CableID, cabled.CableEnd = nil, ""
		if term.GetID() != 0 {
			if stored, err := inv.Termination(models.RefOf(term)); err == nil {
				cabled.CableID = stored.Cabled().CableID
				cabled.CableEnd = stored.Cabled().CableEnd
			}
		}
		return CleanTermination(inv, term)
	}, func(tx Tx) error {
		// Cached placement of the bound cable termination row follows the parent.
		ref := models.RefOf(term)
		_, err := refreshCableTerminations(tx, func(ct *models.CableTermination) bool {
			return ct.Termination() == ref
		})
		return err
	})
}
