package topology

import (
	"context"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

func assignedTo(mac *models.MACAddress, ref models.ObjectRef) bool {
	assigned := mac.AssignedObject()
	return assigned != nil && *assigned == ref
}

// primaryOf reports whether obj designates the MAC address as its primary
func primaryOf(obj models.Object, macID uint) bool {
	switch o := obj.(type) {
	case *models.Interface:
		return o.PrimaryMACAddressID != nil && *o.PrimaryMACAddressID == macID
	}
	return false
}

// CleanMACAddress rejects moving or clearing the assignment of a MAC address while the
// object it is currently assigned to uses it as its primary MAC
func CleanMACAddress(inv *Inventory, mac *models.MACAddress) error {
	verr := NewValidationError()
	next := mac.AssignedObject()
	if next != nil {
		if next.Type != constants.TerminationInterface {
			verr.Add("assigned_object_type", "MAC addresses can only be assigned to interfaces.")
			return verr
		}
		if _, ok := inv.Get(*next); !ok {
			verr.Add("assigned_object_id", "Related object %s does not exist.", next)
			return verr
		}
	}

	if mac.ID == 0 {
		return nil
	}
	stored, ok := inv.MACAddress(mac.ID)
	if !ok {
		return nil
	}
	current := stored.AssignedObject()
	if current == nil {
		return nil
	}
	owner, ok := inv.Get(*current)
	if !ok || !primaryOf(owner, mac.ID) {
		return nil
	}

	switch {
	case next == nil:
		verr.Add("", "Cannot unassign MAC Address while it is designated as the primary MAC for an object")
	case *next != *current:
		verr.Add("", "Cannot reassign MAC Address while it is designated as the primary MAC for an object")
	}
	return verr.Err()
}

// SaveMACAddress normalizes, validates and persists a MAC address
func (e *Engine) SaveMACAddress(ctx context.Context, mac *models.MACAddress) error {
	mac.MACAddress = models.NormalizeMAC(mac.MACAddress)
	return e.save(ctx, mac, func(tx Tx) error {
		return CleanMACAddress(tx.Inventory(), mac)
	}, nil)
}
