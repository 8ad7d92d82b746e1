package topology

import (
	"context"
	"strings"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// CleanDevice checks a device's site, location, rack, position and cluster against each
// other and against the devices already mounted in the rack
func CleanDevice(inv *Inventory, d *models.Device) error {
	verr := NewValidationError()
	site, ok := inv.Site(d.SiteID)
	if !ok {
		verr.Add("site", "Related object %s %d does not exist.", constants.ObjectSite, d.SiteID)
		return verr
	}
	dt, ok := inv.DeviceType(d.DeviceTypeID)
	if !ok {
		verr.Add("device_type", "Related object %s %d does not exist.", constants.ObjectDeviceType, d.DeviceTypeID)
		return verr
	}

	// Names are unique per site, ignoring case; unnamed devices may repeat
	if d.Name != "" {
		for _, other := range inv.Devices() {
			if other.ID != d.ID && other.SiteID == d.SiteID && strings.EqualFold(other.Name, d.Name) {
				verr.Add("name", "Device name must be unique per site: %s already exists at %s.", other.Name, site)
				return verr
			}
		}
	}

	var rack *models.Rack
	if d.RackID != nil {
		if rack, ok = inv.Rack(*d.RackID); !ok {
			verr.Add("rack", "Related object %s %d does not exist.", constants.ObjectRack, *d.RackID)
			return verr
		}
	}
	var loc *models.Location
	if d.LocationID != nil {
		if loc, ok = inv.Location(*d.LocationID); !ok {
			verr.Add("location", "Related object %s %d does not exist.", constants.ObjectLocation, *d.LocationID)
			return verr
		}
	}

	// Site, location and rack must agree
	if rack != nil && rack.SiteID != d.SiteID {
		verr.Add("rack", "Rack %s does not belong to site %s.", rack, site)
		return verr
	}
	if loc != nil && loc.SiteID != d.SiteID {
		verr.Add("location", "Location %s does not belong to site %s.", loc, site)
		return verr
	}
	if rack != nil && loc != nil && !models.SameID(rack.LocationID, d.LocationID) {
		verr.Add("rack", "Rack %s does not belong to location %s.", rack, loc)
		return verr
	}

	if rack == nil {
		if d.Face != "" {
			verr.Add("face", "Cannot select a rack face without assigning a rack.")
		}
		if d.Position != nil {
			verr.Add("position", "Cannot select a rack position without assigning a rack.")
		}
		if verr.HasErrors() {
			return verr
		}
	}

	// Position and face
	if d.Position != nil && !isHalfStep(*d.Position) {
		verr.Add("position", "Position must be in increments of 0.5 rack units.")
		return verr
	}
	if d.Position != nil && d.Face == "" {
		verr.Add("face", "Must specify rack face when defining rack position.")
		return verr
	}
	if d.Position != nil && dt.UHeight == 0 {
		verr.Add("position", "A 0U device type (%s) cannot be assigned to a rack position.", dt)
		return verr
	}

	if rack != nil {
		if dt.IsChildDevice() && d.Face != "" {
			verr.Add("face", "Child device types cannot be assigned to a rack face. This is an attribute of the parent device.")
		}
		if dt.IsChildDevice() && d.Position != nil {
			verr.Add("position", "Child device types cannot be assigned to a rack position. This is an attribute of the parent device.")
		}
		if verr.HasErrors() {
			return verr
		}

		if d.Position != nil {
			face := d.Face
			if dt.IsFullDepth {
				face = ""
			}
			var exclude []uint
			if d.ID != 0 {
				exclude = []uint{d.ID}
			}
			available, err := AvailableUnits(inv, rack, dt.UHeight, face, exclude, false)
			if err != nil {
				return err
			}
			if !containsUnit(available, *d.Position) {
				verr.Add("position", "U%s is already occupied or does not have sufficient space to accommodate this device type: %s (%sU)",
					formatUnit(*d.Position), dt, formatUnit(dt.UHeight))
				return verr
			}
		}
	}

	// Cluster scope
	if d.ClusterID != nil {
		cluster, ok := inv.Cluster(*d.ClusterID)
		if !ok {
			verr.Add("cluster", "Related object %s %d does not exist.", constants.ObjectCluster, *d.ClusterID)
			return verr
		}
		if cluster.SiteID != nil && *cluster.SiteID != d.SiteID {
			verr.Add("cluster", "The assigned cluster belongs to a different site (%s)", siteName(inv, *cluster.SiteID))
		}
		if cluster.LocationID != nil && !models.SameID(cluster.LocationID, d.LocationID) {
			name := "?"
			if cl, ok := inv.Location(*cluster.LocationID); ok {
				name = cl.Name
			}
			verr.Add("cluster", "The assigned cluster belongs to a different location (%s)", name)
		}
	}
	return verr.Err()
}

// SaveDevice validates and persists a device. A racked device inherits the rack's location,
// and the cached placement of its cabled components follows the device. A new device is
// created with the components its type templates.
func (e *Engine) SaveDevice(ctx context.Context, d *models.Device) error {
	created := d.ID == 0
	return e.save(ctx, d, func(tx Tx) error {
		inv := tx.Inventory()
		if err := CleanDevice(inv, d); err != nil {
			return err
		}
		if d.RackID != nil {
			if rack, ok := inv.Rack(*d.RackID); ok && rack.LocationID != nil {
				d.LocationID = models.UintPtr(*rack.LocationID)
			}
		}
		return nil
	}, func(tx Tx) error {
		if created {
			return instantiateComponents(tx, d)
		}
		_, err := refreshCableTerminations(tx, func(ct *models.CableTermination) bool {
			return ct.DeviceID != nil && *ct.DeviceID == d.ID
		})
		return err
	})
}
