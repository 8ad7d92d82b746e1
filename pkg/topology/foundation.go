package topology

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// SaveSite persists a site
func (e *Engine) SaveSite(ctx context.Context, site *models.Site) error {
	return e.save(ctx, site, nil, nil)
}

// SaveModuleType persists a module type
func (e *Engine) SaveModuleType(ctx context.Context, mt *models.ModuleType) error {
	return e.save(ctx, mt, nil, nil)
}

// SaveCircuit persists a circuit
func (e *Engine) SaveCircuit(ctx context.Context, circuit *models.Circuit) error {
	return e.save(ctx, circuit, nil, nil)
}

// SaveProviderNetwork persists a provider network
func (e *Engine) SaveProviderNetwork(ctx context.Context, network *models.ProviderNetwork) error {
	return e.save(ctx, network, nil, nil)
}

// CleanPowerPanel checks that the panel's location is on its site
func CleanPowerPanel(inv *Inventory, panel *models.PowerPanel) error {
	verr := NewValidationError()
	if !requireRef(verr, inv, "site", constants.ObjectSite, panel.SiteID) {
		return verr
	}
	if panel.LocationID != nil {
		loc, ok := inv.Location(*panel.LocationID)
		if !ok {
			verr.Add("location", "Related object %s %d does not exist.", constants.ObjectLocation, *panel.LocationID)
		} else if loc.SiteID != panel.SiteID {
			site, _ := inv.Site(panel.SiteID)
			verr.Add("location", "Location %s (%s) is in a different site than %s.", loc, siteName(inv, loc.SiteID), site)
		}
	}
	return verr.Err()
}

// SavePowerPanel validates and persists a power panel
func (e *Engine) SavePowerPanel(ctx context.Context, panel *models.PowerPanel) error {
	return e.save(ctx, panel, func(tx Tx) error {
		return CleanPowerPanel(tx.Inventory(), panel)
	}, nil)
}

// SavePowerFeed validates and persists a power feed, keeping its stored cable state
func (e *Engine) SavePowerFeed(ctx context.Context, feed *models.PowerFeed) error {
	return e.SaveTermination(ctx, feed)
}

// CleanCluster checks that a cluster's location is on its site
func CleanCluster(inv *Inventory, cluster *models.Cluster) error {
	verr := NewValidationError()
	requireOptionalRef(verr, inv, "site", constants.ObjectSite, cluster.SiteID)
	if cluster.LocationID != nil {
		loc, ok := inv.Location(*cluster.LocationID)
		if !ok {
			verr.Add("location", "Related object %s %d does not exist.", constants.ObjectLocation, *cluster.LocationID)
		} else if cluster.SiteID != nil && loc.SiteID != *cluster.SiteID {
			verr.Add("location", "Location %s does not belong to site %s.", loc, siteName(inv, *cluster.SiteID))
		}
	}
	return verr.Err()
}

// SaveCluster validates and persists a cluster. A location scope implies its site.
func (e *Engine) SaveCluster(ctx context.Context, cluster *models.Cluster) error {
	return e.save(ctx, cluster, func(tx Tx) error {
		if err := CleanCluster(tx.Inventory(), cluster); err != nil {
			return err
		}
		if cluster.LocationID != nil && cluster.SiteID == nil {
			if loc, ok := tx.Inventory().Location(*cluster.LocationID); ok {
				cluster.SiteID = models.UintPtr(loc.SiteID)
			}
		}
		return nil
	}, nil)
}

// CleanDeviceType checks the component templates of a device type and its height against
// the devices already using it
func CleanDeviceType(inv *Inventory, dt *models.DeviceType) error {
	verr := NewValidationError()
	if !isHalfStep(dt.UHeight) {
		verr.Add("u_height", "U height must be in increments of 0.5 rack units.")
		return verr
	}
	if dt.IsChildDevice() && dt.UHeight != 0 {
		verr.Add("u_height", "Child device types must be 0U.")
	}
	cleanComponentTemplates(verr, dt.Components)
	if dt.ID == 0 || dt.UHeight == 0 {
		return verr.Err()
	}

	stored, ok := inv.DeviceType(dt.ID)
	if !ok || dt.UHeight <= stored.UHeight {
		return verr.Err()
	}
	// A taller type must still fit every device already mounted with it.
	for _, d := range inv.Devices() {
		if d.DeviceTypeID != dt.ID || d.RackID == nil || d.Position == nil {
			continue
		}
		rack, ok := inv.Rack(*d.RackID)
		if !ok {
			continue
		}
		face := d.Face
		if dt.IsFullDepth {
			face = ""
		}
		available, err := AvailableUnits(inv, rack, dt.UHeight, face, []uint{d.ID}, false)
		if err != nil {
			return err
		}
		if !containsUnit(available, *d.Position) {
			verr.Add("u_height", "Device %s in rack %s does not have sufficient space to accommodate a height of %sU",
				d, rack, formatUnit(dt.UHeight))
		}
	}
	return verr.Err()
}

// SaveDeviceType validates and persists a device type
func (e *Engine) SaveDeviceType(ctx context.Context, dt *models.DeviceType) error {
	return e.save(ctx, dt, func(tx Tx) error {
		return CleanDeviceType(tx.Inventory(), dt)
	}, nil)
}

// CleanRackReservation checks that reserved units exist in the rack and are not reserved twice
func CleanRackReservation(inv *Inventory, res *models.RackReservation) error {
	verr := NewValidationError()
	rack, ok := inv.Rack(res.RackID)
	if !ok {
		verr.Add("rack", "Related object %s %d does not exist.", constants.ObjectRack, res.RackID)
		return verr
	}

	valid := make(map[float64]bool)
	for _, u := range Units(rack) {
		valid[u] = true
	}
	var outside []int
	for _, u := range res.Units {
		if !valid[float64(u)] {
			outside = append(outside, u)
		}
	}
	if len(outside) > 0 {
		verr.Add("units", "Invalid unit(s) for %dU rack: %s", rack.UHeight, joinUnits(outside))
	}

	reserved := make(map[int]bool)
	for _, other := range inv.ReservationsInRack(rack.ID) {
		if other.ID == res.ID {
			continue
		}
		for _, u := range other.Units {
			reserved[u] = true
		}
	}
	var conflicts []int
	for _, u := range res.Units {
		if reserved[u] {
			conflicts = append(conflicts, u)
		}
	}
	if len(conflicts) > 0 {
		verr.Add("units", "The following units have already been reserved: %s", joinUnits(conflicts))
	}
	return verr.Err()
}

// SaveRackReservation validates and persists a reservation
func (e *Engine) SaveRackReservation(ctx context.Context, res *models.RackReservation) error {
	sort.Ints(res.Units)
	return e.save(ctx, res, func(tx Tx) error {
		return CleanRackReservation(tx.Inventory(), res)
	}, nil)
}

func joinUnits(units []int) string {
	parts := make([]string, 0, len(units))
	for _, u := range units {
		parts = append(parts, formatUnit(float64(u)))
	}
	return strings.Join(parts, ", ")
}

func containsUnit(units []float64, u float64) bool {
	for _, v := range units {
		if v == u {
			return true
		}
	}
	return false
}

func siteName(inv *Inventory, id uint) string {
	if site, ok := inv.Site(id); ok {
		return site.Name
	}
	return fmt.Sprintf("#%d", id)
}
