package topology

import (
	"github.com/braunma/netbox-topology/pkg/models"
)

// CascadeResult counts the rows rewritten by a containment cascade
type CascadeResult struct {
	Locations         int `json:"locations"`
	Racks             int `json:"racks"`
	Devices           int `json:"devices"`
	PowerPanels       int `json:"power_panels"`
	CableTerminations int `json:"cable_terminations"`
}

// Total returns the number of rows rewritten
func (r *CascadeResult) Total() int {
	return r.Locations + r.Racks + r.Devices + r.PowerPanels + r.CableTerminations
}

// cascadeLocation moves every descendant of loc, and every rack, device and power panel
// inside them, to loc's site. Rows already on that site are left alone.
func cascadeLocation(tx Tx, loc *models.Location, result *CascadeResult) error {
	inv := tx.Inventory()
	siteID := loc.SiteID

	scope := map[uint]bool{loc.ID: true}
	for _, id := range inv.Descendants(loc.ID) {
		scope[id] = true
		child, ok := inv.Location(id)
		if !ok || child.SiteID == siteID {
			continue
		}
		child.SiteID = siteID
		if err := tx.Save(child); err != nil {
			return err
		}
		result.Locations++
	}

	inScope := func(id *uint) bool { return id != nil && scope[*id] }

	racks := make(map[uint]bool)
	for _, rack := range inv.Racks() {
		if !inScope(rack.LocationID) {
			continue
		}
		racks[rack.ID] = true
		if rack.SiteID == siteID {
			continue
		}
		rack.SiteID = siteID
		if err := tx.Save(rack); err != nil {
			return err
		}
		result.Racks++
	}

	moved := make(map[uint]bool)
	for _, d := range inv.Devices() {
		inRack := d.RackID != nil && racks[*d.RackID]
		if !inScope(d.LocationID) && !inRack {
			continue
		}
		if d.SiteID == siteID {
			continue
		}
		d.SiteID = siteID
		if err := tx.Save(d); err != nil {
			return err
		}
		moved[d.ID] = true
		result.Devices++
	}

	for _, panel := range inv.PowerPanels() {
		if !inScope(panel.LocationID) || panel.SiteID == siteID {
			continue
		}
		panel.SiteID = siteID
		if err := tx.Save(panel); err != nil {
			return err
		}
		result.PowerPanels++
	}

	n, err := refreshCableTerminations(tx, func(ct *models.CableTermination) bool {
		return inScope(ct.LocationID) || (ct.DeviceID != nil && moved[*ct.DeviceID])
	})
	result.CableTerminations += n
	return err
}

// cascadeRack moves the devices mounted in rack to its site and location
func cascadeRack(tx Tx, rack *models.Rack, result *CascadeResult) error {
	inv := tx.Inventory()
	moved := make(map[uint]bool)
	for _, d := range inv.DevicesInRack(rack.ID) {
		if d.SiteID == rack.SiteID && models.SameID(d.LocationID, rack.LocationID) {
			continue
		}
		d.SiteID = rack.SiteID
		d.LocationID = rack.LocationID
		if err := tx.Save(d); err != nil {
			return err
		}
		moved[d.ID] = true
		result.Devices++
	}

	n, err := refreshCableTerminations(tx, func(ct *models.CableTermination) bool {
		return (ct.DeviceID != nil && moved[*ct.DeviceID]) || (ct.RackID != nil && *ct.RackID == rack.ID)
	})
	result.CableTerminations += n
	return err
}

// refreshCableTerminations recomputes the cached placement of the matching termination
// rows and returns how many changed
func refreshCableTerminations(tx Tx, match func(*models.CableTermination) bool) (int, error) {
	inv := tx.Inventory()
	changed := 0
	for _, ct := range inv.CableTerminations() {
		if !match(ct) {
			continue
		}
		term, err := inv.Termination(ct.Termination())
		if err != nil {
			continue
		}
		p := inv.placementOf(term)
		if models.SameID(ct.DeviceID, p.DeviceID) && models.SameID(ct.RackID, p.RackID) &&
			models.SameID(ct.LocationID, p.LocationID) && models.SameID(ct.SiteID, p.SiteID) {
			continue
		}
		ct.DeviceID, ct.RackID, ct.LocationID, ct.SiteID = p.DeviceID, p.RackID, p.LocationID, p.SiteID
		if err := tx.Save(ct); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
