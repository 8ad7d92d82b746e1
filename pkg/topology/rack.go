package topology

import (
	"context"
	"math"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// CleanRack checks that a rack still houses its mounted devices and that its location
// is on its site
func CleanRack(inv *Inventory, rack *models.Rack) error {
	verr := NewValidationError()
	if !requireRef(verr, inv, "site", constants.ObjectSite, rack.SiteID) {
		return verr
	}

	if rack.ID != 0 {
		var top, bottom *float64
		for _, d := range inv.DevicesInRack(rack.ID) {
			if d.Position == nil {
				continue
			}
			height := 0.0
			if dt, ok := inv.DeviceType(d.DeviceTypeID); ok {
				height = dt.UHeight
			}
			reach := *d.Position + height
			if top == nil || reach > *top {
				top = &reach
			}
			pos := *d.Position
			if bottom == nil || pos < *bottom {
				bottom = &pos
			}
		}
		if top != nil {
			minHeight := *top - float64(startingUnit(rack))
			if float64(rack.UHeight) < minHeight {
				verr.Add("u_height", "Rack must be at least %sU tall to house currently installed devices.", formatUnit(minHeight))
			}
		}
		if bottom != nil && float64(startingUnit(rack)) > *bottom {
			verr.Add("starting_unit", "Rack unit numbering must begin at %s or less to house currently installed devices.", formatUnit(*bottom))
		}
	}

	if rack.LocationID != nil {
		loc, ok := inv.Location(*rack.LocationID)
		if !ok {
			verr.Add("location", "Related object %s %d does not exist.", constants.ObjectLocation, *rack.LocationID)
		} else if loc.SiteID != rack.SiteID {
			verr.Add("location", "Location must be from the same site, %s.", siteName(inv, rack.SiteID))
		}
	}
	return verr.Err()
}

// SaveRack validates and persists a rack. On update, mounted devices follow the rack's
// site and location.
func (e *Engine) SaveRack(ctx context.Context, rack *models.Rack) (*CascadeResult, error) {
	if rack.StartingUnit == 0 {
		rack.StartingUnit = constants.DefaultStartingUnit
	}
	if rack.UHeight == 0 {
		rack.UHeight = constants.DefaultRackHeight
	}

	result := &CascadeResult{}
	created := rack.ID == 0
	err := e.save(ctx, rack, func(tx Tx) error {
		return CleanRack(tx.Inventory(), rack)
	}, func(tx Tx) error {
		if created {
			return nil
		}
		return cascadeRack(tx, rack, result)
	})
	if err != nil {
		return nil, err
	}
	if result.Total() > 0 {
		e.log.WithField("rack", rack.Name).Infof("rack move cascaded to %d objects", result.Total())
	}
	return result, nil
}

// RackElevation returns one face of a rack
func (e *Engine) RackElevation(ctx context.Context, rackID uint, face string, exclude []uint) ([]RackUnit, error) {
	var units []RackUnit
	err := e.store.View(ctx, func(inv *Inventory) error {
		rack, ok := inv.Rack(rackID)
		if !ok {
			return notFound(constants.ObjectRack, rackID)
		}
		var err error
		units, err = Elevation(inv, rack, face, exclude)
		return err
	})
	return units, err
}

// AvailableUnits returns the positions where a device of uHeight fits in a rack
func (e *Engine) AvailableUnits(ctx context.Context, rackID uint, uHeight float64, face string, exclude []uint) ([]float64, error) {
	var units []float64
	err := e.store.View(ctx, func(inv *Inventory) error {
		rack, ok := inv.Rack(rackID)
		if !ok {
			return notFound(constants.ObjectRack, rackID)
		}
		if err := checkFitHeight(rack, uHeight); err != nil {
			return err
		}
		var err error
		units, err = AvailableUnits(inv, rack, uHeight, face, exclude, false)
		return err
	})
	return units, err
}

// checkFitHeight accepts heights in half units from 0.5U up to the rack height
func checkFitHeight(rack *models.Rack, uHeight float64) error {
	if math.IsNaN(uHeight) || uHeight <= 0 || uHeight > float64(rack.UHeight) || !isHalfStep(uHeight) {
		verr := NewValidationError()
		verr.Add("u_height", "Height must be a multiple of 0.5 between 0.5U and the rack height (%dU).", rack.UHeight)
		return verr
	}
	return nil
}

// Utilization returns the occupied share of a rack as a percentage
func (e *Engine) Utilization(ctx context.Context, rackID uint) (float64, error) {
	var pct float64
	err := e.store.View(ctx, func(inv *Inventory) error {
		rack, ok := inv.Rack(rackID)
		if !ok {
			return notFound(constants.ObjectRack, rackID)
		}
		var err error
		pct, err = Utilization(inv, rack)
		return err
	})
	return pct, err
}
