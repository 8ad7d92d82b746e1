package topology

import (
	"context"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// CleanLocation checks that a location's parent is on the same site and that the
// location is not placed below itself
func CleanLocation(inv *Inventory, loc *models.Location) error {
	verr := NewValidationError()
	if !requireRef(verr, inv, "site", constants.ObjectSite, loc.SiteID) {
		return verr
	}
	if loc.ParentID == nil {
		return nil
	}

	parent, ok := inv.Location(*loc.ParentID)
	if !ok {
		verr.Add("parent", "Related object %s %d does not exist.", constants.ObjectLocation, *loc.ParentID)
		return verr
	}
	if parent.SiteID != loc.SiteID {
		verr.Add("parent", "Parent location (%s) must belong to the same site (%s).", parent, siteName(inv, loc.SiteID))
	}

	if loc.ID != 0 {
		// Walk up from the new parent; reaching loc means a loop.
		seen := make(map[uint]bool)
		for cur := parent; cur != nil; {
			if cur.ID == loc.ID {
				verr.Add("parent", "A location cannot be a child of itself or one of its descendants.")
				break
			}
			if seen[cur.ID] || cur.ParentID == nil {
				break
			}
			seen[cur.ID] = true
			next, ok := inv.Location(*cur.ParentID)
			if !ok {
				break
			}
			cur = next
		}
	}
	return verr.Err()
}

// SaveLocation validates and persists a location. On update, the location's site is
// propagated to everything contained in it and its descendants.
func (e *Engine) SaveLocation(ctx context.Context, loc *models.Location) (*CascadeResult, error) {
	result := &CascadeResult{}
	created := loc.ID == 0
	err := e.save(ctx, loc, func(tx Tx) error {
		return CleanLocation(tx.Inventory(), loc)
	}, func(tx Tx) error {
		if created {
			return nil
		}
		return cascadeLocation(tx, loc, result)
	})
	if err != nil {
		return nil, err
	}
	if result.Total() > 0 {
		e.log.WithField("location", loc.Name).WithField("site_id", loc.SiteID).
			Infof("site change cascaded to %d objects", result.Total())
	}
	return result, nil
}
