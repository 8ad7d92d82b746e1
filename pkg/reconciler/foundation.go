package reconciler

import (
	"context"
	"fmt"
	"slices"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/loader"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/topology"
)

// FoundationReconciler handles foundation resources (sites, locations, racks, power, clusters)
type FoundationReconciler struct {
	*state
}

// Reconcile runs every foundation step in dependency order
func (fr *FoundationReconciler) Reconcile(ctx context.Context, defs *loader.Definitions) error {
	if err := fr.ReconcileSites(ctx, defs.Sites); err != nil {
		return err
	}
	if err := fr.ReconcileLocations(ctx, defs.Locations); err != nil {
		return err
	}
	if err := fr.ReconcileRacks(ctx, defs.Racks); err != nil {
		return err
	}
	if err := fr.ReconcilePowerPanels(ctx, defs.PowerPanels); err != nil {
		return err
	}
	return fr.ReconcileClusters(ctx, defs.Clusters)
}

// ReconcileSites reconciles site definitions
func (fr *FoundationReconciler) ReconcileSites(ctx context.Context, sites []*models.SiteConfig) error {
	fr.logger.Info("Reconciling %d sites...", len(sites))

	for _, cfg := range sites {
		site := &models.Site{}
		if existing, ok := first(fr.inv.Sites(), func(x *models.Site) bool { return x.Slug == cfg.Slug }); ok {
			site = existing.Clone().(*models.Site)
		}
		site.Name = cfg.Name
		site.Slug = cfg.Slug
		site.Status = cfg.Status
		site.TimeZone = cfg.TimeZone
		site.Description = cfg.Description

		if err := fr.apply(site, cfg.Slug, func() error { return fr.engine.SaveSite(ctx, site) }); err != nil {
			return fmt.Errorf("failed to reconcile site %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// ReconcileLocations reconciles location definitions. Parents are saved before their
// children whatever the order of the definitions.
func (fr *FoundationReconciler) ReconcileLocations(ctx context.Context, locations []*models.LocationConfig) error {
	fr.logger.Info("Reconciling %d locations...", len(locations))

	remaining := locations
	for len(remaining) > 0 {
		var deferred []*models.LocationConfig
		for _, cfg := range remaining {
			siteID, err := fr.siteID(cfg.SiteSlug)
			if err != nil {
				return fmt.Errorf("failed to reconcile location %s: %w", cfg.Name, err)
			}

			var parentID *uint
			if cfg.ParentSlug != "" {
				parent, ok := fr.location(siteID, cfg.ParentSlug)
				if !ok {
					deferred = append(deferred, cfg)
					continue
				}
				parentID = models.UintPtr(parent.ID)
			}

			if err := fr.reconcileLocation(ctx, cfg, siteID, parentID); err != nil {
				return err
			}
		}

		if len(deferred) == len(remaining) {
			return fmt.Errorf("parent location %s of %s not found", deferred[0].ParentSlug, deferred[0].Name)
		}
		remaining = deferred
	}
	return nil
}

func (fr *FoundationReconciler) reconcileLocation(ctx context.Context, cfg *models.LocationConfig, siteID uint, parentID *uint) error {
	// A location is found by slug anywhere, so a definition that changes its site moves it
	loc := &models.Location{}
	if existing, ok := first(fr.inv.Locations(), func(x *models.Location) bool { return x.Slug == cfg.Slug }); ok {
		loc = existing.Clone().(*models.Location)
	}
	loc.Name = cfg.Name
	loc.Slug = cfg.Slug
	loc.SiteID = siteID
	loc.ParentID = parentID
	loc.Status = cfg.Status
	loc.Description = cfg.Description

	var result *topology.CascadeResult
	err := fr.apply(loc, cfg.Slug, func() error {
		var err error
		result, err = fr.engine.SaveLocation(ctx, loc)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to reconcile location %s: %w", cfg.Name, err)
	}
	return fr.cascaded(ctx, "location "+cfg.Name, result)
}

// ReconcileRacks reconciles rack definitions and their reservations
func (fr *FoundationReconciler) ReconcileRacks(ctx context.Context, racks []*models.RackConfig) error {
	fr.logger.Info("Reconciling %d racks...", len(racks))

	for _, cfg := range racks {
		siteID, err := fr.siteID(cfg.SiteSlug)
		if err != nil {
			return fmt.Errorf("failed to reconcile rack %s: %w", cfg.Name, err)
		}
		locationID, err := fr.optionalLocation(siteID, cfg.LocationSlug)
		if err != nil {
			return fmt.Errorf("failed to reconcile rack %s: %w", cfg.Name, err)
		}

		rack := &models.Rack{}
		if existing, ok := fr.existingRack(cfg); ok {
			rack = existing.Clone().(*models.Rack)
		}
		rack.Name = cfg.Name
		rack.SiteID = siteID
		rack.LocationID = locationID
		rack.Status = cfg.Status
		rack.Width = cfg.Width
		rack.UHeight = cfg.UHeight
		if rack.UHeight == 0 {
			rack.UHeight = constants.DefaultRackHeight
		}
		rack.StartingUnit = cfg.StartingUnit
		if rack.StartingUnit == 0 {
			rack.StartingUnit = constants.DefaultStartingUnit
		}
		rack.DescUnits = cfg.DescUnits
		rack.Description = cfg.Description

		var result *topology.CascadeResult
		err = fr.apply(rack, cfg.RackSlug(), func() error {
			var err error
			result, err = fr.engine.SaveRack(ctx, rack)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to reconcile rack %s: %w", cfg.Name, err)
		}
		fr.racks[cfg.SiteSlug+"/"+cfg.RackSlug()] = rack.ID
		if err := fr.cascaded(ctx, "rack "+cfg.Name, result); err != nil {
			return err
		}

		if err := fr.reconcileReservations(ctx, rack, cfg.Reservations); err != nil {
			return fmt.Errorf("failed to reconcile reservations of rack %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// existingRack finds the stored rack of a definition. Racks keep their ID when they move
// to another site, so the lookup is by name across sites when the site has no match.
func (fr *FoundationReconciler) existingRack(cfg *models.RackConfig) (*models.Rack, bool) {
	if siteID, err := fr.siteID(cfg.SiteSlug); err == nil {
		if rack, ok := fr.rackByName(siteID, cfg.Name); ok {
			return rack, true
		}
	}
	return first(fr.inv.Racks(), func(x *models.Rack) bool { return x.Name == cfg.Name })
}

// reconcileReservations creates the reservations missing from a rack. A reservation is
// identified by its units.
func (fr *FoundationReconciler) reconcileReservations(ctx context.Context, rack *models.Rack, reservations []models.ReservationConfig) error {
	for _, cfg := range reservations {
		units := slices.Clone(cfg.Units)
		slices.Sort(units)

		res := &models.RackReservation{}
		existing, ok := first(fr.inv.ReservationsInRack(rack.ID), func(x *models.RackReservation) bool {
			sorted := slices.Clone(x.Units)
			slices.Sort(sorted)
			return slices.Equal(sorted, units)
		})
		if ok {
			res = existing.Clone().(*models.RackReservation)
		}
		res.RackID = rack.ID
		res.Units = units
		res.Description = cfg.Description

		label := fmt.Sprintf("%s U%v", rack.Name, units)
		if err := fr.apply(res, label, func() error { return fr.engine.SaveRackReservation(ctx, res) }); err != nil {
			return err
		}
	}
	return nil
}

// ReconcilePowerPanels reconciles power panels and their feeds. Feed links are queued
// for the cable phase.
func (fr *FoundationReconciler) ReconcilePowerPanels(ctx context.Context, panels []*models.PowerPanelConfig) error {
	fr.logger.Info("Reconciling %d power panels...", len(panels))

	for _, cfg := range panels {
		siteID, err := fr.siteID(cfg.SiteSlug)
		if err != nil {
			return fmt.Errorf("failed to reconcile power panel %s: %w", cfg.Name, err)
		}
		locationID, err := fr.optionalLocation(siteID, cfg.LocationSlug)
		if err != nil {
			return fmt.Errorf("failed to reconcile power panel %s: %w", cfg.Name, err)
		}

		panel := &models.PowerPanel{}
		if existing, ok := first(fr.inv.PowerPanels(), func(x *models.PowerPanel) bool {
			return x.SiteID == siteID && x.Name == cfg.Name
		}); ok {
			panel = existing.Clone().(*models.PowerPanel)
		}
		panel.Name = cfg.Name
		panel.SiteID = siteID
		panel.LocationID = locationID

		if err := fr.apply(panel, cfg.Name, func() error { return fr.engine.SavePowerPanel(ctx, panel) }); err != nil {
			return fmt.Errorf("failed to reconcile power panel %s: %w", cfg.Name, err)
		}

		for _, feedCfg := range cfg.Feeds {
			if err := fr.reconcileFeed(ctx, cfg.SiteSlug, panel, feedCfg); err != nil {
				return fmt.Errorf("failed to reconcile power feed %s: %w", feedCfg.Name, err)
			}
		}
	}
	return nil
}

func (fr *FoundationReconciler) reconcileFeed(ctx context.Context, siteSlug string, panel *models.PowerPanel, cfg models.PowerFeedConfig) error {
	rackID, err := fr.rackID(siteSlug, panel.SiteID, cfg.RackSlug)
	if err != nil {
		return err
	}

	feed := &models.PowerFeed{}
	if existing, ok := first(fr.inv.PowerFeeds(), func(x *models.PowerFeed) bool {
		return x.PowerPanelID == panel.ID && x.Name == cfg.Name
	}); ok {
		feed = existing.Clone().(*models.PowerFeed)
	}
	feed.Name = cfg.Name
	feed.PowerPanelID = panel.ID
	feed.RackID = rackID

	if err := fr.apply(feed, cfg.Name, func() error { return fr.engine.SaveTermination(ctx, feed) }); err != nil {
		return err
	}

	fr.queue(&CableEndpoint{
		DeviceName: panel.Name,
		PortName:   feed.Name,
		ObjectType: constants.TerminationPowerFeed,
		ObjectID:   feed.ID,
	}, cfg.Link)
	return nil
}

// ReconcileClusters reconciles cluster definitions with their site or location scope
func (fr *FoundationReconciler) ReconcileClusters(ctx context.Context, clusters []*models.ClusterConfig) error {
	fr.logger.Info("Reconciling %d clusters...", len(clusters))

	for _, cfg := range clusters {
		var siteID, locationID *uint
		if cfg.SiteSlug != "" {
			id, err := fr.siteID(cfg.SiteSlug)
			if err != nil {
				return fmt.Errorf("failed to reconcile cluster %s: %w", cfg.Name, err)
			}
			siteID = models.UintPtr(id)
			if locationID, err = fr.optionalLocation(id, cfg.LocationSlug); err != nil {
				return fmt.Errorf("failed to reconcile cluster %s: %w", cfg.Name, err)
			}
		}

		cluster := &models.Cluster{}
		if existing, ok := fr.cluster(cfg.Name); ok {
			cluster = existing.Clone().(*models.Cluster)
		}
		cluster.Name = cfg.Name
		cluster.SiteID = siteID
		cluster.LocationID = locationID

		if err := fr.apply(cluster, cfg.Name, func() error { return fr.engine.SaveCluster(ctx, cluster) }); err != nil {
			return fmt.Errorf("failed to reconcile cluster %s: %w", cfg.Name, err)
		}
	}
	return nil
}
