package client

import (
	"context"
	"fmt"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/topology"
	"github.com/braunma/netbox-topology/pkg/utils"
)

// resource is one list endpoint and the decoder turning its objects into models.
// Site-scoped resources are filtered by site_id when a site is requested.
type resource struct {
	path   string
	scoped bool
	decode func(obj Object) models.Object
}

// resources are read in dependency order: parents before the objects that reference them
var resources = []resource{
	{"dcim/sites", false, decodeSite},
	{"dcim/locations", true, decodeLocation},
	{"dcim/racks", true, decodeRack},
	{"dcim/rack-reservations", true, decodeRackReservation},
	{"dcim/power-panels", true, decodePowerPanel},
	{"dcim/power-feeds", true, decodePowerFeed},
	{"virtualization/clusters", false, decodeCluster},
	{"dcim/device-types", false, decodeDeviceType},
	{"dcim/module-types", false, decodeModuleType},
	{"dcim/devices", true, decodeDevice},
	{"dcim/module-bays", true, decodeModuleBay},
	{"dcim/modules", true, decodeModule},
	{"dcim/interfaces", true, decodeInterface},
	{"dcim/rear-ports", true, decodeRearPort},
	{"dcim/front-ports", true, decodeFrontPort},
	{"dcim/power-ports", true, decodePowerPort},
	{"dcim/power-outlets", true, decodePowerOutlet},
	{"dcim/console-ports", true, decodeConsolePort},
	{"dcim/console-server-ports", true, decodeConsoleServerPort},
	{"circuits/circuits", false, decodeCircuit},
	{"circuits/provider-networks", false, decodeProviderNetwork},
	{"circuits/circuit-terminations", false, decodeCircuitTermination},
	{"dcim/cables", true, decodeCable},
	{"dcim/mac-addresses", false, decodeMACAddress},
}

// FetchInventory reads the live inventory, limited to one site when siteSlug is set.
// Cables with a termination outside the fetched scope are skipped.
func (c *NetBoxClient) FetchInventory(ctx context.Context, siteSlug string) (*topology.Inventory, error) {
	var filters map[string]interface{}
	if siteSlug != "" {
		siteID, err := c.cache.SiteID(ctx, siteSlug)
		if err != nil {
			return nil, err
		}
		filters = map[string]interface{}{"site_id": siteID}
	}

	inv := topology.NewInventory()
	for _, res := range resources {
		var resFilters map[string]interface{}
		if res.scoped {
			resFilters = filters
		}
		objects, err := c.List(ctx, "/api/"+res.path+"/", resFilters)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", res.path, err)
		}
		c.logger.Debug("→ %s: %d objects", res.path, len(objects))

		for _, obj := range objects {
			model := res.decode(obj)
			if model.GetID() == 0 {
				return nil, fmt.Errorf("object without id in %s", res.path)
			}
			inv.Put(model)
		}
	}

	resolveClusterSites(inv)
	if siteSlug != "" {
		restrictToSite(inv, filters["site_id"].(uint))
	}

	for _, cable := range inv.Cables() {
		if !inScope(inv, cable) {
			c.logger.Warning("Skipping cable %s: termination outside the fetched inventory", cable)
			inv.Remove(cable)
			continue
		}
		if err := inv.IndexCable(cable); err != nil {
			return nil, fmt.Errorf("failed to index cable %s: %w", cable, err)
		}
	}

	c.logger.Success("Fetched %d devices and %d cables", len(inv.Devices()), len(inv.Cables()))
	return inv, nil
}

func inScope(inv *topology.Inventory, cable *models.Cable) bool {
	for _, end := range []string{constants.CableEndA, constants.CableEndB} {
		for _, ref := range cable.Terminations(end) {
			if _, err := inv.Termination(ref); err != nil {
				return false
			}
		}
	}
	return true
}

// restrictToSite drops the global objects that only make sense next to another site
func restrictToSite(inv *topology.Inventory, siteID uint) {
	for _, site := range inv.Sites() {
		if site.ID != siteID {
			inv.Remove(site)
		}
	}
	for _, cluster := range inv.Clusters() {
		if cluster.SiteID != nil && *cluster.SiteID != siteID {
			inv.Remove(cluster)
		}
	}
	for _, ct := range inv.CircuitTerminations() {
		if ct.SiteID != nil && *ct.SiteID != siteID {
			inv.Remove(ct)
		}
	}
	for _, mac := range inv.MACAddresses() {
		if ref := mac.AssignedObject(); ref != nil {
			if _, ok := inv.Get(*ref); !ok {
				inv.Remove(mac)
			}
		}
	}
}

// resolveClusterSites fills the site of clusters scoped to a location
func resolveClusterSites(inv *topology.Inventory) {
	for _, cluster := range inv.Clusters() {
		if cluster.SiteID != nil || cluster.LocationID == nil {
			continue
		}
		if loc, ok := inv.Location(*cluster.LocationID); ok {
			cluster.SiteID = models.UintPtr(loc.SiteID)
		}
	}
}

func base(obj Object) models.Base {
	return models.Base{ID: utils.IDOf(obj["id"])}
}

func component(obj Object) models.DeviceComponent {
	return models.DeviceComponent{
		DeviceID: utils.IDOf(obj["device"]),
		ModuleID: utils.OptionalID(obj["module"]),
		Name:     utils.StringField(obj, "name"),
	}
}

func cabled(obj Object) models.CabledComponent {
	return models.CabledComponent{
		CableID:       utils.OptionalID(obj["cable"]),
		CableEnd:      utils.StringField(obj, "cable_end"),
		MarkConnected: utils.BoolField(obj, "mark_connected"),
	}
}

// scope reads the site or location of objects that NetBox scopes generically
// (scope_type/scope_id) and falls back to the older site/location fields
func scope(obj Object) (site, location *uint) {
	switch utils.StringField(obj, "scope_type") {
	case constants.ObjectSite:
		return utils.OptionalID(obj["scope_id"]), nil
	case constants.ObjectLocation:
		return utils.OptionalID(obj["site"]), utils.OptionalID(obj["scope_id"])
	}
	return utils.OptionalID(obj["site"]), utils.OptionalID(obj["location"])
}

func decodeSite(obj Object) models.Object {
	return &models.Site{
		Base:        base(obj),
		Name:        utils.StringField(obj, "name"),
		Slug:        utils.StringField(obj, "slug"),
		Status:      utils.ChoiceValue(obj["status"]),
		TimeZone:    utils.StringField(obj, "time_zone"),
		Description: utils.StringField(obj, "description"),
	}
}

func decodeLocation(obj Object) models.Object {
	return &models.Location{
		Base:        base(obj),
		Name:        utils.StringField(obj, "name"),
		Slug:        utils.StringField(obj, "slug"),
		SiteID:      utils.IDOf(obj["site"]),
		ParentID:    utils.OptionalID(obj["parent"]),
		Status:      utils.ChoiceValue(obj["status"]),
		Description: utils.StringField(obj, "description"),
	}
}

func decodeRack(obj Object) models.Object {
	width := 0
	if w, ok := obj["width"].(map[string]interface{}); ok {
		width = utils.IntField(w, "value")
	}
	return &models.Rack{
		Base:         base(obj),
		Name:         utils.StringField(obj, "name"),
		SiteID:       utils.IDOf(obj["site"]),
		LocationID:   utils.OptionalID(obj["location"]),
		Status:       utils.ChoiceValue(obj["status"]),
		Width:        width,
		UHeight:      utils.IntField(obj, "u_height"),
		StartingUnit: utils.IntField(obj, "starting_unit"),
		DescUnits:    utils.BoolField(obj, "desc_units"),
		Description:  utils.StringField(obj, "description"),
	}
}

func decodeRackReservation(obj Object) models.Object {
	res := &models.RackReservation{
		Base:        base(obj),
		RackID:      utils.IDOf(obj["rack"]),
		Description: utils.StringField(obj, "description"),
	}
	units, _ := obj["units"].([]interface{})
	for _, u := range units {
		if f, ok := u.(float64); ok {
			res.Units = append(res.Units, int(f))
		}
	}
	return res
}

func decodePowerPanel(obj Object) models.Object {
	return &models.PowerPanel{
		Base:       base(obj),
		Name:       utils.StringField(obj, "name"),
		SiteID:     utils.IDOf(obj["site"]),
		LocationID: utils.OptionalID(obj["location"]),
	}
}

func decodePowerFeed(obj Object) models.Object {
	return &models.PowerFeed{
		Base:            base(obj),
		CabledComponent: cabled(obj),
		Name:            utils.StringField(obj, "name"),
		PowerPanelID:    utils.IDOf(obj["power_panel"]),
		RackID:          utils.OptionalID(obj["rack"]),
	}
}

func decodeCluster(obj Object) models.Object {
	site, location := scope(obj)
	return &models.Cluster{
		Base:       base(obj),
		Name:       utils.StringField(obj, "name"),
		SiteID:     site,
		LocationID: location,
	}
}

func decodeDeviceType(obj Object) models.Object {
	dt := &models.DeviceType{
		Base:                   base(obj),
		Manufacturer:           utils.StringField(obj, "manufacturer"),
		Model:                  utils.StringField(obj, "model"),
		Slug:                   utils.StringField(obj, "slug"),
		IsFullDepth:            utils.BoolFieldDefault(obj, "is_full_depth", true),
		ExcludeFromUtilization: utils.BoolField(obj, "exclude_from_utilization"),
		SubdeviceRole:          utils.ChoiceValue(obj["subdevice_role"]),
	}
	if h := utils.FloatField(obj, "u_height"); h != nil {
		dt.UHeight = *h
	}
	return dt
}

func decodeModuleType(obj Object) models.Object {
	return &models.ModuleType{
		Base:         base(obj),
		Manufacturer: utils.StringField(obj, "manufacturer"),
		Model:        utils.StringField(obj, "model"),
	}
}

func decodeDevice(obj Object) models.Object {
	return &models.Device{
		Base:         base(obj),
		Name:         utils.StringField(obj, "name"),
		DeviceTypeID: utils.IDOf(obj["device_type"]),
		SiteID:       utils.IDOf(obj["site"]),
		LocationID:   utils.OptionalID(obj["location"]),
		RackID:       utils.OptionalID(obj["rack"]),
		Position:     utils.FloatField(obj, "position"),
		Face:         utils.ChoiceValue(obj["face"]),
		ClusterID:    utils.OptionalID(obj["cluster"]),
		Status:       utils.ChoiceValue(obj["status"]),
		Serial:       utils.StringField(obj, "serial"),
	}
}

func decodeModuleBay(obj Object) models.Object {
	return &models.ModuleBay{
		Base:     base(obj),
		DeviceID: utils.IDOf(obj["device"]),
		ModuleID: utils.OptionalID(obj["module"]),
		Name:     utils.StringField(obj, "name"),
		Label:    utils.StringField(obj, "label"),
		Position: utils.StringField(obj, "position"),
	}
}

func decodeModule(obj Object) models.Object {
	return &models.Module{
		Base:         base(obj),
		DeviceID:     utils.IDOf(obj["device"]),
		ModuleBayID:  utils.IDOf(obj["module_bay"]),
		ModuleTypeID: utils.IDOf(obj["module_type"]),
		Serial:       utils.StringField(obj, "serial"),
		Status:       utils.ChoiceValue(obj["status"]),
	}
}

func decodeInterface(obj Object) models.Object {
	return &models.Interface{
		Base:                base(obj),
		DeviceComponent:     component(obj),
		CabledComponent:     cabled(obj),
		Type:                utils.ChoiceValue(obj["type"]),
		Enabled:             utils.BoolField(obj, "enabled"),
		MgmtOnly:            utils.BoolField(obj, "mgmt_only"),
		PrimaryMACAddressID: utils.OptionalID(obj["primary_mac_address"]),
	}
}

func decodeRearPort(obj Object) models.Object {
	return &models.RearPort{
		Base:            base(obj),
		DeviceComponent: component(obj),
		CabledComponent: cabled(obj),
		Type:            utils.ChoiceValue(obj["type"]),
		Positions:       utils.IntField(obj, "positions"),
	}
}

func decodeFrontPort(obj Object) models.Object {
	return &models.FrontPort{
		Base:             base(obj),
		DeviceComponent:  component(obj),
		CabledComponent:  cabled(obj),
		Type:             utils.ChoiceValue(obj["type"]),
		RearPortID:       utils.IDOf(obj["rear_port"]),
		RearPortPosition: utils.IntField(obj, "rear_port_position"),
	}
}

func decodePowerPort(obj Object) models.Object {
	return &models.PowerPort{
		Base:            base(obj),
		DeviceComponent: component(obj),
		CabledComponent: cabled(obj),
		MaximumDraw:     utils.IntField(obj, "maximum_draw"),
		AllocatedDraw:   utils.IntField(obj, "allocated_draw"),
	}
}

func decodePowerOutlet(obj Object) models.Object {
	return &models.PowerOutlet{
		Base:            base(obj),
		DeviceComponent: component(obj),
		CabledComponent: cabled(obj),
		PowerPortID:     utils.OptionalID(obj["power_port"]),
		FeedLeg:         utils.ChoiceValue(obj["feed_leg"]),
	}
}

func decodeConsolePort(obj Object) models.Object {
	return &models.ConsolePort{
		Base:            base(obj),
		DeviceComponent: component(obj),
		CabledComponent: cabled(obj),
	}
}

func decodeConsoleServerPort(obj Object) models.Object {
	return &models.ConsoleServerPort{
		Base:            base(obj),
		DeviceComponent: component(obj),
		CabledComponent: cabled(obj),
	}
}

func decodeCircuit(obj Object) models.Object {
	return &models.Circuit{
		Base:     base(obj),
		CID:      utils.StringField(obj, "cid"),
		Provider: utils.StringField(obj, "provider"),
	}
}

func decodeProviderNetwork(obj Object) models.Object {
	return &models.ProviderNetwork{
		Base:     base(obj),
		Name:     utils.StringField(obj, "name"),
		Provider: utils.StringField(obj, "provider"),
	}
}

func decodeCircuitTermination(obj Object) models.Object {
	term := &models.CircuitTermination{
		Base:            base(obj),
		CabledComponent: cabled(obj),
		CircuitID:       utils.IDOf(obj["circuit"]),
		TermSide:        utils.StringField(obj, "term_side"),
	}
	switch utils.StringField(obj, "termination_type") {
	case constants.ObjectSite:
		term.SiteID = utils.OptionalID(obj["termination_id"])
	case constants.ObjectProviderNetwork:
		term.ProviderNetworkID = utils.OptionalID(obj["termination_id"])
	default:
		term.SiteID = utils.OptionalID(obj["site"])
		term.ProviderNetworkID = utils.OptionalID(obj["provider_network"])
	}
	return term
}

func decodeCable(obj Object) models.Object {
	return &models.Cable{
		Base:          base(obj),
		Type:          utils.ChoiceValue(obj["type"]),
		Status:        utils.ChoiceValue(obj["status"]),
		Label:         utils.StringField(obj, "label"),
		Color:         utils.StringField(obj, "color"),
		Length:        utils.FloatField(obj, "length"),
		LengthUnit:    utils.ChoiceValue(obj["length_unit"]),
		ATerminations: decodeRefs(obj["a_terminations"]),
		BTerminations: decodeRefs(obj["b_terminations"]),
	}
}

func decodeRefs(v interface{}) []models.ObjectRef {
	items, _ := v.([]interface{})
	refs := make([]models.ObjectRef, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		refs = append(refs, models.ObjectRef{
			Type: utils.StringField(m, "object_type"),
			ID:   utils.IDOf(m["object_id"]),
		})
	}
	return refs
}

func decodeMACAddress(obj Object) models.Object {
	mac := &models.MACAddress{
		Base:        base(obj),
		MACAddress:  models.NormalizeMAC(utils.StringField(obj, "mac_address")),
		Description: utils.StringField(obj, "description"),
	}
	if typ := utils.StringField(obj, "assigned_object_type"); typ != "" {
		mac.Assign(&models.ObjectRef{Type: typ, ID: utils.IDOf(obj["assigned_object_id"])})
	}
	return mac
}
