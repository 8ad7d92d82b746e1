package reconciler

import (
	"fmt"
	"strings"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/utils"
)

// peerTypes maps the port kinds used in link definitions to termination types
var peerTypes = map[string]string{
	"interface":           constants.TerminationInterface,
	"front_port":          constants.TerminationFrontPort,
	"rear_port":           constants.TerminationRearPort,
	"power_port":          constants.TerminationPowerPort,
	"power_outlet":        constants.TerminationPowerOutlet,
	"console_port":        constants.TerminationConsolePort,
	"console_server_port": constants.TerminationConsoleServerPort,
}

// searchOrder is tried when a link does not name the peer type
var searchOrder = []string{
	constants.TerminationInterface,
	constants.TerminationFrontPort,
	constants.TerminationRearPort,
	constants.TerminationPowerPort,
	constants.TerminationPowerOutlet,
	constants.TerminationConsolePort,
	constants.TerminationConsoleServerPort,
}

func first[T any](items []T, match func(T) bool) (T, bool) {
	for _, item := range items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (s *state) siteID(slug string) (uint, error) {
	site, ok := first(s.inv.Sites(), func(x *models.Site) bool { return x.Slug == slug })
	if !ok {
		return 0, fmt.Errorf("site %s not found", slug)
	}
	return site.ID, nil
}

func (s *state) location(siteID uint, slug string) (*models.Location, bool) {
	return first(s.inv.Locations(), func(x *models.Location) bool {
		return x.SiteID == siteID && x.Slug == slug
	})
}

// optionalLocation resolves an optional location slug on a site
func (s *state) optionalLocation(siteID uint, slug string) (*uint, error) {
	if slug == "" {
		return nil, nil
	}
	loc, ok := s.location(siteID, slug)
	if !ok {
		return nil, fmt.Errorf("location %s not found", slug)
	}
	return models.UintPtr(loc.ID), nil
}

func (s *state) rackByName(siteID uint, name string) (*models.Rack, bool) {
	return first(s.inv.Racks(), func(x *models.Rack) bool {
		return x.SiteID == siteID && x.Name == name
	})
}

// rackID resolves a rack slug. Racks synced in this run are known by their configured slug;
// anything else is matched by its slugified name.
func (s *state) rackID(siteSlug string, siteID uint, slug string) (*uint, error) {
	if slug == "" {
		return nil, nil
	}
	if id, ok := s.racks[siteSlug+"/"+slug]; ok {
		return models.UintPtr(id), nil
	}
	rack, ok := first(s.inv.Racks(), func(x *models.Rack) bool {
		return x.SiteID == siteID && utils.Slugify(x.Name) == slug
	})
	if !ok {
		return nil, fmt.Errorf("rack %s not found", slug)
	}
	return models.UintPtr(rack.ID), nil
}

func (s *state) deviceType(slug string) (*models.DeviceType, bool) {
	return first(s.inv.DeviceTypes(), func(x *models.DeviceType) bool { return x.Slug == slug })
}

func (s *state) moduleTypeID(slug string) (uint, error) {
	if id, ok := s.moduleTypes[slug]; ok {
		return id, nil
	}
	mt, ok := first(s.inv.ModuleTypes(), func(x *models.ModuleType) bool { return utils.Slugify(x.Model) == slug })
	if !ok {
		return 0, fmt.Errorf("module type %s not found", slug)
	}
	return mt.ID, nil
}

func (s *state) deviceByName(siteID uint, name string) (*models.Device, bool) {
	return first(s.inv.Devices(), func(x *models.Device) bool {
		return x.SiteID == siteID && strings.EqualFold(x.Name, name)
	})
}

// peerDevice finds a link peer by name. Names are looked up across sites.
func (s *state) peerDevice(name string) (*models.Device, bool) {
	return first(s.inv.Devices(), func(x *models.Device) bool { return x.Name == name })
}

func (s *state) cluster(name string) (*models.Cluster, bool) {
	return first(s.inv.Clusters(), func(x *models.Cluster) bool { return x.Name == name })
}

func (s *state) circuit(cid string) (*models.Circuit, bool) {
	return first(s.inv.Circuits(), func(x *models.Circuit) bool { return x.CID == cid })
}

func (s *state) circuitTermination(circuitID uint, side string) (*models.CircuitTermination, bool) {
	return first(s.inv.CircuitTerminations(), func(x *models.CircuitTermination) bool {
		return x.CircuitID == circuitID && x.TermSide == side
	})
}

func (s *state) moduleBay(deviceID uint, name string) (*models.ModuleBay, bool) {
	return first(s.inv.ModuleBays(), func(x *models.ModuleBay) bool {
		return x.DeviceID == deviceID && x.Name == name
	})
}

// moduleIn returns the module installed in the named bay of a device
func (s *state) moduleIn(deviceID uint, bayName string) (*uint, error) {
	if bayName == "" {
		return nil, nil
	}
	bay, ok := s.moduleBay(deviceID, bayName)
	if !ok {
		return nil, fmt.Errorf("module bay %s not found", bayName)
	}
	module, ok := s.inv.ModuleInBay(bay.ID)
	if !ok {
		return nil, fmt.Errorf("no module installed in bay %s", bayName)
	}
	return models.UintPtr(module.ID), nil
}

// component finds a component of a device by type and name
func (s *state) component(deviceID uint, objectType, name string) (models.Component, bool) {
	for _, term := range s.inv.TerminationsOfType(objectType) {
		comp, ok := term.(models.Component)
		if !ok {
			continue
		}
		if dc := comp.Component(); dc.DeviceID == deviceID && dc.Name == name {
			return comp, true
		}
	}
	return nil, false
}

// findPort resolves a port by device and port name. An empty peer type searches every
// component kind.
func (s *state) findPort(deviceName, portName, peerType string) (*CableEndpoint, error) {
	device, ok := s.peerDevice(deviceName)
	if !ok {
		return nil, fmt.Errorf("device %s not found", deviceName)
	}

	types := searchOrder
	if peerType != "" {
		objectType, ok := peerTypes[peerType]
		if !ok {
			return nil, fmt.Errorf("unknown peer type %q", peerType)
		}
		types = []string{objectType}
	}

	for _, objectType := range types {
		if comp, ok := s.component(device.ID, objectType, portName); ok {
			return &CableEndpoint{
				DeviceName: deviceName,
				PortName:   portName,
				ObjectType: objectType,
				ObjectID:   comp.GetID(),
			}, nil
		}
	}
	return nil, fmt.Errorf("port %s not found on %s", portName, deviceName)
}
