package topology

import (
	"sort"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// Inventory holds every object of one unit of work, keyed by object type and ID.
// Objects reference each other by ID; relations are resolved by lookup.
type Inventory struct {
	objects map[string]map[uint]models.Object
}

// NewInventory creates an empty inventory
func NewInventory() *Inventory {
	return &Inventory{objects: make(map[string]map[uint]models.Object)}
}

// Put stores obj, replacing any object with the same type and ID
func (inv *Inventory) Put(obj models.Object) {
	typ := obj.ObjectType()
	bucket, ok := inv.objects[typ]
	if !ok {
		bucket = make(map[uint]models.Object)
		inv.objects[typ] = bucket
	}
	bucket[obj.GetID()] = obj
}

// Remove deletes obj from the inventory
func (inv *Inventory) Remove(obj models.Object) {
	delete(inv.objects[obj.ObjectType()], obj.GetID())
}

// Get returns the object a reference points at
func (inv *Inventory) Get(ref models.ObjectRef) (models.Object, bool) {
	obj, ok := inv.objects[ref.Type][ref.ID]
	return obj, ok
}

// Count returns the number of objects of a type
func (inv *Inventory) Count(objectType string) int {
	return len(inv.objects[objectType])
}

// MaxID returns the highest ID in use for a type
func (inv *Inventory) MaxID(objectType string) uint {
	var highest uint
	for id := range inv.objects[objectType] {
		if id > highest {
			highest = id
		}
	}
	return highest
}

// Clone returns a deep copy; objects in the copy can be modified independently
func (inv *Inventory) Clone() *Inventory {
	clone := NewInventory()
	for _, bucket := range inv.objects {
		for _, obj := range bucket {
			clone.Put(obj.Clone())
		}
	}
	return clone
}

// get looks up an object of the concrete type T. T is always a pointer to a model whose
// ObjectType method does not dereference its receiver, so the zero value yields the type label.
func get[T models.Object](inv *Inventory, id uint) (T, bool) {
	var zero T
	obj, ok := inv.objects[zero.ObjectType()][id]
	if !ok {
		return zero, false
	}
	typed, ok := obj.(T)
	return typed, ok
}

// list returns every object of the concrete type T, ordered by ID
func list[T models.Object](inv *Inventory) []T {
	var zero T
	bucket := inv.objects[zero.ObjectType()]
	out := make([]T, 0, len(bucket))
	for _, obj := range bucket {
		if typed, ok := obj.(T); ok {
			out = append(out, typed)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetID() < out[j].GetID() })
	return out
}

func filter[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (inv *Inventory) Site(id uint) (*models.Site, bool)         { return get[*models.Site](inv, id) }
func (inv *Inventory) Location(id uint) (*models.Location, bool) { return get[*models.Location](inv, id) }
func (inv *Inventory) Rack(id uint) (*models.Rack, bool)         { return get[*models.Rack](inv, id) }
func (inv *Inventory) PowerPanel(id uint) (*models.PowerPanel, bool) {
	return get[*models.PowerPanel](inv, id)
}
func (inv *Inventory) Cluster(id uint) (*models.Cluster, bool) { return get[*models.Cluster](inv, id) }
func (inv *Inventory) DeviceType(id uint) (*models.DeviceType, bool) {
	return get[*models.DeviceType](inv, id)
}
func (inv *Inventory) ModuleType(id uint) (*models.ModuleType, bool) {
	return get[*models.ModuleType](inv, id)
}
func (inv *Inventory) Device(id uint) (*models.Device, bool)       { return get[*models.Device](inv, id) }
func (inv *Inventory) ModuleBay(id uint) (*models.ModuleBay, bool) { return get[*models.ModuleBay](inv, id) }
func (inv *Inventory) Module(id uint) (*models.Module, bool)       { return get[*models.Module](inv, id) }
func (inv *Inventory) Interface(id uint) (*models.Interface, bool) { return get[*models.Interface](inv, id) }
func (inv *Inventory) RearPort(id uint) (*models.RearPort, bool)   { return get[*models.RearPort](inv, id) }
func (inv *Inventory) Circuit(id uint) (*models.Circuit, bool)     { return get[*models.Circuit](inv, id) }
func (inv *Inventory) ProviderNetwork(id uint) (*models.ProviderNetwork, bool) {
	return get[*models.ProviderNetwork](inv, id)
}
func (inv *Inventory) Cable(id uint) (*models.Cable, bool) { return get[*models.Cable](inv, id) }
func (inv *Inventory) MACAddress(id uint) (*models.MACAddress, bool) {
	return get[*models.MACAddress](inv, id)
}

func (inv *Inventory) Sites() []*models.Site             { return list[*models.Site](inv) }
func (inv *Inventory) Locations() []*models.Location     { return list[*models.Location](inv) }
func (inv *Inventory) Racks() []*models.Rack             { return list[*models.Rack](inv) }
func (inv *Inventory) PowerPanels() []*models.PowerPanel { return list[*models.PowerPanel](inv) }
func (inv *Inventory) PowerFeeds() []*models.PowerFeed   { return list[*models.PowerFeed](inv) }
func (inv *Inventory) Clusters() []*models.Cluster       { return list[*models.Cluster](inv) }
func (inv *Inventory) DeviceTypes() []*models.DeviceType { return list[*models.DeviceType](inv) }
func (inv *Inventory) ModuleTypes() []*models.ModuleType { return list[*models.ModuleType](inv) }
func (inv *Inventory) Devices() []*models.Device         { return list[*models.Device](inv) }
func (inv *Inventory) ModuleBays() []*models.ModuleBay   { return list[*models.ModuleBay](inv) }
func (inv *Inventory) Modules() []*models.Module         { return list[*models.Module](inv) }
func (inv *Inventory) Interfaces() []*models.Interface   { return list[*models.Interface](inv) }
func (inv *Inventory) FrontPorts() []*models.FrontPort   { return list[*models.FrontPort](inv) }
func (inv *Inventory) Circuits() []*models.Circuit       { return list[*models.Circuit](inv) }
func (inv *Inventory) ProviderNetworks() []*models.ProviderNetwork {
	return list[*models.ProviderNetwork](inv)
}
func (inv *Inventory) CircuitTerminations() []*models.CircuitTermination {
	return list[*models.CircuitTermination](inv)
}
func (inv *Inventory) Cables() []*models.Cable { return list[*models.Cable](inv) }
func (inv *Inventory) CableTerminations() []*models.CableTermination {
	return list[*models.CableTermination](inv)
}
func (inv *Inventory) MACAddresses() []*models.MACAddress { return list[*models.MACAddress](inv) }
func (inv *Inventory) RackReservations() []*models.RackReservation {
	return list[*models.RackReservation](inv)
}

// DevicesInRack returns the devices assigned to a rack
func (inv *Inventory) DevicesInRack(rackID uint) []*models.Device {
	return filter(inv.Devices(), func(d *models.Device) bool {
		return d.RackID != nil && *d.RackID == rackID
	})
}

// ReservationsInRack returns the reservations of a rack
func (inv *Inventory) ReservationsInRack(rackID uint) []*models.RackReservation {
	return filter(inv.RackReservations(), func(r *models.RackReservation) bool {
		return r.RackID == rackID
	})
}

// ModuleInBay returns the module occupying a bay
func (inv *Inventory) ModuleInBay(bayID uint) (*models.Module, bool) {
	for _, m := range inv.Modules() {
		if m.ModuleBayID == bayID {
			return m, true
		}
	}
	return nil, false
}

// childLocations indexes locations by parent ID
func (inv *Inventory) childLocations() map[uint][]uint {
	index := make(map[uint][]uint)
	for _, loc := range inv.Locations() {
		if loc.ParentID != nil {
			index[*loc.ParentID] = append(index[*loc.ParentID], loc.ID)
		}
	}
	return index
}

// Descendants returns the IDs of all locations below the given one, breadth first
func (inv *Inventory) Descendants(locationID uint) []uint {
	index := inv.childLocations()
	seen := map[uint]bool{locationID: true}
	queue := append([]uint(nil), index[locationID]...)
	var out []uint
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		queue = append(queue, index[id]...)
	}
	return out
}

// Termination resolves a reference to one of the closed set of termination kinds
func (inv *Inventory) Termination(ref models.ObjectRef) (models.Termination, error) {
	if _, ok := models.NewTermination(ref.Type); !ok {
		return nil, notFound(ref.Type, ref.ID)
	}
	obj, ok := inv.Get(ref)
	if !ok {
		return nil, notFound(ref.Type, ref.ID)
	}
	term, ok := obj.(models.Termination)
	if !ok {
		return nil, notFound(ref.Type, ref.ID)
	}
	return term, nil
}

// CableTerminationFor returns the row binding a termination to a cable
func (inv *Inventory) CableTerminationFor(ref models.ObjectRef) (*models.CableTermination, bool) {
	for _, ct := range inv.CableTerminations() {
		if ct.Termination() == ref {
			return ct, true
		}
	}
	return nil, false
}

// TerminationsOfCable returns the termination rows of a cable
func (inv *Inventory) TerminationsOfCable(cableID uint) []*models.CableTermination {
	return filter(inv.CableTerminations(), func(ct *models.CableTermination) bool {
		return ct.CableID == cableID
	})
}

// placement is the cached location of a termination
type placement struct {
	DeviceID   *uint
	RackID     *uint
	LocationID *uint
	SiteID     *uint
}

// placementOf derives where a termination physically sits from its parent object
func (inv *Inventory) placementOf(term models.Termination) placement {
	var p placement
	switch t := term.(type) {
	case *models.CircuitTermination:
		p.SiteID = t.SiteID
	case *models.PowerFeed:
		p.RackID = t.RackID
		if panel, ok := inv.PowerPanel(t.PowerPanelID); ok {
			p.SiteID = models.UintPtr(panel.SiteID)
			p.LocationID = panel.LocationID
		}
	default:
		parent := term.Parent()
		if parent.Type != constants.ObjectDevice {
			return p
		}
		if device, ok := inv.Device(parent.ID); ok {
			p.DeviceID = models.UintPtr(device.ID)
			p.RackID = device.RackID
			p.LocationID = device.LocationID
			p.SiteID = models.UintPtr(device.SiteID)
		}
	}
	return p
}

// TerminationsOfType returns every termination of one kind, ordered by ID
func (inv *Inventory) TerminationsOfType(terminationType string) []models.Termination {
	if _, ok := models.NewTermination(terminationType); !ok {
		return nil
	}
	bucket := inv.objects[terminationType]
	out := make([]models.Termination, 0, len(bucket))
	for _, obj := range bucket {
		if term, ok := obj.(models.Termination); ok {
			out = append(out, term)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetID() < out[j].GetID() })
	return out
}

// SiteOf returns the site a termination physically sits on, if any
func SiteOf(inv *Inventory, term models.Termination) *uint {
	return inv.placementOf(term).SiteID
}

// IndexCable adds the termination rows of a cable that was loaded without them, caching
// the placement of each termination. Terminations must already be in the inventory.
func (inv *Inventory) IndexCable(cable *models.Cable) error {
	for _, end := range []string{constants.CableEndA, constants.CableEndB} {
		for _, ref := range cable.Terminations(end) {
			term, err := inv.Termination(ref)
			if err != nil {
				return err
			}
			if _, ok := inv.CableTerminationFor(ref); ok {
				continue
			}
			p := inv.placementOf(term)
			row := &models.CableTermination{
				CableID:         cable.ID,
				CableEnd:        end,
				TerminationType: ref.Type,
				TerminationID:   ref.ID,
				DeviceID:        p.DeviceID,
				RackID:          p.RackID,
				LocationID:      p.LocationID,
				SiteID:          p.SiteID,
			}
			row.ID = inv.MaxID(constants.ObjectCableTermination) + 1
			inv.Put(row)
		}
	}
	return nil
}

// All returns every object of a type, ordered by ID
func (inv *Inventory) All(objectType string) []models.Object {
	bucket := inv.objects[objectType]
	out := make([]models.Object, 0, len(bucket))
	for _, obj := range bucket {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetID() < out[j].GetID() })
	return out
}
