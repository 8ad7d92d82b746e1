package topology

import (
	"math"
	"strconv"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// Rack space is tracked in half units. Multiples of 0.5 are exact in float64, so units
// are compared directly.

const halfUnit = 0.5

// RackUnit is one half unit in a rack elevation
type RackUnit struct {
	ID       float64        `json:"id"`
	Name     string         `json:"name"`
	Face     string         `json:"face"`
	Device   *models.Device `json:"device,omitempty"`
	Occupied bool           `json:"occupied"`
}

// Units returns the half units of a rack in display order: top to bottom for ascending
// numbering, bottom to top for descending.
func Units(rack *models.Rack) []float64 {
	n := rack.UHeight * 2
	start := float64(startingUnit(rack))
	units := make([]float64, 0, n)
	if rack.DescUnits {
		for i := 0; i < n; i++ {
			units = append(units, start+float64(i)*halfUnit)
		}
		return units
	}
	for i := n - 1; i >= 0; i-- {
		units = append(units, start+float64(i)*halfUnit)
	}
	return units
}

// span returns the half units covered by a device of the given height at position
func span(position, height float64) []float64 {
	n := int(math.Round(height * 2))
	if n <= 0 {
		return nil
	}
	units := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		units = append(units, position+float64(i)*halfUnit)
	}
	return units
}

// UnitName renders a unit the way rack elevations label it ("U10", "U10.5")
func UnitName(u float64) string {
	return "U" + formatUnit(u)
}

func formatUnit(u float64) string {
	return strconv.FormatFloat(u, 'f', -1, 64)
}

func isHalfStep(v float64) bool {
	return math.Mod(v*2, 1) == 0
}

func startingUnit(rack *models.Rack) int {
	if rack.StartingUnit < 1 {
		return constants.DefaultStartingUnit
	}
	return rack.StartingUnit
}

// mountedDevice is a rack device together with its resolved type
type mountedDevice struct {
	device *models.Device
	dtype  *models.DeviceType
}

func (m mountedDevice) units() []float64 {
	return span(*m.device.Position, m.dtype.UHeight)
}

// mounted returns the devices of a rack that occupy units. An empty face matches both faces;
// otherwise a device matches its own face and full-depth devices match either face.
func mounted(inv *Inventory, rack *models.Rack, face string, exclude []uint, ignoreExcluded bool) ([]mountedDevice, error) {
	skip := make(map[uint]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	var out []mountedDevice
	for _, d := range inv.DevicesInRack(rack.ID) {
		if skip[d.ID] || d.Position == nil || *d.Position < 1 {
			continue
		}
		dt, ok := inv.DeviceType(d.DeviceTypeID)
		if !ok {
			return nil, notFound(constants.ObjectDeviceType, d.DeviceTypeID)
		}
		if dt.UHeight == 0 {
			continue
		}
		if ignoreExcluded && dt.ExcludeFromUtilization {
			continue
		}
		if face != "" && d.Face != face && !dt.IsFullDepth {
			continue
		}
		out = append(out, mountedDevice{device: d, dtype: dt})
	}
	return out, nil
}

// Elevation lists every half unit of one rack face with the device occupying it
func Elevation(inv *Inventory, rack *models.Rack, face string, exclude []uint) ([]RackUnit, error) {
	if face == "" {
		face = constants.FaceFront
	}
	devices, err := mounted(inv, rack, face, exclude, false)
	if err != nil {
		return nil, err
	}

	occupant := make(map[float64]*models.Device)
	for _, m := range devices {
		for _, u := range m.units() {
			occupant[u] = m.device
		}
	}

	units := Units(rack)
	elevation := make([]RackUnit, 0, len(units))
	for _, u := range units {
		unit := RackUnit{ID: u, Name: UnitName(u), Face: face}
		if d, ok := occupant[u]; ok {
			unit.Device = d
			unit.Occupied = true
		}
		elevation = append(elevation, unit)
	}
	return elevation, nil
}

// AvailableUnits returns, bottom first, the units where a device of uHeight fits on the
// given face (empty face: both faces). Devices in exclude are ignored; ignoreExcluded
// also ignores devices whose type is excluded from utilization.
func AvailableUnits(inv *Inventory, rack *models.Rack, uHeight float64, face string, exclude []uint, ignoreExcluded bool) ([]float64, error) {
	// nothing taller than the rack fits; also rejects NaN
	if !(uHeight <= float64(rack.UHeight)) {
		return nil, nil
	}
	devices, err := mounted(inv, rack, face, exclude, ignoreExcluded)
	if err != nil {
		return nil, err
	}

	free := make(map[float64]bool)
	for _, u := range Units(rack) {
		free[u] = true
	}
	// Overlapping spans are tolerated; a unit is simply removed once.
	for _, m := range devices {
		for _, u := range m.units() {
			delete(free, u)
		}
	}

	var available []float64
	for _, u := range Units(rack) {
		if !free[u] {
			continue
		}
		fits := true
		for _, need := range span(u, uHeight) {
			if !free[need] {
				fits = false
				break
			}
		}
		if fits {
			available = append(available, u)
		}
	}

	for i, j := 0, len(available)-1; i < j; i, j = i+1, j-1 {
		available[i], available[j] = available[j], available[i]
	}
	return available, nil
}

// ReservedUnits returns the integer units reserved in a rack
func ReservedUnits(inv *Inventory, rack *models.Rack) []int {
	seen := make(map[int]bool)
	var units []int
	for _, r := range inv.ReservationsInRack(rack.ID) {
		for _, u := range r.Units {
			if !seen[u] {
				seen[u] = true
				units = append(units, u)
			}
		}
	}
	return units
}

// Utilization returns the occupied share of a rack as a percentage. Devices excluded from
// utilization do not count as occupying space; reserved units count as occupied.
func Utilization(inv *Inventory, rack *models.Rack) (float64, error) {
	total := len(Units(rack))
	if total == 0 {
		return 0, nil
	}
	available, err := AvailableUnits(inv, rack, halfUnit, "", nil, true)
	if err != nil {
		return 0, err
	}

	free := make(map[float64]bool, len(available))
	for _, u := range available {
		free[u] = true
	}
	for _, ru := range ReservedUnits(inv, rack) {
		for _, u := range span(float64(ru), 1) {
			delete(free, u)
		}
	}

	occupied := total - len(free)
	return float64(occupied) / float64(total) * 100, nil
}
