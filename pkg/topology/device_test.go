package topology

import (
	"testing"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

func TestCleanDevice(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(inv *Inventory)
		device func() *models.Device
		field  string
		want   string
	}{
		{
			name:   "valid placement",
			device: func() *models.Device { return racked(0, typeFull, 10, constants.FaceFront) },
		},
		{
			name:   "span exceeds rack height",
			device: func() *models.Device { return racked(0, typeFull, 43, constants.FaceFront) },
			field:  "position",
			want:   "U43 is already occupied or does not have sufficient space to accommodate this device type: Full 1U (1U)",
		},
		{
			name:   "2U device in top unit",
			device: func() *models.Device { return racked(0, typeTwoU, 42, constants.FaceFront) },
			field:  "position",
			want:   "U42 is already occupied",
		},
		{
			name: "overlap on same face",
			setup: func(inv *Inventory) {
				put(inv, racked(1, typeHalf, 10, constants.FaceFront))
			},
			device: func() *models.Device { return racked(0, typeHalf, 10.5, constants.FaceFront) },
			field:  "position",
			want:   "U10.5 is already occupied",
		},
		{
			name: "half depth devices share a unit on opposite faces",
			setup: func(inv *Inventory) {
				put(inv, racked(1, typeHalf, 10, constants.FaceFront))
			},
			device: func() *models.Device { return racked(0, typeHalf, 10, constants.FaceRear) },
		},
		{
			name: "full depth device conflicts with rear device",
			setup: func(inv *Inventory) {
				put(inv, racked(1, typeHalf, 10, constants.FaceRear))
			},
			device: func() *models.Device { return racked(0, typeFull, 10, constants.FaceFront) },
			field:  "position",
			want:   "U10 is already occupied",
		},
		{
			name: "saved device does not conflict with itself",
			setup: func(inv *Inventory) {
				put(inv, racked(1, typeFull, 10, constants.FaceFront))
			},
			device: func() *models.Device { return racked(1, typeFull, 10, constants.FaceFront) },
		},
		{
			name:   "position not in half units",
			device: func() *models.Device { return racked(0, typeFull, 10.25, constants.FaceFront) },
			field:  "position",
			want:   "Position must be in increments of 0.5 rack units.",
		},
		{
			name:   "position without face",
			device: func() *models.Device { return racked(0, typeFull, 10, "") },
			field:  "face",
			want:   "Must specify rack face when defining rack position.",
		},
		{
			name:   "0U device with position",
			device: func() *models.Device { return racked(0, typeZeroU, 10, constants.FaceFront) },
			field:  "position",
			want:   "A 0U device type (PDU) cannot be assigned to a rack position.",
		},
		{
			name: "0U device without position",
			device: func() *models.Device {
				d := racked(0, typeZeroU, 0, "")
				d.Position = nil
				return d
			},
		},
		{
			name: "face without rack",
			device: func() *models.Device {
				return &models.Device{Name: "x", DeviceTypeID: typeFull, SiteID: siteA, Face: constants.FaceFront}
			},
			field: "face",
			want:  "Cannot select a rack face without assigning a rack.",
		},
		{
			name: "position without rack",
			device: func() *models.Device {
				return &models.Device{Name: "x", DeviceTypeID: typeFull, SiteID: siteA, Position: models.FloatPtr(3)}
			},
			field: "position",
			want:  "Cannot select a rack position without assigning a rack.",
		},
		{
			name: "rack on another site",
			device: func() *models.Device {
				d := racked(0, typeFull, 10, constants.FaceFront)
				d.SiteID = siteB
				return d
			},
			field: "rack",
			want:  "Rack Rack 1 does not belong to site Site B.",
		},
		{
			name: "location on another site",
			setup: func(inv *Inventory) {
				put(inv, &models.Location{Base: models.Base{ID: 1}, Name: "Hall B", Slug: "hall-b", SiteID: siteB})
			},
			device: func() *models.Device {
				return &models.Device{Name: "x", DeviceTypeID: typeFull, SiteID: siteA, LocationID: models.UintPtr(1)}
			},
			field: "location",
			want:  "Location Hall B does not belong to site Site A.",
		},
		{
			name: "rack in another location",
			setup: func(inv *Inventory) {
				put(inv,
					&models.Location{Base: models.Base{ID: 1}, Name: "Hall 1", Slug: "hall-1", SiteID: siteA},
					&models.Location{Base: models.Base{ID: 2}, Name: "Hall 2", Slug: "hall-2", SiteID: siteA},
				)
				rack(inv).LocationID = models.UintPtr(1)
			},
			device: func() *models.Device {
				d := racked(0, typeFull, 10, constants.FaceFront)
				d.LocationID = models.UintPtr(2)
				return d
			},
			field: "rack",
			want:  "Rack Rack 1 does not belong to location Hall 2.",
		},
		{
			name: "child device type with face",
			device: func() *models.Device {
				d := racked(0, typeChild, 0, constants.FaceFront)
				d.Position = nil
				return d
			},
			field: "face",
			want:  "Child device types cannot be assigned to a rack face.",
		},
		{
			name: "cluster on another site",
			setup: func(inv *Inventory) {
				put(inv, &models.Cluster{Base: models.Base{ID: 1}, Name: "c1", SiteID: models.UintPtr(siteB)})
			},
			device: func() *models.Device {
				return &models.Device{Name: "x", DeviceTypeID: typeFull, SiteID: siteA, ClusterID: models.UintPtr(1)}
			},
			field: "cluster",
			want:  "The assigned cluster belongs to a different site (Site B)",
		},
		{
			name: "duplicate name on the same site",
			setup: func(inv *Inventory) {
				put(inv, &models.Device{Base: models.Base{ID: 1}, Name: "Test Device 1", DeviceTypeID: typeFull, SiteID: siteA})
			},
			device: func() *models.Device {
				return &models.Device{Name: "Test Device 1", DeviceTypeID: typeFull, SiteID: siteA}
			},
			field: "name",
			want:  "Device name must be unique per site: Test Device 1 already exists at Site A.",
		},
		{
			name: "duplicate name ignores case",
			setup: func(inv *Inventory) {
				put(inv, &models.Device{Base: models.Base{ID: 1}, Name: "device 1", DeviceTypeID: typeFull, SiteID: siteA})
			},
			device: func() *models.Device {
				return &models.Device{Name: "DEVICE 1", DeviceTypeID: typeFull, SiteID: siteA}
			},
			field: "name",
			want:  "Device name must be unique per site",
		},
		{
			name: "same name on another site",
			setup: func(inv *Inventory) {
				put(inv, &models.Device{Base: models.Base{ID: 1}, Name: "device 1", DeviceTypeID: typeFull, SiteID: siteB})
			},
			device: func() *models.Device {
				return &models.Device{Name: "device 1", DeviceTypeID: typeFull, SiteID: siteA}
			},
		},
		{
			name: "multiple unnamed devices",
			setup: func(inv *Inventory) {
				put(inv, &models.Device{Base: models.Base{ID: 1}, DeviceTypeID: typeFull, SiteID: siteA})
			},
			device: func() *models.Device {
				return &models.Device{DeviceTypeID: typeFull, SiteID: siteA}
			},
		},
		{
			name: "renaming keeps its own name",
			setup: func(inv *Inventory) {
				put(inv, &models.Device{Base: models.Base{ID: 1}, Name: "core", DeviceTypeID: typeFull, SiteID: siteA})
			},
			device: func() *models.Device {
				return &models.Device{Base: models.Base{ID: 1}, Name: "CORE", DeviceTypeID: typeFull, SiteID: siteA}
			},
		},
		{
			name: "cluster without scope",
			setup: func(inv *Inventory) {
				put(inv, &models.Cluster{Base: models.Base{ID: 1}, Name: "c1"})
			},
			device: func() *models.Device {
				return &models.Device{Name: "x", DeviceTypeID: typeFull, SiteID: siteA, ClusterID: models.UintPtr(1)}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := fixture()
			if tt.setup != nil {
				tt.setup(inv)
			}
			err := CleanDevice(inv, tt.device())
			if tt.want == "" {
				if err != nil {
					t.Errorf("CleanDevice() = %v, expected nil", err)
				}
				return
			}
			expectError(t, err, tt.field, tt.want)
		})
	}
}

func TestCleanRack(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(r *models.Rack)
		field string
		want  string
	}{
		{
			name: "unchanged",
			edit: func(r *models.Rack) {},
		},
		{
			name:  "too short for mounted device",
			edit:  func(r *models.Rack) { r.UHeight = 30 },
			field: "u_height",
			want:  "Rack must be at least 40U tall to house currently installed devices.",
		},
		{
			name:  "starting unit above lowest device",
			edit:  func(r *models.Rack) { r.StartingUnit = 10 },
			field: "starting_unit",
			want:  "Rack unit numbering must begin at 5 or less to house currently installed devices.",
		},
		{
			name:  "location on another site",
			edit:  func(r *models.Rack) { r.LocationID = models.UintPtr(1) },
			field: "location",
			want:  "Location must be from the same site, Site A.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := fixture()
			put(inv,
				racked(1, typeFull, 5, constants.FaceFront),
				racked(2, typeTwoU, 39, constants.FaceFront),
				&models.Location{Base: models.Base{ID: 1}, Name: "Hall B", Slug: "hall-b", SiteID: siteB},
			)
			candidate := rack(inv).Clone().(*models.Rack)
			tt.edit(candidate)

			err := CleanRack(inv, candidate)
			if tt.want == "" {
				if err != nil {
					t.Errorf("CleanRack() = %v, expected nil", err)
				}
				return
			}
			expectError(t, err, tt.field, tt.want)
		})
	}
}

func TestCleanRackReservation(t *testing.T) {
	inv := fixture()
	put(inv, &models.RackReservation{Base: models.Base{ID: 1}, RackID: rack42, Units: []int{10, 11}})

	err := CleanRackReservation(inv, &models.RackReservation{RackID: rack42, Units: []int{11, 43}})
	expectError(t, err, "units", "Invalid unit(s) for 42U rack: 43")
	expectError(t, err, "units", "The following units have already been reserved: 11")

	if err := CleanRackReservation(inv, &models.RackReservation{RackID: rack42, Units: []int{12}}); err != nil {
		t.Errorf("CleanRackReservation() = %v, expected nil", err)
	}
}

func TestCleanDeviceTypeHeightIncrease(t *testing.T) {
	inv := fixture()
	put(inv,
		racked(1, typeFull, 10, constants.FaceFront),
		racked(2, typeFull, 11, constants.FaceFront),
	)

	taller, _ := inv.DeviceType(typeFull)
	candidate := taller.Clone().(*models.DeviceType)
	candidate.UHeight = 2

	expectError(t, CleanDeviceType(inv, candidate), "u_height",
		"Device device-1 in rack Rack 1 does not have sufficient space to accommodate a height of 2U")

	candidate.UHeight = 1.25
	expectError(t, CleanDeviceType(inv, candidate), "u_height", "U height must be in increments of 0.5 rack units.")
}
