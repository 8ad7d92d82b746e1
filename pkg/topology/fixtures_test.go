package topology

import (
	"strings"
	"testing"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

// Fixture IDs
const (
	siteA = 1
	siteB = 2

	rack42 = 1

	typeFull     = 1 // 1U, full depth
	typeHalf     = 2 // 1U, half depth
	typeHalfU    = 3 // 0.5U, half depth
	typeZeroU    = 4 // 0U
	typeExcluded = 5 // 1U, excluded from utilization
	typeChild    = 6 // child device type
	typeTwoU     = 7 // 2U, full depth
)

func fixture() *Inventory {
	inv := NewInventory()
	put(inv,
		&models.Site{Base: models.Base{ID: siteA}, Name: "Site A", Slug: "site-a"},
		&models.Site{Base: models.Base{ID: siteB}, Name: "Site B", Slug: "site-b"},
		&models.Rack{Base: models.Base{ID: rack42}, Name: "Rack 1", SiteID: siteA, UHeight: 42, StartingUnit: 1},
		&models.DeviceType{Base: models.Base{ID: typeFull}, Model: "Full 1U", Slug: "full-1u", UHeight: 1, IsFullDepth: true},
		&models.DeviceType{Base: models.Base{ID: typeHalf}, Model: "Half 1U", Slug: "half-1u", UHeight: 1},
		&models.DeviceType{Base: models.Base{ID: typeHalfU}, Model: "Half U", Slug: "half-u", UHeight: 0.5},
		&models.DeviceType{Base: models.Base{ID: typeZeroU}, Model: "PDU", Slug: "pdu", UHeight: 0},
		&models.DeviceType{Base: models.Base{ID: typeExcluded}, Model: "Blank", Slug: "blank", UHeight: 1, ExcludeFromUtilization: true},
		&models.DeviceType{Base: models.Base{ID: typeChild}, Model: "Blade", Slug: "blade", SubdeviceRole: constants.SubdeviceChild},
		&models.DeviceType{Base: models.Base{ID: typeTwoU}, Model: "Full 2U", Slug: "full-2u", UHeight: 2, IsFullDepth: true},
	)
	return inv
}

func put(inv *Inventory, objs ...models.Object) {
	for _, obj := range objs {
		inv.Put(obj)
	}
}

func racked(id, deviceType uint, position float64, face string) *models.Device {
	return &models.Device{
		Base:         models.Base{ID: id},
		Name:         "device-" + formatUnit(float64(id)),
		DeviceTypeID: deviceType,
		SiteID:       siteA,
		RackID:       models.UintPtr(rack42),
		Position:     models.FloatPtr(position),
		Face:         face,
	}
}

func rack(inv *Inventory) *models.Rack {
	r, _ := inv.Rack(rack42)
	return r
}

// expectError fails unless err is a validation error carrying want in field
func expectError(t *testing.T, err error, field, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error containing %q, got nil", want)
	}
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if field == "" {
		field = constants.NonFieldErrors
	}
	for _, msg := range verr.Fields[field] {
		if strings.Contains(msg, want) {
			return
		}
	}
	t.Errorf("field %q: expected message containing %q, got %v", field, want, verr.Fields)
}
