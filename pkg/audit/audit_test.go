package audit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/topology"
)

func baseInventory() *topology.Inventory {
	inv := topology.NewInventory()
	inv.Put(&models.Site{Base: models.Base{ID: 1}, Name: "Site A", Slug: "site-a"})
	inv.Put(&models.Site{Base: models.Base{ID: 2}, Name: "Site B", Slug: "site-b"})
	inv.Put(&models.Rack{Base: models.Base{ID: 1}, Name: "R1", SiteID: 1, UHeight: 42, StartingUnit: 1})
	inv.Put(&models.DeviceType{Base: models.Base{ID: 1}, Manufacturer: "ACME", Model: "1U", Slug: "1u", UHeight: 1, IsFullDepth: true})
	return inv
}

func device(id uint, position float64) *models.Device {
	return &models.Device{
		Base:         models.Base{ID: id},
		Name:         fmt.Sprintf("dev%d", id),
		DeviceTypeID: 1,
		SiteID:       1,
		RackID:       models.UintPtr(1),
		Position:     models.FloatPtr(position),
		Face:         constants.FaceFront,
	}
}

func TestRunCleanInventory(t *testing.T) {
	inv := baseInventory()
	inv.Put(device(1, 1))
	inv.Put(device(2, 2))

	report := NewAuditor(nil).Run(inv, "test")

	assert.True(t, report.Valid(), "unexpected findings: %+v", report.Findings)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "test", report.Source)
	assert.Equal(t, 6, report.Objects)
	require.Len(t, report.Racks, 1)
	assert.Equal(t, "Site A", report.Racks[0].Site)
	assert.InDelta(t, 2.0/42.0*100, report.Racks[0].Percent, 1e-9)
}

func TestRunReportsOverlappingDevices(t *testing.T) {
	inv := baseInventory()
	inv.Put(device(1, 10))
	inv.Put(device(2, 10))

	report := NewAuditor(nil).Run(inv, "test")

	require.False(t, report.Valid())
	assert.Equal(t, map[string]int{constants.ObjectDevice: 2}, report.Summary())
	for _, f := range report.Findings {
		assert.Equal(t, "position", f.Field)
		assert.Contains(t, f.Message, "U10 is already occupied")
	}
}

func TestRunReportsStaleCableTermination(t *testing.T) {
	inv := baseInventory()
	inv.Put(device(1, 1))
	inv.Put(&models.Interface{
		Base:            models.Base{ID: 1},
		DeviceComponent: models.DeviceComponent{DeviceID: 1, Name: "eth0"},
		Type:            "1000base-t",
	})
	inv.Put(&models.CableTermination{
		Base:            models.Base{ID: 1},
		CableID:         1,
		CableEnd:        constants.CableEndA,
		TerminationType: constants.TerminationInterface,
		TerminationID:   1,
		DeviceID:        models.UintPtr(1),
		SiteID:          models.UintPtr(2),
	})

	report := NewAuditor(nil).Run(inv, "test")

	var stale []Finding
	for _, f := range report.Findings {
		if f.ObjectType == constants.ObjectCableTermination {
			stale = append(stale, f)
		}
	}
	require.Len(t, stale, 1)
	assert.Equal(t, "site", stale[0].Field)
	assert.Equal(t, "dcim.interface 1", stale[0].Object)
}

func TestReportSummary(t *testing.T) {
	report := &Report{Findings: []Finding{
		{ObjectType: constants.ObjectRack},
		{ObjectType: constants.ObjectDevice},
		{ObjectType: constants.ObjectDevice},
	}}
	assert.Equal(t, map[string]int{constants.ObjectRack: 1, constants.ObjectDevice: 2}, report.Summary())
	assert.False(t, report.Valid())
}
