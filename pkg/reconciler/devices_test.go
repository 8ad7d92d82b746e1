package reconciler

import (
	"context"
	"testing"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/models"
)

func TestModulesInstalledInAnyOrder(t *testing.T) {
	defs := minimal()
	defs.ModuleTypes = []*models.ModuleTypeConfig{
		{Model: "Riser", Slug: "riser", Manufacturer: "ACME"},
		{Model: "NIC", Slug: "nic", Manufacturer: "ACME"},
	}
	d := switchAt("sw1", 1, models.InterfaceConfig{Name: "p1", Type: "10gbase-x-sfpp", Module: "Slot 1"})
	d.ModuleBays = []models.ModuleBayConfig{{Name: "Riser"}}
	// The NIC's bay is provided by the riser, which is listed second
	d.Modules = []models.ModuleConfig{
		{Bay: "Slot 1", ModuleTypeSlug: "nic", Serial: "N1"},
		{Bay: "Riser", ModuleTypeSlug: "riser", ModuleBays: []models.ModuleBayConfig{{Name: "Slot 1"}}},
	}
	defs.Devices = []*models.DeviceConfig{d}

	r, engine := newTestReconciler()
	if _, err := r.Sync(context.Background(), defs); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	inv := snapshot(t, engine)
	if n := len(inv.Modules()); n != 2 {
		t.Fatalf("modules = %d, expected 2", n)
	}
	sw1 := findDevice(t, inv, "sw1")
	p1 := findComponent(t, inv, sw1, constants.TerminationInterface, "p1")
	if p1.Component().ModuleID == nil {
		t.Fatal("p1 is not on a module")
	}
	nic, _ := inv.Module(*p1.Component().ModuleID)
	if nic.Serial != "N1" {
		t.Errorf("p1 module serial = %q, expected N1", nic.Serial)
	}
}

func TestComponentDefaults(t *testing.T) {
	defs := minimal()
	d := switchAt("pp1", 1)
	d.Interfaces = []models.InterfaceConfig{
		{Name: "mgmt", Type: "1000base-t", MgmtOnly: true},
		{Name: "down", Type: "1000base-t", Enabled: new(bool)},
	}
	d.RearPorts = []models.RearPortConfig{{Name: "R1", Type: "mpo"}}
	d.FrontPorts = []models.FrontPortConfig{{Name: "F1", Type: "8p8c", RearPort: "R1"}}
	d.PowerPorts = []models.PowerPortConfig{{Name: "PSU1"}}
	d.PowerOutlets = []models.PowerOutletConfig{{Name: "O1", PowerPort: "PSU1", FeedLeg: "A"}}
	d.ConsolePorts = []models.ConsolePortConfig{{Name: "con"}}
	defs.Devices = []*models.DeviceConfig{d}

	r, engine := newTestReconciler()
	if _, err := r.Sync(context.Background(), defs); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	inv := snapshot(t, engine)
	pp1 := findDevice(t, inv, "pp1")

	if mgmt := findComponent(t, inv, pp1, constants.TerminationInterface, "mgmt").(*models.Interface); !mgmt.Enabled {
		t.Error("mgmt should default to enabled")
	}
	if down := findComponent(t, inv, pp1, constants.TerminationInterface, "down").(*models.Interface); down.Enabled {
		t.Error("down should be disabled")
	}

	rear := findComponent(t, inv, pp1, constants.TerminationRearPort, "R1").(*models.RearPort)
	if rear.Positions != 1 {
		t.Errorf("rear port positions = %d, expected 1", rear.Positions)
	}
	front := findComponent(t, inv, pp1, constants.TerminationFrontPort, "F1").(*models.FrontPort)
	if front.RearPortID != rear.ID || front.RearPortPosition != 1 {
		t.Errorf("front port maps to %d/%d, expected %d/1", front.RearPortID, front.RearPortPosition, rear.ID)
	}

	psu := findComponent(t, inv, pp1, constants.TerminationPowerPort, "PSU1")
	outlet := findComponent(t, inv, pp1, constants.TerminationPowerOutlet, "O1").(*models.PowerOutlet)
	if outlet.PowerPortID == nil || *outlet.PowerPortID != psu.GetID() {
		t.Errorf("outlet power port = %v, expected %d", outlet.PowerPortID, psu.GetID())
	}
	findComponent(t, inv, pp1, constants.TerminationConsolePort, "con")
}

func TestFindPort(t *testing.T) {
	defs := minimal()
	d := switchAt("sw1", 1, models.InterfaceConfig{Name: "1", Type: "1000base-t"})
	d.RearPorts = []models.RearPortConfig{{Name: "1", Type: "8p8c"}}
	defs.Devices = []*models.DeviceConfig{d}

	r, _ := newTestReconciler()
	if _, err := r.Sync(context.Background(), defs); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	s := r.state

	tests := []struct {
		name       string
		device     string
		port       string
		peerType   string
		objectType string
		wantErr    bool
	}{
		{
			name:       "interface is searched first",
			device:     "sw1",
			port:       "1",
			objectType: constants.TerminationInterface,
		},
		{
			name:       "explicit peer type",
			device:     "sw1",
			port:       "1",
			peerType:   "rear_port",
			objectType: constants.TerminationRearPort,
		},
		{
			name:     "wrong peer type",
			device:   "sw1",
			port:     "1",
			peerType: "power_port",
			wantErr:  true,
		},
		{
			name:    "unknown device",
			device:  "sw9",
			port:    "1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint, err := s.findPort(tt.device, tt.port, tt.peerType)
			if tt.wantErr {
				if err == nil {
					t.Errorf("findPort() expected error, got %+v", endpoint)
				}
				return
			}
			if err != nil {
				t.Fatalf("findPort() error = %v", err)
			}
			if endpoint.ObjectType != tt.objectType || endpoint.ObjectID == 0 {
				t.Errorf("findPort() = %+v, expected a %s", endpoint, tt.objectType)
			}
			if endpoint.String() != tt.device+"["+tt.port+"]" {
				t.Errorf("String() = %q", endpoint.String())
			}
		})
	}
}

func TestDeviceGetsComponentsFromType(t *testing.T) {
	defs := minimal()
	defs.DeviceTypes[0].ComponentTemplates = models.ComponentTemplates{
		Interfaces: []models.InterfaceTemplate{{Name: "eth0", Type: "1000base-t"}, {Name: "mgmt", Type: "1000base-t"}},
		RearPorts:  []models.PortTemplate{{Name: "R1", Type: "mpo", Positions: 4}},
		FrontPorts: []models.PortTemplate{{Name: "F4", Type: "lc", RearPort: "R1", RearPortPosition: 4}},
		ModuleBays: []models.ModuleBayTemplate{{Name: "Slot 1"}},
	}
	defs.ModuleTypes = []*models.ModuleTypeConfig{{Model: "NIC", Slug: "nic", Manufacturer: "ACME"}}
	sw1 := switchAt("sw1", 1, models.InterfaceConfig{Name: "mgmt", Type: "1000base-t", MgmtOnly: true})
	sw1.Modules = []models.ModuleConfig{{Bay: "Slot 1", ModuleTypeSlug: "nic"}}
	sw2 := switchAt("sw2", 2)
	sw2.FrontPorts = []models.FrontPortConfig{{Name: "F1", Type: "lc", RearPort: "R1",
		Link: &models.LinkConfig{PeerDevice: "sw1", PeerPort: "eth0"}}}
	defs.Devices = []*models.DeviceConfig{sw1, sw2}

	ctx := context.Background()
	r, engine := newTestReconciler()
	if _, err := r.Sync(ctx, defs); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	inv := snapshot(t, engine)
	if n := len(inv.Interfaces()); n != 4 {
		t.Errorf("interfaces = %d, expected eth0 and mgmt on both switches", n)
	}
	device := findDevice(t, inv, "sw1")
	if mgmt := findComponent(t, inv, device, constants.TerminationInterface, "mgmt").(*models.Interface); !mgmt.MgmtOnly {
		t.Error("mgmt on sw1 should take the definition over the template")
	}
	rear := findComponent(t, inv, device, constants.TerminationRearPort, "R1")
	f4 := findComponent(t, inv, device, constants.TerminationFrontPort, "F4").(*models.FrontPort)
	if f4.RearPortID != rear.GetID() || f4.RearPortPosition != 4 {
		t.Errorf("F4 maps to %d/%d, expected R1 position 4", f4.RearPortID, f4.RearPortPosition)
	}
	if n := len(inv.Modules()); n != 1 {
		t.Errorf("modules = %d, expected the NIC in the templated bay", n)
	}

	// A definition port can use a templated rear port and cable to a templated interface
	other := findDevice(t, inv, "sw2")
	f1 := findComponent(t, inv, other, constants.TerminationFrontPort, "F1").(*models.FrontPort)
	if f1.RearPortID != findComponent(t, inv, other, constants.TerminationRearPort, "R1").GetID() {
		t.Error("F1 on sw2 should map onto the templated R1")
	}
	if f1.CableID == nil {
		t.Error("F1 on sw2 should be cabled to sw1 eth0")
	}

	second, err := r.Sync(ctx, defs)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if second.Created != 0 || second.Updated != 0 {
		t.Errorf("second Sync() created %d and updated %d objects, expected none", second.Created, second.Updated)
	}
}
