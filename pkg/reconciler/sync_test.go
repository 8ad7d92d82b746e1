package reconciler

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/braunma/netbox-topology/internal/constants"
	"github.com/braunma/netbox-topology/pkg/loader"
	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/store"
	"github.com/braunma/netbox-topology/pkg/topology"
	"github.com/braunma/netbox-topology/pkg/utils"
)

func newTestReconciler() (*Reconciler, *topology.Engine) {
	engine := topology.NewEngine(store.NewMemoryStore(), nil)
	return New(engine, utils.NewLogger(false)), engine
}

func snapshot(t *testing.T, engine *topology.Engine) *topology.Inventory {
	t.Helper()
	var out *topology.Inventory
	err := engine.Snapshot(context.Background(), func(inv *topology.Inventory) error {
		out = inv.Clone()
		return nil
	})
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return out
}

func findDevice(t *testing.T, inv *topology.Inventory, name string) *models.Device {
	t.Helper()
	for _, d := range inv.Devices() {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("device %s not found", name)
	return nil
}

func findComponent(t *testing.T, inv *topology.Inventory, device *models.Device, objectType, name string) models.Component {
	t.Helper()
	for _, term := range inv.TerminationsOfType(objectType) {
		comp := term.(models.Component)
		if comp.Component().DeviceID == device.ID && comp.Component().Name == name {
			return comp
		}
	}
	t.Fatalf("%s %s not found on %s", objectType, name, device.Name)
	return nil
}

// minimal builds one site with one rack and a 1U device type
func minimal() *loader.Definitions {
	return &loader.Definitions{
		Sites: []*models.SiteConfig{
			{Name: "Site 1", Slug: "site-1"},
			{Name: "Site 2", Slug: "site-2"},
		},
		Locations: []*models.LocationConfig{
			{Name: "Room", Slug: "room", SiteSlug: "site-1"},
		},
		Racks: []*models.RackConfig{
			{Name: "R1", SiteSlug: "site-1", LocationSlug: "room"},
		},
		DeviceTypes: []*models.DeviceTypeConfig{
			{Model: "Switch", Slug: "switch", Manufacturer: "ACME", UHeight: 1},
		},
	}
}

func switchAt(name string, position float64, ifaces ...models.InterfaceConfig) *models.DeviceConfig {
	return &models.DeviceConfig{
		Name:           name,
		SiteSlug:       "site-1",
		RackSlug:       "r1",
		DeviceTypeSlug: "switch",
		Position:       models.FloatPtr(position),
		Face:           constants.FaceFront,
		Interfaces:     ifaces,
	}
}

func TestSyncExampleData(t *testing.T) {
	if _, err := os.Stat("../../example/definitions"); os.IsNotExist(err) {
		t.Skip("Skipping integration test - example definitions directory not found")
	}
	defs, err := loader.NewDataLoader("../../example", utils.NewLogger(false)).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	ctx := context.Background()
	r, engine := newTestReconciler()
	stats, err := r.Sync(ctx, defs)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Created == 0 {
		t.Fatal("Sync() created nothing")
	}
	if stats.Cables != 6 {
		t.Errorf("Cables = %d, expected 6", stats.Cables)
	}

	inv := snapshot(t, engine)
	if n := len(inv.Devices()); n != 8 {
		t.Errorf("devices = %d, expected 8", n)
	}
	if n := len(inv.Cables()); n != 6 {
		t.Errorf("cables = %d, expected 6", n)
	}

	// Racked devices take the rack's location
	srv := findDevice(t, inv, "srv-berlin-01")
	rack, _ := inv.Rack(*srv.RackID)
	if !models.SameID(srv.LocationID, rack.LocationID) || srv.LocationID == nil {
		t.Errorf("srv-berlin-01 location = %v, expected rack location %v", srv.LocationID, rack.LocationID)
	}

	// Nested modules: ens1f0 sits on the NIC in the riser's PCIe bay
	ens := findComponent(t, inv, srv, constants.TerminationInterface, "ens1f0")
	if ens.Component().ModuleID == nil {
		t.Fatal("ens1f0 is not on a module")
	}
	nic, _ := inv.Module(*ens.Component().ModuleID)
	bay, _ := inv.ModuleBay(nic.ModuleBayID)
	if bay.Name != "PCIe 1" || bay.ModuleID == nil {
		t.Errorf("NIC bay = %+v, expected PCIe 1 provided by the riser", bay)
	}

	// Cable peers
	eno1 := findComponent(t, inv, srv, constants.TerminationInterface, "eno1").(*models.Interface)
	peers, err := topology.LinkPeers(inv, models.RefOf(eno1))
	if err != nil {
		t.Fatalf("LinkPeers() error = %v", err)
	}
	leaf := findDevice(t, inv, "leaf-berlin-01")
	if len(peers) != 1 || peers[0].(models.Component).Component().DeviceID != leaf.ID {
		t.Errorf("eno1 peers = %v, expected leaf-berlin-01 Ethernet1", peers)
	}

	// Primary MAC
	if eno1.PrimaryMACAddressID == nil {
		t.Fatal("eno1 has no primary MAC")
	}
	mac, _ := inv.MACAddress(*eno1.PrimaryMACAddressID)
	if mac.MACAddress != "00:11:22:33:44:55" {
		t.Errorf("primary MAC = %s", mac.MACAddress)
	}
	if n := len(inv.MACAddresses()); n != 2 {
		t.Errorf("MAC addresses = %d, expected 2", n)
	}

	// pp-a02 only has the ports of its type, and its Rear 1 carries the trunk from pp-a01
	pp := findDevice(t, inv, "pp-a02")
	front := findComponent(t, inv, pp, constants.TerminationFrontPort, "Front 4").(*models.FrontPort)
	if front.RearPortPosition != 4 {
		t.Errorf("pp-a02 Front 4 position = %d, expected 4", front.RearPortPosition)
	}
	if rear := findComponent(t, inv, pp, constants.TerminationRearPort, "Rear 1"); rear.Cabled().CableID == nil {
		t.Error("pp-a02 Rear 1 is not cabled")
	}

	// Half-unit firewalls share U30
	units, err := engine.AvailableUnits(ctx, rack.ID, 0.5, constants.FaceFront, nil)
	if err != nil {
		t.Fatalf("AvailableUnits() error = %v", err)
	}
	for _, u := range units {
		if u == 30 || u == 30.5 {
			t.Errorf("U%v should be occupied by the edge firewalls", u)
		}
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	defs := minimal()
	defs.Devices = []*models.DeviceConfig{
		switchAt("sw1", 1, models.InterfaceConfig{
			Name:         "eth0",
			Type:         "1000base-t",
			MACAddresses: []string{"aa-bb-cc-dd-ee-01"},
			PrimaryMAC:   "aa:bb:cc:dd:ee:01",
			Link:         &models.LinkConfig{PeerDevice: "sw2", PeerPort: "eth0", Length: models.FloatPtr(1)},
		}),
		switchAt("sw2", 2, models.InterfaceConfig{Name: "eth0", Type: "1000base-t"}),
	}

	r, _ := newTestReconciler()
	first, err := r.Sync(ctx, defs)
	if err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	if first.Created == 0 {
		t.Fatal("first Sync() created nothing")
	}

	second, err := r.Sync(ctx, defs)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if second.Created != 0 || second.Updated != 0 {
		t.Errorf("second Sync() created %d and updated %d objects, expected none", second.Created, second.Updated)
	}
	if second.Unchanged == 0 {
		t.Error("second Sync() reported no unchanged objects")
	}
}

func TestSyncRejectsOverlappingDevices(t *testing.T) {
	defs := minimal()
	defs.Devices = []*models.DeviceConfig{
		switchAt("sw1", 10),
		switchAt("sw2", 10),
	}

	r, engine := newTestReconciler()
	_, err := r.Sync(context.Background(), defs)
	if err == nil {
		t.Fatal("Sync() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "U10 is already occupied") {
		t.Errorf("error = %q", err.Error())
	}
	if n := len(snapshot(t, engine).Devices()); n != 1 {
		t.Errorf("devices = %d, expected 1", n)
	}
}

func TestSyncRepatchesCable(t *testing.T) {
	ctx := context.Background()
	defs := minimal()
	link := &models.LinkConfig{PeerDevice: "sw2", PeerPort: "eth0"}
	defs.Devices = []*models.DeviceConfig{
		switchAt("sw1", 1, models.InterfaceConfig{Name: "eth0", Type: "1000base-t", Link: link}),
		switchAt("sw2", 2, models.InterfaceConfig{Name: "eth0", Type: "1000base-t"}),
		switchAt("sw3", 3, models.InterfaceConfig{Name: "eth0", Type: "1000base-t"}),
	}

	r, engine := newTestReconciler()
	if _, err := r.Sync(ctx, defs); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}

	link.PeerDevice = "sw3"
	if _, err := r.Sync(ctx, defs); err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}

	inv := snapshot(t, engine)
	if n := len(inv.Cables()); n != 1 {
		t.Fatalf("cables = %d, expected 1", n)
	}
	sw1 := findDevice(t, inv, "sw1")
	sw2 := findDevice(t, inv, "sw2")
	sw3 := findDevice(t, inv, "sw3")

	peers, err := topology.LinkPeers(inv, models.RefOf(findComponent(t, inv, sw1, constants.TerminationInterface, "eth0")))
	if err != nil {
		t.Fatalf("LinkPeers() error = %v", err)
	}
	if len(peers) != 1 || peers[0].(models.Component).Component().DeviceID != sw3.ID {
		t.Errorf("sw1 eth0 peers = %v, expected sw3 eth0", peers)
	}
	if old := findComponent(t, inv, sw2, constants.TerminationInterface, "eth0"); old.Cabled().CableID != nil {
		t.Error("sw2 eth0 still has a cable")
	}
}

func TestSyncLocationMoveCascades(t *testing.T) {
	ctx := context.Background()
	defs := minimal()
	defs.Devices = []*models.DeviceConfig{switchAt("sw1", 1)}

	r, engine := newTestReconciler()
	if _, err := r.Sync(ctx, defs); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}

	defs.Locations[0].SiteSlug = "site-2"
	defs.Racks[0].SiteSlug = "site-2"
	defs.Devices[0].SiteSlug = "site-2"
	stats, err := r.Sync(ctx, defs)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if stats.Cascaded != 2 {
		t.Errorf("Cascaded = %d, expected 2 (rack and device)", stats.Cascaded)
	}
	if stats.Updated != 1 || stats.Created != 0 {
		t.Errorf("Updated = %d, Created = %d, expected only the location to be updated", stats.Updated, stats.Created)
	}

	inv := snapshot(t, engine)
	sw1 := findDevice(t, inv, "sw1")
	site, _ := inv.Site(sw1.SiteID)
	if site.Slug != "site-2" {
		t.Errorf("sw1 site = %s, expected site-2", site.Slug)
	}
}

func TestSyncUnknownReferences(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(defs *loader.Definitions)
		wantErr string
	}{
		{
			name: "unknown site",
			mutate: func(defs *loader.Definitions) {
				defs.Racks[0].SiteSlug = "nowhere"
			},
			wantErr: "site nowhere not found",
		},
		{
			name: "unknown parent location",
			mutate: func(defs *loader.Definitions) {
				defs.Locations[0].ParentSlug = "attic"
			},
			wantErr: "parent location attic of Room not found",
		},
		{
			name: "unknown device type",
			mutate: func(defs *loader.Definitions) {
				defs.Devices = []*models.DeviceConfig{switchAt("sw1", 1)}
				defs.Devices[0].DeviceTypeSlug = "router"
			},
			wantErr: "device type router not found",
		},
		{
			name: "unknown peer port",
			mutate: func(defs *loader.Definitions) {
				defs.Devices = []*models.DeviceConfig{
					switchAt("sw1", 1, models.InterfaceConfig{
						Name: "eth0",
						Type: "1000base-t",
						Link: &models.LinkConfig{PeerDevice: "sw1", PeerPort: "eth9"},
					}),
				}
			},
			wantErr: "port eth9 not found on sw1",
		},
		{
			name: "unknown peer type",
			mutate: func(defs *loader.Definitions) {
				defs.Devices = []*models.DeviceConfig{
					switchAt("sw1", 1, models.InterfaceConfig{
						Name: "eth0",
						Type: "1000base-t",
						Link: &models.LinkConfig{PeerDevice: "sw1", PeerPort: "eth0", PeerType: "bay"},
					}),
				}
			},
			wantErr: `unknown peer type "bay"`,
		},
		{
			name: "module bay never provided",
			mutate: func(defs *loader.Definitions) {
				defs.ModuleTypes = []*models.ModuleTypeConfig{{Model: "NIC", Slug: "nic", Manufacturer: "ACME"}}
				d := switchAt("sw1", 1)
				d.Modules = []models.ModuleConfig{{Bay: "Slot 1", ModuleTypeSlug: "nic"}}
				defs.Devices = []*models.DeviceConfig{d}
			},
			wantErr: "module bay Slot 1 not found on sw1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := minimal()
			tt.mutate(defs)

			r, _ := newTestReconciler()
			_, err := r.Sync(context.Background(), defs)
			if err == nil {
				t.Fatal("Sync() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, expected it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
