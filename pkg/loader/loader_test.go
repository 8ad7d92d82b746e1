package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/braunma/netbox-topology/pkg/utils"
)

func TestDataLoaderInitialization(t *testing.T) {
	logger := utils.NewLogger(true)
	loader := NewDataLoader("/test/path", logger)

	if loader == nil {
		t.Fatal("NewDataLoader() returned nil")
	}

	if loader.logger == nil {
		t.Error("DataLoader logger is nil")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadRacks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "racks", "a.yaml"), `
- name: Rack A01
  site_slug: berlin-dc
  u_height: 42
  reservations:
    - units: [40, 41]
- name: Rack A02
  slug: a02
  site_slug: berlin-dc
  desc_units: true
`)
	writeFile(t, filepath.Join(dir, "racks", "nested", "b.yml"), `
- name: Rack B01
  site_slug: hamburg-edge
`)
	writeFile(t, filepath.Join(dir, "racks", "README.md"), "not yaml")

	loader := NewDataLoader(dir, utils.NewLogger(false))
	racks, err := loader.LoadRacks("racks")
	if err != nil {
		t.Fatalf("LoadRacks() error = %v", err)
	}
	if len(racks) != 3 {
		t.Fatalf("LoadRacks() returned %d racks, expected 3", len(racks))
	}

	bySlug := make(map[string]int)
	for i, r := range racks {
		bySlug[r.RackSlug()] = i
	}
	for _, slug := range []string{"rack-a01", "a02", "rack-b01"} {
		if _, ok := bySlug[slug]; !ok {
			t.Errorf("rack %q not loaded", slug)
		}
	}

	a01 := racks[bySlug["rack-a01"]]
	if len(a01.Reservations) != 1 || len(a01.Reservations[0].Units) != 2 {
		t.Errorf("reservations = %+v, expected one reservation of 2 units", a01.Reservations)
	}
	if !racks[bySlug["a02"]].DescUnits {
		t.Error("DescUnits = false, expected true")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		folder  string
		content string
		load    func(dl *DataLoader, folder string) error
		wantErr string
	}{
		{
			name:    "missing site slug",
			folder:  "racks",
			content: "- name: Rack A01\n",
			load: func(dl *DataLoader, folder string) error {
				_, err := dl.LoadRacks(folder)
				return err
			},
			wantErr: "site_slug: required",
		},
		{
			name:    "rack too tall",
			folder:  "racks",
			content: "- name: Rack A01\n  site_slug: x\n  u_height: 101\n",
			load: func(dl *DataLoader, folder string) error {
				_, err := dl.LoadRacks(folder)
				return err
			},
			wantErr: "u_height: max=100",
		},
		{
			name:   "bad primary mac",
			folder: "devices",
			content: `
- name: srv01
  site_slug: x
  device_type_slug: y
  interfaces:
    - name: eth0
      type: 1000base-t
      primary_mac: not-a-mac
`,
			load: func(dl *DataLoader, folder string) error {
				_, err := dl.LoadDevices(folder)
				return err
			},
			wantErr: "primary_mac: mac",
		},
		{
			name:   "link without peer",
			folder: "devices",
			content: `
- name: srv01
  site_slug: x
  device_type_slug: y
  interfaces:
    - name: eth0
      type: 1000base-t
      link:
        cable_type: cat6
`,
			load: func(dl *DataLoader, folder string) error {
				_, err := dl.LoadDevices(folder)
				return err
			},
			wantErr: "peer_device: required_without",
		},
		{
			name:    "invalid face",
			folder:  "devices",
			content: "- name: srv01\n  site_slug: x\n  device_type_slug: y\n  face: top\n",
			load: func(dl *DataLoader, folder string) error {
				_, err := dl.LoadDevices(folder)
				return err
			},
			wantErr: "face: oneof=front rear",
		},
		{
			name:    "not a list",
			folder:  "sites",
			content: "name: Berlin\nslug: berlin\n",
			load: func(dl *DataLoader, folder string) error {
				_, err := dl.LoadSites(folder)
				return err
			},
			wantErr: "failed to unmarshal YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, tt.folder, "items.yaml"), tt.content)

			err := tt.load(NewDataLoader(dir, utils.NewLogger(false)), tt.folder)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, expected it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFolder(t *testing.T) {
	loader := NewDataLoader(t.TempDir(), utils.NewLogger(false))

	sites, err := loader.LoadSites("definitions/sites")
	if err != nil {
		t.Fatalf("LoadSites() error = %v", err)
	}
	if sites != nil {
		t.Errorf("LoadSites() = %v, expected nil", sites)
	}

	defs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(defs.Devices) != 0 {
		t.Errorf("LoadAll() returned %d devices, expected 0", len(defs.Devices))
	}
}

func TestLoadAllRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, Folders.ActiveDevices, "a.yaml"), `
- name: srv01
  site_slug: berlin-dc
  device_type_slug: r760
`)
	writeFile(t, filepath.Join(dir, Folders.PassiveDevices, "b.yaml"), `
- name: srv01
  site_slug: berlin-dc
  device_type_slug: patch-panel
`)

	_, err := NewDataLoader(dir, utils.NewLogger(false)).LoadAll()
	if err == nil {
		t.Fatal("LoadAll() expected duplicate error, got nil")
	}
	if !strings.Contains(err.Error(), `duplicate device "berlin-dc/srv01"`) {
		t.Errorf("error = %q", err.Error())
	}
}

// Integration tests for example YAML files
func TestLoadExampleData(t *testing.T) {
	if _, err := os.Stat("../../example/definitions"); os.IsNotExist(err) {
		t.Skip("Skipping integration test - example definitions directory not found")
	}

	loader := NewDataLoader("../../example", utils.NewLogger(false))
	defs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	counts := []struct {
		kind     string
		got      int
		expected int
	}{
		{"sites", len(defs.Sites), 2},
		{"locations", len(defs.Locations), 2},
		{"racks", len(defs.Racks), 2},
		{"power panels", len(defs.PowerPanels), 1},
		{"clusters", len(defs.Clusters), 1},
		{"device types", len(defs.DeviceTypes), 6},
		{"module types", len(defs.ModuleTypes), 2},
		{"circuits", len(defs.Circuits), 1},
		{"devices", len(defs.Devices), 8},
	}
	for _, c := range counts {
		if c.got != c.expected {
			t.Errorf("loaded %d %s, expected %d", c.got, c.kind, c.expected)
		}
	}

	for _, dt := range defs.DeviceTypes {
		if dt.Slug == "patch-panel-24" && dt.FullDepth() {
			t.Error("patch-panel-24 should not be full depth")
		}
		if dt.Slug == "patch-panel-24" && (len(dt.FrontPorts) != 4 || dt.FrontPorts[3].RearPort != "Rear 1") {
			t.Errorf("patch-panel-24 front port templates = %+v", dt.FrontPorts)
		}
		if dt.Slug == "poweredge-r760" && !dt.FullDepth() {
			t.Error("poweredge-r760 should default to full depth")
		}
	}

	for _, d := range defs.Devices {
		if d.Name != "srv-berlin-01" {
			continue
		}
		if len(d.Modules) != 2 || len(d.Modules[0].ModuleBays) != 1 {
			t.Errorf("srv-berlin-01 modules = %+v", d.Modules)
		}
		if d.Interfaces[0].PrimaryMAC != "00:11:22:33:44:55" {
			t.Errorf("primary MAC = %q", d.Interfaces[0].PrimaryMAC)
		}
	}
}
