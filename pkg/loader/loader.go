package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/utils"
)

// Folders holds the default layout of a data directory
var Folders = struct {
	Sites, Locations, Racks, Power, Clusters, DeviceTypes, ModuleTypes, Circuits string
	ActiveDevices, PassiveDevices                                               string
}{
	Sites:          "definitions/sites",
	Locations:      "definitions/locations",
	Racks:          "definitions/racks",
	Power:          "definitions/power",
	Clusters:       "definitions/clusters",
	DeviceTypes:    "definitions/device_types",
	ModuleTypes:    "definitions/module_types",
	Circuits:       "definitions/circuits",
	ActiveDevices:  "inventory/hardware/active",
	PassiveDevices: "inventory/hardware/passive",
}

// Definitions is everything read from one data directory
type Definitions struct {
	Sites       []*models.SiteConfig
	Locations   []*models.LocationConfig
	Racks       []*models.RackConfig
	PowerPanels []*models.PowerPanelConfig
	Clusters    []*models.ClusterConfig
	DeviceTypes []*models.DeviceTypeConfig
	ModuleTypes []*models.ModuleTypeConfig
	Circuits    []*models.CircuitConfig
	Devices     []*models.DeviceConfig
}

// DataLoader handles loading and validating YAML configuration files
type DataLoader struct {
	basePath string
	logger   *utils.Logger
	validate *validator.Validate
}

// NewDataLoader creates a new data loader
func NewDataLoader(basePath string, logger *utils.Logger) *DataLoader {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &DataLoader{
		basePath: basePath,
		logger:   logger,
		validate: v,
	}
}

// LoadAll loads every definition kind from the default folders
func (dl *DataLoader) LoadAll() (*Definitions, error) {
	defs := &Definitions{}
	var err error

	if defs.Sites, err = dl.LoadSites(Folders.Sites); err != nil {
		return nil, err
	}
	if defs.Locations, err = dl.LoadLocations(Folders.Locations); err != nil {
		return nil, err
	}
	if defs.Racks, err = dl.LoadRacks(Folders.Racks); err != nil {
		return nil, err
	}
	if defs.PowerPanels, err = dl.LoadPowerPanels(Folders.Power); err != nil {
		return nil, err
	}
	if defs.Clusters, err = dl.LoadClusters(Folders.Clusters); err != nil {
		return nil, err
	}
	if defs.DeviceTypes, err = dl.LoadDeviceTypes(Folders.DeviceTypes); err != nil {
		return nil, err
	}
	if defs.ModuleTypes, err = dl.LoadModuleTypes(Folders.ModuleTypes); err != nil {
		return nil, err
	}
	if defs.Circuits, err = dl.LoadCircuits(Folders.Circuits); err != nil {
		return nil, err
	}

	active, err := dl.LoadDevices(Folders.ActiveDevices)
	if err != nil {
		return nil, err
	}
	passive, err := dl.LoadDevices(Folders.PassiveDevices)
	if err != nil {
		return nil, err
	}
	defs.Devices = append(active, passive...)

	if err := checkUnique(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// LoadSites loads site definitions from a folder
func (dl *DataLoader) LoadSites(folder string) ([]*models.SiteConfig, error) {
	return load[models.SiteConfig](dl, folder, "sites")
}

// LoadLocations loads location definitions from a folder
func (dl *DataLoader) LoadLocations(folder string) ([]*models.LocationConfig, error) {
	return load[models.LocationConfig](dl, folder, "locations")
}

// LoadRacks loads rack definitions from a folder
func (dl *DataLoader) LoadRacks(folder string) ([]*models.RackConfig, error) {
	return load[models.RackConfig](dl, folder, "racks")
}

// LoadPowerPanels loads power panel definitions (with their feeds) from a folder
func (dl *DataLoader) LoadPowerPanels(folder string) ([]*models.PowerPanelConfig, error) {
	return load[models.PowerPanelConfig](dl, folder, "power panels")
}

// LoadClusters loads cluster definitions from a folder
func (dl *DataLoader) LoadClusters(folder string) ([]*models.ClusterConfig, error) {
	return load[models.ClusterConfig](dl, folder, "clusters")
}

// LoadDeviceTypes loads device type definitions from a folder
func (dl *DataLoader) LoadDeviceTypes(folder string) ([]*models.DeviceTypeConfig, error) {
	return load[models.DeviceTypeConfig](dl, folder, "device types")
}

// LoadModuleTypes loads module type definitions from a folder
func (dl *DataLoader) LoadModuleTypes(folder string) ([]*models.ModuleTypeConfig, error) {
	return load[models.ModuleTypeConfig](dl, folder, "module types")
}

// LoadCircuits loads circuit definitions from a folder
func (dl *DataLoader) LoadCircuits(folder string) ([]*models.CircuitConfig, error) {
	return load[models.CircuitConfig](dl, folder, "circuits")
}

// LoadDevices loads device configurations from a folder
func (dl *DataLoader) LoadDevices(folder string) ([]*models.DeviceConfig, error) {
	return load[models.DeviceConfig](dl, folder, "devices")
}

// load reads every YAML file below folder as a list of T and validates each item
func load[T any](dl *DataLoader, folder, kind string) ([]*T, error) {
	targetDir := filepath.Join(dl.basePath, folder)

	if _, err := os.Stat(targetDir); os.IsNotExist(err) {
		dl.logger.Warning("Folder %s not found, skipping", folder)
		return nil, nil
	}

	yamlFiles, err := findYAMLFiles(targetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files in %s: %w", targetDir, err)
	}
	if len(yamlFiles) == 0 {
		dl.logger.Warning("No YAML files found in %s", folder)
		return nil, nil
	}

	var items []*T
	for _, file := range yamlFiles {
		loaded, err := loadFile[T](file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		for i, item := range loaded {
			if err := dl.validate.Struct(item); err != nil {
				return nil, fmt.Errorf("invalid item %d in %s: %w", i, file, describe(err))
			}
		}
		items = append(items, loaded...)
	}

	dl.logger.Debug("Loaded %d %s from %s", len(items), kind, folder)
	return items, nil
}

// loadFile loads a single YAML file holding a list of items
func loadFile[T any](path string) ([]*T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var items []*T
	if err := yaml.Unmarshal(content, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("item %d is empty", i)
		}
	}
	return items, nil
}

// describe flattens validator errors into "field: rule" pairs
func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", ns, rule))
	}
	return errors.New(strings.Join(parts, "; "))
}

// checkUnique rejects definitions that reuse a slug or name within their kind
func checkUnique(defs *Definitions) error {
	seen := make(map[string]bool)
	check := func(kind, key string) error {
		k := kind + "/" + key
		if seen[k] {
			return fmt.Errorf("duplicate %s %q", kind, key)
		}
		seen[k] = true
		return nil
	}

	for _, s := range defs.Sites {
		if err := check("site", s.Slug); err != nil {
			return err
		}
	}
	for _, l := range defs.Locations {
		if err := check("location", l.SiteSlug+"/"+l.Slug); err != nil {
			return err
		}
	}
	for _, r := range defs.Racks {
		if err := check("rack", r.SiteSlug+"/"+r.RackSlug()); err != nil {
			return err
		}
	}
	for _, dt := range defs.DeviceTypes {
		if err := check("device type", dt.Slug); err != nil {
			return err
		}
	}
	for _, mt := range defs.ModuleTypes {
		if err := check("module type", mt.Slug); err != nil {
			return err
		}
	}
	for _, d := range defs.Devices {
		if err := check("device", d.SiteSlug+"/"+d.Name); err != nil {
			return err
		}
	}
	return nil
}

// findYAMLFiles recursively finds all YAML files in a directory
func findYAMLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			ext := filepath.Ext(path)
			if ext == ".yaml" || ext == ".yml" {
				files = append(files, path)
			}
		}

		return nil
	})

	return files, err
}
