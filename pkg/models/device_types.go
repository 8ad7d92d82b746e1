package models

import (
	"encoding/json"
	"slices"

	"github.com/braunma/netbox-topology/internal/constants"
)

// InterfaceTemplate represents an interface template for device types
type InterfaceTemplate struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Type     string `yaml:"type" json:"type" validate:"required"`
	MgmtOnly bool   `yaml:"mgmt_only,omitempty" json:"mgmt_only,omitempty"`
}

// PortTemplate represents a port template for patch panels (Front/Rear).
// Front ports name their rear port; rear ports carry the number of positions.
type PortTemplate struct {
	Name             string `yaml:"name" json:"name" validate:"required"`
	Type             string `yaml:"type" json:"type" validate:"required"`
	RearPort         string `yaml:"rear_port,omitempty" json:"rear_port,omitempty"`
	RearPortPosition int    `yaml:"rear_port_position,omitempty" json:"rear_port_position,omitempty" validate:"omitempty,min=1"`
	Positions        int    `yaml:"positions,omitempty" json:"positions,omitempty" validate:"omitempty,min=1,max=1024"`
}

// ModuleBayTemplate represents a module bay template (e.g., for GPUs)
type ModuleBayTemplate struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Label    string `yaml:"label,omitempty" json:"label,omitempty"`
	Position string `yaml:"position,omitempty" json:"position,omitempty"`
}

// PowerPortTemplate represents a power inlet template
type PowerPortTemplate struct {
	Name          string `yaml:"name" json:"name" validate:"required"`
	MaximumDraw   int    `yaml:"maximum_draw,omitempty" json:"maximum_draw,omitempty"`
	AllocatedDraw int    `yaml:"allocated_draw,omitempty" json:"allocated_draw,omitempty"`
}

// ConsolePortTemplate represents a console or console server port template
type ConsolePortTemplate struct {
	Name string `yaml:"name" json:"name" validate:"required"`
}

// ComponentTemplates are the components every new device of a type is created with
type ComponentTemplates struct {
	Interfaces         []InterfaceTemplate   `yaml:"interfaces,omitempty" json:"interfaces,omitempty" validate:"dive"`
	FrontPorts         []PortTemplate        `yaml:"front_ports,omitempty" json:"front_ports,omitempty" validate:"dive"`
	RearPorts          []PortTemplate        `yaml:"rear_ports,omitempty" json:"rear_ports,omitempty" validate:"dive"`
	ModuleBays         []ModuleBayTemplate   `yaml:"module_bays,omitempty" json:"module_bays,omitempty" validate:"dive"`
	PowerPorts         []PowerPortTemplate   `yaml:"power_ports,omitempty" json:"power_ports,omitempty" validate:"dive"`
	ConsolePorts       []ConsolePortTemplate `yaml:"console_ports,omitempty" json:"console_ports,omitempty" validate:"dive"`
	ConsoleServerPorts []ConsolePortTemplate `yaml:"console_server_ports,omitempty" json:"console_server_ports,omitempty" validate:"dive"`
}

// Count returns the number of templated components
func (t ComponentTemplates) Count() int {
	return len(t.Interfaces) + len(t.FrontPorts) + len(t.RearPorts) + len(t.ModuleBays) +
		len(t.PowerPorts) + len(t.ConsolePorts) + len(t.ConsoleServerPorts)
}

func (t ComponentTemplates) clone() ComponentTemplates {
	return ComponentTemplates{
		Interfaces:         slices.Clone(t.Interfaces),
		FrontPorts:         slices.Clone(t.FrontPorts),
		RearPorts:          slices.Clone(t.RearPorts),
		ModuleBays:         slices.Clone(t.ModuleBays),
		PowerPorts:         slices.Clone(t.PowerPorts),
		ConsolePorts:       slices.Clone(t.ConsolePorts),
		ConsoleServerPorts: slices.Clone(t.ConsoleServerPorts),
	}
}

// DeviceType represents a device type (blueprint for devices)
type DeviceType struct {
	Base
	Manufacturer           string  `gorm:"size:100" json:"manufacturer" validate:"required"`
	Model                  string  `gorm:"size:100;not null" json:"model" validate:"required"`
	Slug                   string  `gorm:"size:100;uniqueIndex" json:"slug" validate:"required"`
	UHeight                float64 `json:"u_height" validate:"min=0,max=100"`
	IsFullDepth            bool    `json:"is_full_depth"`
	ExcludeFromUtilization bool    `json:"exclude_from_utilization"`
	SubdeviceRole          string  `gorm:"size:50" json:"subdevice_role,omitempty" validate:"omitempty,oneof=parent child"`

	Components ComponentTemplates `gorm:"serializer:json" json:"components"`
}

func (*DeviceType) ObjectType() string { return constants.ObjectDeviceType }
func (dt *DeviceType) String() string  { return dt.Model }

func (dt *DeviceType) Clone() Object {
	c := *dt
	c.Components = dt.Components.clone()
	return &c
}

// UnmarshalJSON decodes a device type, treating a missing is_full_depth as true
func (dt *DeviceType) UnmarshalJSON(data []byte) error {
	type plain DeviceType
	p := plain(*dt)
	p.IsFullDepth = true
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*dt = DeviceType(p)
	return nil
}

// IsChildDevice reports whether devices of this type live in a parent's device bay
func (dt *DeviceType) IsChildDevice() bool {
	return dt.SubdeviceRole == constants.SubdeviceChild
}

// ModuleType represents a blueprint for a module (e.g., NVIDIA H200)
type ModuleType struct {
	Base
	Manufacturer string `gorm:"size:100" json:"manufacturer" validate:"required"`
	Model        string `gorm:"size:100;not null" json:"model" validate:"required"`
}

func (*ModuleType) ObjectType() string { return constants.ObjectModuleType }
func (mt *ModuleType) Clone() Object   { c := *mt; return &c }
func (mt *ModuleType) String() string  { return mt.Model }
