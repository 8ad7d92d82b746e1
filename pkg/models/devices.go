package models

import (
	"fmt"

	"github.com/braunma/netbox-topology/internal/constants"
)

// Device represents a concrete device
type Device struct {
	Base
	Name         string   `gorm:"size:64" json:"name,omitempty"`
	DeviceTypeID uint     `gorm:"index;not null" json:"device_type" validate:"required"`
	SiteID       uint     `gorm:"index;not null" json:"site" validate:"required"`
	LocationID   *uint    `gorm:"index" json:"location,omitempty"`
	RackID       *uint    `gorm:"index" json:"rack,omitempty"`
	Position     *float64 `json:"position,omitempty" validate:"omitempty,gt=0"`
	Face         string   `gorm:"size:50" json:"face,omitempty" validate:"omitempty,oneof=front rear"`
	ClusterID    *uint    `gorm:"index" json:"cluster,omitempty"`
	Status       string   `gorm:"size:50" json:"status,omitempty"`
	Serial       string   `gorm:"size:50" json:"serial,omitempty"`
}

func (*Device) ObjectType() string { return constants.ObjectDevice }
func (d *Device) Clone() Object    { c := *d; return &c }

func (d *Device) String() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("device %d", d.ID)
}

// ModuleBay is a slot on a device. ModuleID is set when the bay is provided by an installed module.
type ModuleBay struct {
	Base
	DeviceID uint   `gorm:"index;not null" json:"device" validate:"required"`
	ModuleID *uint  `gorm:"index" json:"module,omitempty"`
	Name     string `gorm:"size:64;not null" json:"name" validate:"required"`
	Label    string `gorm:"size:64" json:"label,omitempty"`
	Position string `gorm:"size:30" json:"position,omitempty"`
}

func (*ModuleBay) ObjectType() string { return constants.ObjectModuleBay }
func (b *ModuleBay) Clone() Object    { c := *b; return &c }
func (b *ModuleBay) String() string   { return b.Name }

// Module is installed in exactly one module bay
type Module struct {
	Base
	DeviceID     uint   `gorm:"index;not null" json:"device" validate:"required"`
	ModuleBayID  uint   `gorm:"uniqueIndex;not null" json:"module_bay" validate:"required"`
	ModuleTypeID uint   `gorm:"index;not null" json:"module_type" validate:"required"`
	Serial       string `gorm:"size:50" json:"serial,omitempty"`
	Status       string `gorm:"size:50" json:"status,omitempty"`
}

func (*Module) ObjectType() string { return constants.ObjectModule }
func (m *Module) Clone() Object    { c := *m; return &c }
func (m *Module) String() string   { return fmt.Sprintf("module %d", m.ID) }
