package models

import (
	"fmt"

	"github.com/braunma/netbox-topology/internal/constants"
)

// Base carries the primary key shared by every persisted object
type Base struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

// GetID returns the primary key
func (b *Base) GetID() uint { return b.ID }

// SetID assigns the primary key
func (b *Base) SetID(id uint) { b.ID = id }

// Object is implemented by every persisted entity
type Object interface {
	ObjectType() string
	GetID() uint
	SetID(id uint)
	Clone() Object
}

// ObjectRef points at an object by type and ID
type ObjectRef struct {
	Type string `json:"object_type" yaml:"object_type" validate:"required"`
	ID   uint   `json:"object_id" yaml:"object_id" validate:"required"`
}

func (r ObjectRef) String() string {
	return fmt.Sprintf("%s %d", r.Type, r.ID)
}

// RefOf returns the reference of a persisted object
func RefOf(o Object) ObjectRef {
	return ObjectRef{Type: o.ObjectType(), ID: o.GetID()}
}

// CabledComponent holds the cable state carried by every termination
type CabledComponent struct {
	CableID       *uint  `gorm:"index" json:"cable,omitempty"`
	CableEnd      string `gorm:"size:1" json:"cable_end,omitempty"`
	MarkConnected bool   `json:"mark_connected"`
}

// Cabled exposes the cable state for update
func (c *CabledComponent) Cabled() *CabledComponent { return c }

// Termination is implemented by every object a cable can attach to
type Termination interface {
	Object
	Parent() ObjectRef
	Cabled() *CabledComponent
}

// DeviceComponent holds the fields shared by components installed on a device
type DeviceComponent struct {
	DeviceID uint   `gorm:"index;not null" json:"device" validate:"required"`
	ModuleID *uint  `gorm:"index" json:"module,omitempty"`
	Name     string `gorm:"size:64;not null" json:"name" validate:"required"`
}

// Component exposes the device placement of a component
func (c *DeviceComponent) Component() *DeviceComponent { return c }

// Parent returns the device that owns the component
func (c *DeviceComponent) Parent() ObjectRef {
	return ObjectRef{Type: constants.ObjectDevice, ID: c.DeviceID}
}

// Component is a termination installed on a device
type Component interface {
	Termination
	Component() *DeviceComponent
}

// UintPtr returns a pointer to v
func UintPtr(v uint) *uint {
	return &v
}

// FloatPtr returns a pointer to v
func FloatPtr(v float64) *float64 {
	return &v
}

// SameID reports whether two optional references point at the same object
func SameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
