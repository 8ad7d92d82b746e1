package models

import "github.com/braunma/netbox-topology/internal/constants"

// Site represents a NetBox site
type Site struct {
	Base
	Name        string `gorm:"size:100;not null" json:"name" validate:"required"`
	Slug        string `gorm:"size:100;uniqueIndex" json:"slug" validate:"required"`
	Status      string `gorm:"size:50" json:"status,omitempty"`
	TimeZone    string `gorm:"size:63" json:"time_zone,omitempty"`
	Description string `gorm:"size:200" json:"description,omitempty"`
}

func (*Site) ObjectType() string { return constants.ObjectSite }
func (s *Site) Clone() Object    { c := *s; return &c }
func (s *Site) String() string   { return s.Name }

// Location is a node in the per-site location tree
type Location struct {
	Base
	Name        string `gorm:"size:100;not null" json:"name" validate:"required"`
	Slug        string `gorm:"size:100;index" json:"slug" validate:"required"`
	SiteID      uint   `gorm:"index;not null" json:"site" validate:"required"`
	ParentID    *uint  `gorm:"index" json:"parent,omitempty"`
	Status      string `gorm:"size:50" json:"status,omitempty"`
	Description string `gorm:"size:200" json:"description,omitempty"`
}

func (*Location) ObjectType() string { return constants.ObjectLocation }
func (l *Location) Clone() Object    { c := *l; return &c }
func (l *Location) String() string   { return l.Name }

// Rack represents a NetBox rack
type Rack struct {
	Base
	Name         string `gorm:"size:100;not null" json:"name" validate:"required"`
	SiteID       uint   `gorm:"index;not null" json:"site" validate:"required"`
	LocationID   *uint  `gorm:"index" json:"location,omitempty"`
	Status       string `gorm:"size:50" json:"status,omitempty"`
	Width        int    `json:"width,omitempty"`
	UHeight      int    `json:"u_height" validate:"min=1,max=100"`
	StartingUnit int    `json:"starting_unit" validate:"min=1"`
	DescUnits    bool   `json:"desc_units"`
	Description  string `gorm:"size:200" json:"description,omitempty"`
}

func (*Rack) ObjectType() string { return constants.ObjectRack }
func (r *Rack) Clone() Object    { c := *r; return &c }
func (r *Rack) String() string   { return r.Name }

// RackReservation holds units set aside in a rack
type RackReservation struct {
	Base
	RackID      uint   `gorm:"index;not null" json:"rack" validate:"required"`
	Units       []int  `gorm:"serializer:json" json:"units" validate:"required,min=1,dive,min=1"`
	Description string `gorm:"size:200" json:"description,omitempty"`
}

func (*RackReservation) ObjectType() string { return constants.ObjectRackReservation }

func (r *RackReservation) Clone() Object {
	c := *r
	c.Units = append([]int(nil), r.Units...)
	return &c
}

// PowerPanel represents an electrical panel
type PowerPanel struct {
	Base
	Name       string `gorm:"size:100;not null" json:"name" validate:"required"`
	SiteID     uint   `gorm:"index;not null" json:"site" validate:"required"`
	LocationID *uint  `gorm:"index" json:"location,omitempty"`
}

func (*PowerPanel) ObjectType() string { return constants.ObjectPowerPanel }
func (p *PowerPanel) Clone() Object    { c := *p; return &c }
func (p *PowerPanel) String() string   { return p.Name }

// Cluster represents a virtualization cluster with an optional site or location scope
type Cluster struct {
	Base
	Name       string `gorm:"size:100;not null" json:"name" validate:"required"`
	SiteID     *uint  `gorm:"index" json:"site,omitempty"`
	LocationID *uint  `gorm:"index" json:"location,omitempty"`
}

func (*Cluster) ObjectType() string { return constants.ObjectCluster }
func (c *Cluster) Clone() Object    { n := *c; return &n }
func (c *Cluster) String() string   { return c.Name }
