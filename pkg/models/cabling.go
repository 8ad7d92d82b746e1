package models

import (
	"fmt"

	"github.com/braunma/netbox-topology/internal/constants"
)

// Interface represents a network interface on a device
type Interface struct {
	Base
	DeviceComponent
	CabledComponent
	Type                string `gorm:"size:50" json:"type" validate:"required"`
	Enabled             bool   `json:"enabled"`
	MgmtOnly            bool   `json:"mgmt_only"`
	PrimaryMACAddressID *uint  `gorm:"index" json:"primary_mac_address,omitempty"`
}

func (*Interface) ObjectType() string { return constants.TerminationInterface }
func (i *Interface) Clone() Object    { c := *i; return &c }

// FrontPort represents a patch panel front port mapped onto a rear port position
type FrontPort struct {
	Base
	DeviceComponent
	CabledComponent
	Type             string `gorm:"size:50" json:"type" validate:"required"`
	RearPortID       uint   `gorm:"index;not null" json:"rear_port" validate:"required"`
	RearPortPosition int    `json:"rear_port_position" validate:"min=1"`
}

func (*FrontPort) ObjectType() string { return constants.TerminationFrontPort }
func (p *FrontPort) Clone() Object    { c := *p; return &c }

// RearPort represents a patch panel rear port (backbone)
type RearPort struct {
	Base
	DeviceComponent
	CabledComponent
	Type      string `gorm:"size:50" json:"type" validate:"required"`
	Positions int    `json:"positions" validate:"min=1,max=1024"`
}

func (*RearPort) ObjectType() string { return constants.TerminationRearPort }
func (p *RearPort) Clone() Object    { c := *p; return &c }

// PowerPort represents a power inlet on a device
type PowerPort struct {
	Base
	DeviceComponent
	CabledComponent
	MaximumDraw   int `json:"maximum_draw,omitempty"`
	AllocatedDraw int `json:"allocated_draw,omitempty"`
}

func (*PowerPort) ObjectType() string { return constants.TerminationPowerPort }
func (p *PowerPort) Clone() Object    { c := *p; return &c }

// PowerOutlet represents a power outlet on a device
type PowerOutlet struct {
	Base
	DeviceComponent
	CabledComponent
	PowerPortID *uint  `gorm:"index" json:"power_port,omitempty"`
	FeedLeg     string `gorm:"size:50" json:"feed_leg,omitempty"`
}

func (*PowerOutlet) ObjectType() string { return constants.TerminationPowerOutlet }
func (p *PowerOutlet) Clone() Object    { c := *p; return &c }

// ConsolePort represents a console port on a device
type ConsolePort struct {
	Base
	DeviceComponent
	CabledComponent
}

func (*ConsolePort) ObjectType() string { return constants.TerminationConsolePort }
func (p *ConsolePort) Clone() Object    { c := *p; return &c }

// ConsoleServerPort represents a console server port on a device
type ConsoleServerPort struct {
	Base
	DeviceComponent
	CabledComponent
}

func (*ConsoleServerPort) ObjectType() string { return constants.TerminationConsoleServerPort }
func (p *ConsoleServerPort) Clone() Object    { c := *p; return &c }

// PowerFeed represents a feed from a power panel
type PowerFeed struct {
	Base
	CabledComponent
	Name         string `gorm:"size:100;not null" json:"name" validate:"required"`
	PowerPanelID uint   `gorm:"index;not null" json:"power_panel" validate:"required"`
	RackID       *uint  `gorm:"index" json:"rack,omitempty"`
}

func (*PowerFeed) ObjectType() string { return constants.TerminationPowerFeed }
func (f *PowerFeed) Clone() Object    { c := *f; return &c }

// Parent returns the power panel the feed belongs to
func (f *PowerFeed) Parent() ObjectRef {
	return ObjectRef{Type: constants.ObjectPowerPanel, ID: f.PowerPanelID}
}

// Circuit represents a provider circuit
type Circuit struct {
	Base
	CID      string `gorm:"size:100;not null" json:"cid" validate:"required"`
	Provider string `gorm:"size:100" json:"provider" validate:"required"`
}

func (*Circuit) ObjectType() string { return constants.ObjectCircuit }
func (c *Circuit) Clone() Object    { n := *c; return &n }
func (c *Circuit) String() string   { return c.CID }

// ProviderNetwork represents a provider network without physical location
type ProviderNetwork struct {
	Base
	Name     string `gorm:"size:100;not null" json:"name" validate:"required"`
	Provider string `gorm:"size:100" json:"provider" validate:"required"`
}

func (*ProviderNetwork) ObjectType() string { return constants.ObjectProviderNetwork }
func (n *ProviderNetwork) Clone() Object    { c := *n; return &c }
func (n *ProviderNetwork) String() string   { return n.Name }

// CircuitTermination is one side (A or Z) of a circuit, landing at a site or a provider network
type CircuitTermination struct {
	Base
	CabledComponent
	CircuitID         uint   `gorm:"index;not null" json:"circuit" validate:"required"`
	TermSide          string `gorm:"size:1;not null" json:"term_side" validate:"required,oneof=A Z"`
	SiteID            *uint  `gorm:"index" json:"site,omitempty"`
	ProviderNetworkID *uint  `gorm:"index" json:"provider_network,omitempty"`
}

func (*CircuitTermination) ObjectType() string { return constants.TerminationCircuit }
func (t *CircuitTermination) Clone() Object    { c := *t; return &c }

// Parent returns the circuit the termination belongs to
func (t *CircuitTermination) Parent() ObjectRef {
	return ObjectRef{Type: constants.ObjectCircuit, ID: t.CircuitID}
}

// Cable connects the A terminations to the B terminations
type Cable struct {
	Base
	Type       string   `gorm:"size:50" json:"type,omitempty"`
	Status     string   `gorm:"size:50" json:"status,omitempty"`
	Label      string   `gorm:"size:100" json:"label,omitempty"`
	Color      string   `gorm:"size:6" json:"color,omitempty"`
	Length     *float64 `json:"length,omitempty"`
	LengthUnit string   `gorm:"size:50" json:"length_unit,omitempty"`

	ATerminations []ObjectRef `gorm:"-" json:"a_terminations"`
	BTerminations []ObjectRef `gorm:"-" json:"b_terminations"`

	// set by MarkDeleted so a deleted cable still renders its former ID
	formerID uint
}

func (*Cable) ObjectType() string { return constants.ObjectCable }

func (c *Cable) Clone() Object {
	n := *c
	n.ATerminations = append([]ObjectRef(nil), c.ATerminations...)
	n.BTerminations = append([]ObjectRef(nil), c.BTerminations...)
	return &n
}

func (c *Cable) String() string {
	if c.Label != "" {
		return c.Label
	}
	id := c.ID
	if id == 0 {
		id = c.formerID
	}
	return fmt.Sprintf("#%d", id)
}

// MarkDeleted clears the primary key while remembering it for display
func (c *Cable) MarkDeleted() {
	if c.ID != 0 {
		c.formerID = c.ID
	}
	c.ID = 0
}

// Terminations returns the references on the given end
func (c *Cable) Terminations(end string) []ObjectRef {
	if end == constants.CableEndA {
		return c.ATerminations
	}
	return c.BTerminations
}

// CableTermination binds one termination to one end of a cable.
// Device, rack, location and site are cached from the termination's parent.
type CableTermination struct {
	Base
	CableID         uint   `gorm:"index;not null" json:"cable"`
	CableEnd        string `gorm:"size:1;not null" json:"cable_end"`
	TerminationType string `gorm:"size:100;not null;index:idx_termination" json:"termination_type"`
	TerminationID   uint   `gorm:"not null;index:idx_termination" json:"termination_id"`
	DeviceID        *uint  `gorm:"index" json:"device,omitempty"`
	RackID          *uint  `gorm:"index" json:"rack,omitempty"`
	LocationID      *uint  `gorm:"index" json:"location,omitempty"`
	SiteID          *uint  `gorm:"index" json:"site,omitempty"`
}

func (*CableTermination) ObjectType() string { return constants.ObjectCableTermination }
func (t *CableTermination) Clone() Object    { c := *t; return &c }

// Termination returns the reference to the terminating object
func (t *CableTermination) Termination() ObjectRef {
	return ObjectRef{Type: t.TerminationType, ID: t.TerminationID}
}
