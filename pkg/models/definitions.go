package models

import "github.com/braunma/netbox-topology/pkg/utils"

// The *Config types are the YAML definitions the loader reads. They reference each other
// by slug or name; the reconciler resolves those into IDs.

// SiteConfig represents a site definition
type SiteConfig struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Slug        string `yaml:"slug" json:"slug" validate:"required"`
	Status      string `yaml:"status,omitempty" json:"status,omitempty"`
	TimeZone    string `yaml:"time_zone,omitempty" json:"time_zone,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// LocationConfig represents a location definition
type LocationConfig struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Slug        string `yaml:"slug" json:"slug" validate:"required"`
	SiteSlug    string `yaml:"site_slug" json:"site_slug" validate:"required"`
	ParentSlug  string `yaml:"parent_slug,omitempty" json:"parent_slug,omitempty"`
	Status      string `yaml:"status,omitempty" json:"status,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ReservationConfig represents units reserved in a rack
type ReservationConfig struct {
	Units       []int  `yaml:"units" json:"units" validate:"required,min=1,dive,min=1"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// RackConfig represents a rack definition
type RackConfig struct {
	Name         string              `yaml:"name" json:"name" validate:"required"`
	Slug         string              `yaml:"slug,omitempty" json:"slug,omitempty"`
	SiteSlug     string              `yaml:"site_slug" json:"site_slug" validate:"required"`
	LocationSlug string              `yaml:"location_slug,omitempty" json:"location_slug,omitempty"`
	Status       string              `yaml:"status,omitempty" json:"status,omitempty"`
	Width        int                 `yaml:"width,omitempty" json:"width,omitempty"`
	UHeight      int                 `yaml:"u_height,omitempty" json:"u_height,omitempty" validate:"omitempty,min=1,max=100"`
	StartingUnit int                 `yaml:"starting_unit,omitempty" json:"starting_unit,omitempty" validate:"omitempty,min=1"`
	DescUnits    bool                `yaml:"desc_units,omitempty" json:"desc_units,omitempty"`
	Description  string              `yaml:"description,omitempty" json:"description,omitempty"`
	Reservations []ReservationConfig `yaml:"reservations,omitempty" json:"reservations,omitempty" validate:"dive"`
}

// RackSlug returns the configured slug, or one derived from the name
func (r *RackConfig) RackSlug() string {
	if r.Slug != "" {
		return r.Slug
	}
	return utils.Slugify(r.Name)
}

// PowerFeedConfig represents a feed leaving a power panel
type PowerFeedConfig struct {
	Name     string      `yaml:"name" json:"name" validate:"required"`
	RackSlug string      `yaml:"rack_slug,omitempty" json:"rack_slug,omitempty"`
	Link     *LinkConfig `yaml:"link,omitempty" json:"link,omitempty"`
}

// PowerPanelConfig represents a power panel definition
type PowerPanelConfig struct {
	Name         string            `yaml:"name" json:"name" validate:"required"`
	SiteSlug     string            `yaml:"site_slug" json:"site_slug" validate:"required"`
	LocationSlug string            `yaml:"location_slug,omitempty" json:"location_slug,omitempty"`
	Feeds        []PowerFeedConfig `yaml:"feeds,omitempty" json:"feeds,omitempty" validate:"dive"`
}

// ClusterConfig represents a cluster definition
type ClusterConfig struct {
	Name         string `yaml:"name" json:"name" validate:"required"`
	SiteSlug     string `yaml:"site_slug,omitempty" json:"site_slug,omitempty"`
	LocationSlug string `yaml:"location_slug,omitempty" json:"location_slug,omitempty"`
}

// DeviceTypeConfig represents a device type definition
type DeviceTypeConfig struct {
	Model                  string  `yaml:"model" json:"model" validate:"required"`
	Slug                   string  `yaml:"slug" json:"slug" validate:"required"`
	Manufacturer           string  `yaml:"manufacturer" json:"manufacturer" validate:"required"`
	UHeight                float64 `yaml:"u_height" json:"u_height" validate:"min=0,max=100"`
	IsFullDepth            *bool   `yaml:"is_full_depth,omitempty" json:"is_full_depth,omitempty"`
	ExcludeFromUtilization bool    `yaml:"exclude_from_utilization,omitempty" json:"exclude_from_utilization,omitempty"`
	SubdeviceRole          string  `yaml:"subdevice_role,omitempty" json:"subdevice_role,omitempty" validate:"omitempty,oneof=parent child"`

	ComponentTemplates `yaml:",inline"`
}

// FullDepth reports the depth, defaulting to full depth when unset
func (dt *DeviceTypeConfig) FullDepth() bool {
	return dt.IsFullDepth == nil || *dt.IsFullDepth
}

// ModuleTypeConfig represents a blueprint for a module (e.g., NVIDIA H200)
type ModuleTypeConfig struct {
	Model        string `yaml:"model" json:"model" validate:"required"`
	Slug         string `yaml:"slug" json:"slug" validate:"required"`
	Manufacturer string `yaml:"manufacturer" json:"manufacturer" validate:"required"`
}

// LinkConfig represents a cable connection definition.
// The peer is a device port, or a circuit termination when PeerCircuit is set.
type LinkConfig struct {
	PeerDevice   string   `yaml:"peer_device,omitempty" json:"peer_device,omitempty" validate:"required_without=PeerCircuit"`
	PeerPort     string   `yaml:"peer_port,omitempty" json:"peer_port,omitempty" validate:"required_with=PeerDevice"`
	PeerType     string   `yaml:"peer_type,omitempty" json:"peer_type,omitempty"`
	PeerCircuit  string   `yaml:"peer_circuit,omitempty" json:"peer_circuit,omitempty"`
	PeerTermSide string   `yaml:"peer_term_side,omitempty" json:"peer_term_side,omitempty" validate:"omitempty,oneof=A Z"`
	CableType    string   `yaml:"cable_type,omitempty" json:"cable_type,omitempty"`
	Color        string   `yaml:"color,omitempty" json:"color,omitempty"`
	Label        string   `yaml:"label,omitempty" json:"label,omitempty"`
	Length       *float64 `yaml:"length,omitempty" json:"length,omitempty"`
	LengthUnit   string   `yaml:"length_unit,omitempty" json:"length_unit,omitempty"`
}

// CircuitTerminationConfig represents one side of a circuit
type CircuitTerminationConfig struct {
	TermSide        string      `yaml:"term_side" json:"term_side" validate:"required,oneof=A Z"`
	SiteSlug        string      `yaml:"site_slug,omitempty" json:"site_slug,omitempty"`
	ProviderNetwork string      `yaml:"provider_network,omitempty" json:"provider_network,omitempty"`
	Link            *LinkConfig `yaml:"link,omitempty" json:"link,omitempty"`
}

// CircuitConfig represents a provider circuit
type CircuitConfig struct {
	CID          string                     `yaml:"cid" json:"cid" validate:"required"`
	Provider     string                     `yaml:"provider" json:"provider" validate:"required"`
	Terminations []CircuitTerminationConfig `yaml:"terminations,omitempty" json:"terminations,omitempty" validate:"dive"`
}

// InterfaceConfig represents an interface on a concrete device
type InterfaceConfig struct {
	Name          string      `yaml:"name" json:"name" validate:"required"`
	Type          string      `yaml:"type" json:"type" validate:"required"`
	Module        string      `yaml:"module,omitempty" json:"module,omitempty"`
	Enabled       *bool       `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	MgmtOnly      bool        `yaml:"mgmt_only,omitempty" json:"mgmt_only,omitempty"`
	MarkConnected bool        `yaml:"mark_connected,omitempty" json:"mark_connected,omitempty"`
	MACAddresses  []string    `yaml:"mac_addresses,omitempty" json:"mac_addresses,omitempty" validate:"dive,mac"`
	PrimaryMAC    string      `yaml:"primary_mac,omitempty" json:"primary_mac,omitempty" validate:"omitempty,mac"`
	Link          *LinkConfig `yaml:"link,omitempty" json:"link,omitempty"`
}

// IsEnabled reports whether the interface is enabled, defaulting to true when unset
func (i *InterfaceConfig) IsEnabled() bool {
	return i.Enabled == nil || *i.Enabled
}

// RearPortConfig represents a rear port configuration (Backbone)
type RearPortConfig struct {
	Name      string      `yaml:"name" json:"name" validate:"required"`
	Type      string      `yaml:"type" json:"type" validate:"required"`
	Positions int         `yaml:"positions,omitempty" json:"positions,omitempty" validate:"omitempty,min=1,max=1024"`
	Module    string      `yaml:"module,omitempty" json:"module,omitempty"`
	Link      *LinkConfig `yaml:"link,omitempty" json:"link,omitempty"`
}

// FrontPortConfig represents a front port configuration (Patch)
type FrontPortConfig struct {
	Name             string      `yaml:"name" json:"name" validate:"required"`
	Type             string      `yaml:"type" json:"type" validate:"required"`
	RearPort         string      `yaml:"rear_port" json:"rear_port" validate:"required"`
	RearPortPosition int         `yaml:"rear_port_position,omitempty" json:"rear_port_position,omitempty" validate:"omitempty,min=1"`
	Module           string      `yaml:"module,omitempty" json:"module,omitempty"`
	Link             *LinkConfig `yaml:"link,omitempty" json:"link,omitempty"`
}

// PowerPortConfig represents a power inlet
type PowerPortConfig struct {
	Name          string      `yaml:"name" json:"name" validate:"required"`
	MaximumDraw   int         `yaml:"maximum_draw,omitempty" json:"maximum_draw,omitempty"`
	AllocatedDraw int         `yaml:"allocated_draw,omitempty" json:"allocated_draw,omitempty"`
	Link          *LinkConfig `yaml:"link,omitempty" json:"link,omitempty"`
}

// PowerOutletConfig represents a power outlet
type PowerOutletConfig struct {
	Name      string      `yaml:"name" json:"name" validate:"required"`
	PowerPort string      `yaml:"power_port,omitempty" json:"power_port,omitempty"`
	FeedLeg   string      `yaml:"feed_leg,omitempty" json:"feed_leg,omitempty" validate:"omitempty,oneof=A B C"`
	Link      *LinkConfig `yaml:"link,omitempty" json:"link,omitempty"`
}

// ConsolePortConfig represents a console or console server port
type ConsolePortConfig struct {
	Name string      `yaml:"name" json:"name" validate:"required"`
	Link *LinkConfig `yaml:"link,omitempty" json:"link,omitempty"`
}

// ModuleBayConfig represents a module bay (e.g., for GPUs)
type ModuleBayConfig struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Label    string `yaml:"label,omitempty" json:"label,omitempty"`
	Position string `yaml:"position,omitempty" json:"position,omitempty"`
}

// ModuleConfig represents a module installed in a bay. Bays listed under the module are provided by it.
type ModuleConfig struct {
	Bay            string            `yaml:"bay" json:"bay" validate:"required"`
	ModuleTypeSlug string            `yaml:"module_type_slug" json:"module_type_slug" validate:"required"`
	Status         string            `yaml:"status,omitempty" json:"status,omitempty"`
	Serial         string            `yaml:"serial,omitempty" json:"serial,omitempty"`
	ModuleBays     []ModuleBayConfig `yaml:"module_bays,omitempty" json:"module_bays,omitempty" validate:"dive"`
}

// DeviceConfig represents a device configuration (concrete device)
type DeviceConfig struct {
	Name               string              `yaml:"name" json:"name" validate:"required"`
	SiteSlug           string              `yaml:"site_slug" json:"site_slug" validate:"required"`
	LocationSlug       string              `yaml:"location_slug,omitempty" json:"location_slug,omitempty"`
	DeviceTypeSlug     string              `yaml:"device_type_slug" json:"device_type_slug" validate:"required"`
	RackSlug           string              `yaml:"rack_slug,omitempty" json:"rack_slug,omitempty"`
	Position           *float64            `yaml:"position,omitempty" json:"position,omitempty" validate:"omitempty,gt=0"`
	Face               string              `yaml:"face,omitempty" json:"face,omitempty" validate:"omitempty,oneof=front rear"`
	Cluster            string              `yaml:"cluster,omitempty" json:"cluster,omitempty"`
	Status             string              `yaml:"status,omitempty" json:"status,omitempty"`
	Serial             string              `yaml:"serial,omitempty" json:"serial,omitempty"`
	ModuleBays         []ModuleBayConfig   `yaml:"module_bays,omitempty" json:"module_bays,omitempty" validate:"dive"`
	Modules            []ModuleConfig      `yaml:"modules,omitempty" json:"modules,omitempty" validate:"dive"`
	Interfaces         []InterfaceConfig   `yaml:"interfaces,omitempty" json:"interfaces,omitempty" validate:"dive"`
	RearPorts          []RearPortConfig    `yaml:"rear_ports,omitempty" json:"rear_ports,omitempty" validate:"dive"`
	FrontPorts         []FrontPortConfig   `yaml:"front_ports,omitempty" json:"front_ports,omitempty" validate:"dive"`
	PowerPorts         []PowerPortConfig   `yaml:"power_ports,omitempty" json:"power_ports,omitempty" validate:"dive"`
	PowerOutlets       []PowerOutletConfig `yaml:"power_outlets,omitempty" json:"power_outlets,omitempty" validate:"dive"`
	ConsolePorts       []ConsolePortConfig `yaml:"console_ports,omitempty" json:"console_ports,omitempty" validate:"dive"`
	ConsoleServerPorts []ConsolePortConfig `yaml:"console_server_ports,omitempty" json:"console_server_ports,omitempty" validate:"dive"`
}

// Slug generates a slug from the device name
func (d *DeviceConfig) Slug() string {
	return utils.Slugify(d.Name)
}
