package models

import "github.com/braunma/netbox-topology/internal/constants"

// Table names follow the NetBox schema so the store can sit next to an existing database dump.

func (Site) TableName() string               { return "dcim_site" }
func (Location) TableName() string           { return "dcim_location" }
func (Rack) TableName() string               { return "dcim_rack" }
func (RackReservation) TableName() string    { return "dcim_rackreservation" }
func (PowerPanel) TableName() string         { return "dcim_powerpanel" }
func (PowerFeed) TableName() string          { return "dcim_powerfeed" }
func (Cluster) TableName() string            { return "virtualization_cluster" }
func (DeviceType) TableName() string         { return "dcim_devicetype" }
func (ModuleType) TableName() string         { return "dcim_moduletype" }
func (Device) TableName() string             { return "dcim_device" }
func (ModuleBay) TableName() string          { return "dcim_modulebay" }
func (Module) TableName() string             { return "dcim_module" }
func (Interface) TableName() string          { return "dcim_interface" }
func (FrontPort) TableName() string          { return "dcim_frontport" }
func (RearPort) TableName() string           { return "dcim_rearport" }
func (PowerPort) TableName() string          { return "dcim_powerport" }
func (PowerOutlet) TableName() string        { return "dcim_poweroutlet" }
func (ConsolePort) TableName() string        { return "dcim_consoleport" }
func (ConsoleServerPort) TableName() string  { return "dcim_consoleserverport" }
func (Circuit) TableName() string            { return "circuits_circuit" }
func (ProviderNetwork) TableName() string    { return "circuits_providernetwork" }
func (CircuitTermination) TableName() string { return "circuits_circuittermination" }
func (Cable) TableName() string              { return "dcim_cable" }
func (CableTermination) TableName() string   { return "dcim_cabletermination" }
func (MACAddress) TableName() string         { return "dcim_macaddress" }

// All returns one zero value of every persisted model, in dependency order
func All() []Object {
	return []Object{
		&Site{},
		&Location{},
		&Rack{},
		&RackReservation{},
		&PowerPanel{},
		&PowerFeed{},
		&Cluster{},
		&DeviceType{},
		&ModuleType{},
		&Device{},
		&ModuleBay{},
		&Module{},
		&Interface{},
		&FrontPort{},
		&RearPort{},
		&PowerPort{},
		&PowerOutlet{},
		&ConsolePort{},
		&ConsoleServerPort{},
		&Circuit{},
		&ProviderNetwork{},
		&CircuitTermination{},
		&Cable{},
		&CableTermination{},
		&MACAddress{},
	}
}

// New returns an empty object of the given type
func New(objectType string) (Object, bool) {
	for _, obj := range All() {
		if obj.ObjectType() == objectType {
			return obj, true
		}
	}
	return nil, false
}

// NewTermination returns an empty termination of the given type.
// The set of termination kinds is closed; unknown types return false.
func NewTermination(terminationType string) (Termination, bool) {
	switch terminationType {
	case constants.TerminationInterface:
		return &Interface{}, true
	case constants.TerminationFrontPort:
		return &FrontPort{}, true
	case constants.TerminationRearPort:
		return &RearPort{}, true
	case constants.TerminationPowerPort:
		return &PowerPort{}, true
	case constants.TerminationPowerOutlet:
		return &PowerOutlet{}, true
	case constants.TerminationConsolePort:
		return &ConsolePort{}, true
	case constants.TerminationConsoleServerPort:
		return &ConsoleServerPort{}, true
	case constants.TerminationPowerFeed:
		return &PowerFeed{}, true
	case constants.TerminationCircuit:
		return &CircuitTermination{}, true
	}
	return nil, false
}
