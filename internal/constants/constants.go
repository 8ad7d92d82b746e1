package constants

// Object types
const (
	ObjectSite               = "dcim.site"
	ObjectLocation           = "dcim.location"
	ObjectRack               = "dcim.rack"
	ObjectRackReservation    = "dcim.rackreservation"
	ObjectPowerPanel         = "dcim.powerpanel"
	ObjectPowerFeed          = "dcim.powerfeed"
	ObjectCluster            = "virtualization.cluster"
	ObjectDeviceType         = "dcim.devicetype"
	ObjectModuleType         = "dcim.moduletype"
	ObjectDevice             = "dcim.device"
	ObjectModuleBay          = "dcim.modulebay"
	ObjectModule             = "dcim.module"
	ObjectCable              = "dcim.cable"
	ObjectCableTermination   = "dcim.cabletermination"
	ObjectMACAddress         = "dcim.macaddress"
	ObjectCircuit            = "circuits.circuit"
	ObjectProviderNetwork    = "circuits.providernetwork"
	ObjectCircuitTermination = "circuits.circuittermination"
)

// Termination types
const (
	TerminationInterface         = "dcim.interface"
	TerminationFrontPort         = "dcim.frontport"
	TerminationRearPort          = "dcim.rearport"
	TerminationPowerPort         = "dcim.powerport"
	TerminationPowerOutlet       = "dcim.poweroutlet"
	TerminationConsolePort       = "dcim.consoleport"
	TerminationConsoleServerPort = "dcim.consoleserverport"
	TerminationPowerFeed         = ObjectPowerFeed
	TerminationCircuit           = ObjectCircuitTermination
)

// Endpoints
const (
	EndpointInterfaces         = "interfaces"
	EndpointFrontPorts         = "front_ports"
	EndpointRearPorts          = "rear_ports"
	EndpointPowerPorts         = "power_ports"
	EndpointPowerOutlets       = "power_outlets"
	EndpointConsolePorts       = "console_ports"
	EndpointConsoleServerPorts = "console_server_ports"
	EndpointModules            = "modules"
	EndpointCables             = "cables"
)

// Rack faces
const (
	FaceFront = "front"
	FaceRear  = "rear"
)

// Cable ends
const (
	CableEndA = "A"
	CableEndB = "B"
)

// Subdevice roles
const (
	SubdeviceParent = "parent"
	SubdeviceChild  = "child"
)

// Default values
const (
	DefaultCableType    = "cat6a"
	DefaultCableStatus  = "connected"
	DefaultLengthUnit   = "m"
	DefaultStartingUnit = 1
	DefaultRackHeight   = 42
)

// NonFieldErrors collects validation messages not bound to a single field.
const NonFieldErrors = "__all__"

// CompatibleTerminationTypes lists, per termination type, the types it may be cabled to.
var CompatibleTerminationTypes = map[string][]string{
	TerminationCircuit: {
		TerminationInterface, TerminationFrontPort, TerminationRearPort, TerminationCircuit,
	},
	TerminationConsolePort: {
		TerminationConsoleServerPort, TerminationFrontPort, TerminationRearPort,
	},
	TerminationConsoleServerPort: {
		TerminationConsolePort, TerminationFrontPort, TerminationRearPort,
	},
	TerminationInterface: {
		TerminationCircuit, TerminationInterface, TerminationFrontPort, TerminationRearPort,
	},
	TerminationFrontPort: {
		TerminationCircuit, TerminationConsolePort, TerminationConsoleServerPort, TerminationInterface,
		TerminationFrontPort, TerminationRearPort, TerminationPowerPort, TerminationPowerOutlet,
	},
	TerminationRearPort: {
		TerminationCircuit, TerminationConsolePort, TerminationConsoleServerPort, TerminationInterface,
		TerminationFrontPort, TerminationRearPort, TerminationPowerPort, TerminationPowerOutlet,
	},
	TerminationPowerFeed: {
		TerminationPowerPort,
	},
	TerminationPowerOutlet: {
		TerminationPowerPort, TerminationFrontPort, TerminationRearPort,
	},
	TerminationPowerPort: {
		TerminationPowerOutlet, TerminationPowerFeed, TerminationFrontPort, TerminationRearPort,
	},
}

// Interface types that never carry a physical cable
var VirtualInterfaceTypes = []string{
	"virtual",
	"bridge",
	"lag",
}

var WirelessInterfaceTypes = []string{
	"ieee802.11a",
	"ieee802.11g",
	"ieee802.11n",
	"ieee802.11ac",
	"ieee802.11ad",
	"ieee802.11ax",
	"ieee802.11ay",
	"ieee802.11be",
	"ieee802.15.1",
	"other-wireless",
}

var CellularInterfaceTypes = []string{
	"gsm",
	"cdma",
	"lte",
	"4g",
	"5g",
}

// InterfaceTypeLabels holds display names for the non-connectable interface types
var InterfaceTypeLabels = map[string]string{
	"virtual":        "Virtual",
	"bridge":         "Bridge",
	"lag":            "Link Aggregation Group (LAG)",
	"ieee802.11a":    "IEEE 802.11a",
	"ieee802.11g":    "IEEE 802.11b/g",
	"ieee802.11n":    "IEEE 802.11n",
	"ieee802.11ac":   "IEEE 802.11ac",
	"ieee802.11ad":   "IEEE 802.11ad",
	"ieee802.11ax":   "IEEE 802.11ax",
	"ieee802.11ay":   "IEEE 802.11ay",
	"ieee802.11be":   "IEEE 802.11be",
	"ieee802.15.1":   "IEEE 802.15.1 (Bluetooth)",
	"other-wireless": "Other (Wireless)",
	"gsm":            "GSM",
	"cdma":           "CDMA",
	"lte":            "LTE",
	"4g":             "4G",
	"5g":             "5G",
}

// Cable color map
var CableColorMap = map[string]string{
	"cat6":  "f44336",
	"cat6a": "ffeb3b",
	"cat7":  "ff9800",
	"dac":   "000000",
	"fiber": "00bcd4",
	"om3":   "00bcd4",
	"om4":   "2196f3",
	"os2":   "9c27b0",
}
