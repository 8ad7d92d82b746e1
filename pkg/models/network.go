package models

import (
	"strings"

	"github.com/braunma/netbox-topology/internal/constants"
)

// MACAddress represents a MAC address optionally assigned to an interface
type MACAddress struct {
	Base
	MACAddress         string `gorm:"size:17;index;not null" json:"mac_address" validate:"required,mac"`
	AssignedObjectType string `gorm:"size:100" json:"assigned_object_type,omitempty"`
	AssignedObjectID   *uint  `gorm:"index" json:"assigned_object_id,omitempty"`
	Description        string `gorm:"size:200" json:"description,omitempty"`
}

func (*MACAddress) ObjectType() string { return constants.ObjectMACAddress }
func (m *MACAddress) Clone() Object    { c := *m; return &c }
func (m *MACAddress) String() string   { return m.MACAddress }

// AssignedObject returns the assignment, or nil when unassigned
func (m *MACAddress) AssignedObject() *ObjectRef {
	if m.AssignedObjectType == "" || m.AssignedObjectID == nil {
		return nil
	}
	return &ObjectRef{Type: m.AssignedObjectType, ID: *m.AssignedObjectID}
}

// Assign points the MAC at a new object; a nil ref clears the assignment
func (m *MACAddress) Assign(ref *ObjectRef) {
	if ref == nil {
		m.AssignedObjectType = ""
		m.AssignedObjectID = nil
		return
	}
	m.AssignedObjectType = ref.Type
	m.AssignedObjectID = UintPtr(ref.ID)
}

// NormalizeMAC converts a MAC address to colon-separated upper case (e.g. 12:34:56:78:90:AB)
func NormalizeMAC(mac string) string {
	hex := strings.NewReplacer(":", "", "-", "", ".", "").Replace(strings.TrimSpace(mac))
	hex = strings.ToUpper(hex)
	if len(hex) != 12 {
		return strings.ToUpper(strings.TrimSpace(mac))
	}
	parts := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		parts = append(parts, hex[i:i+2])
	}
	return strings.Join(parts, ":")
}
