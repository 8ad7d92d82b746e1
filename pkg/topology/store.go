package topology

import (
	"context"

	"github.com/braunma/netbox-topology/pkg/models"
)

// Tx is one atomic unit of work. Inventory reflects every write made through the Tx.
type Tx interface {
	Inventory() *Inventory
	// Create assigns a new ID to obj and persists it
	Create(obj models.Object) error
	Save(obj models.Object) error
	Delete(obj models.Object) error
}

// Store persists inventories
type Store interface {
	// Atomic runs fn in a unit of work. Nothing is persisted if fn returns an error.
	// Units of work that may place devices in racks are serialized.
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against a read-only snapshot
	View(ctx context.Context, fn func(inv *Inventory) error) error
	Close() error
}
