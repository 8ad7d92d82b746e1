package store

import (
	"context"
	"sync"

	"github.com/braunma/netbox-topology/pkg/models"
	"github.com/braunma/netbox-topology/pkg/topology"
)

// MemoryStore keeps the inventory in memory. Every unit of work runs on a private copy
// under one mutex and replaces the committed inventory only on success, so a committed
// inventory is never modified and can be read without the lock.
type MemoryStore struct {
	mu     sync.Mutex
	inv    *topology.Inventory
	nextID map[string]uint
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreFrom(topology.NewInventory())
}

// NewMemoryStoreFrom creates a store seeded with an existing inventory
func NewMemoryStoreFrom(inv *topology.Inventory) *MemoryStore {
	return &MemoryStore{
		inv:    inv.Clone(),
		nextID: make(map[string]uint),
	}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx topology.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{inv: s.inv.Clone(), nextID: make(map[string]uint, len(s.nextID))}
	for k, v := range s.nextID {
		tx.nextID[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.inv = tx.inv
	s.nextID = tx.nextID
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(inv *topology.Inventory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	inv := s.inv
	s.mu.Unlock()
	return fn(inv)
}

func (s *MemoryStore) Close() error {
	return nil
}

type memoryTx struct {
	inv    *topology.Inventory
	nextID map[string]uint
}

func (t *memoryTx) Inventory() *topology.Inventory {
	return t.inv
}

func (t *memoryTx) Create(obj models.Object) error {
	typ := obj.ObjectType()
	id := t.nextID[typ]
	if maxID := t.inv.MaxID(typ); maxID > id {
		id = maxID
	}
	id++
	t.nextID[typ] = id
	obj.SetID(id)
	t.inv.Put(obj.Clone())
	return nil
}

func (t *memoryTx) Save(obj models.Object) error {
	t.inv.Put(obj.Clone())
	return nil
}

func (t *memoryTx) Delete(obj models.Object) error {
	t.inv.Remove(obj)
	return nil
}
