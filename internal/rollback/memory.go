// Package rollback provides the rollback-protected counter stores the
// kernel verification engine writes its minimum-version floor to: an
// in-memory store for tests and host-side tooling, and a TPM 2.0
// NV-index-backed store for real hardware.
package rollback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/deploymenttheory/go-vboot/internal/interfaces"
)

// ErrSlotLocked reports a write to a slot already locked for the session.
var ErrSlotLocked = errors.New("rollback: slot is locked")

// MemoryStore is an in-memory CounterStore. Unwritten slots read as 0.
type MemoryStore struct {
	mu     sync.Mutex
	values map[interfaces.CounterSlot]uint16
	locked map[interfaces.CounterSlot]bool
}

// NewMemoryStore returns an empty, unlocked in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[interfaces.CounterSlot]uint16),
		locked: make(map[interfaces.CounterSlot]bool),
	}
}

// Read returns the stored value for a slot, 0 if never written.
func (s *MemoryStore) Read(slot interfaces.CounterSlot) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[slot], nil
}

// Write stores a value for a slot; writing to a locked slot fails.
func (s *MemoryStore) Write(slot interfaces.CounterSlot, value uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked[slot] {
		return fmt.Errorf("%w: slot %d", ErrSlotLocked, slot)
	}
	s.values[slot] = value
	return nil
}

// Lock prevents further writes to a slot. Idempotent.
func (s *MemoryStore) Lock(slot interfaces.CounterSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked[slot] = true
	return nil
}

// Locked reports whether a slot has been locked. Test helper.
func (s *MemoryStore) Locked(slot interfaces.CounterSlot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked[slot]
}
