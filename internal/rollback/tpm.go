package rollback

import (
	"encoding/binary"
	"fmt"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"

	"github.com/deploymenttheory/go-vboot/internal/interfaces"
)

// NV index handles backing the two version counters. The indices must be
// pre-defined with empty auth; provisioning is outside this package.
const (
	nvIndexKernelKeyVersion = 0x01001008
	nvIndexKernelVersion    = 0x01001009
)

// TPMStore is a CounterStore backed by two TPM 2.0 NV indices. Lock uses
// TPM2_NV_WriteLock, which holds until the next TPM reset, giving the
// per-boot-session write lock the engine requires.
type TPMStore struct {
	tpm     transport.TPM
	indices map[interfaces.CounterSlot]tpm2.TPMHandle
}

// NewTPMStore returns a counter store over an open TPM connection. The
// caller owns the connection's lifetime.
func NewTPMStore(tpm transport.TPM) *TPMStore {
	return &TPMStore{
		tpm: tpm,
		indices: map[interfaces.CounterSlot]tpm2.TPMHandle{
			interfaces.KernelKeyVersionSlot: nvIndexKernelKeyVersion,
			interfaces.KernelVersionSlot:    nvIndexKernelVersion,
		},
	}
}

func (s *TPMStore) handle(slot interfaces.CounterSlot) (tpm2.TPMHandle, error) {
	h, ok := s.indices[slot]
	if !ok {
		return 0, fmt.Errorf("rollback: unknown counter slot %d", slot)
	}
	return h, nil
}

// name fetches the NV index name required to authorize NV commands.
func (s *TPMStore) name(h tpm2.TPMHandle) (tpm2.TPM2BName, error) {
	rsp, err := tpm2.NVReadPublic{NVIndex: h}.Execute(s.tpm)
	if err != nil {
		return tpm2.TPM2BName{}, fmt.Errorf("rollback: NV_ReadPublic 0x%x: %w", h, err)
	}
	return rsp.NVName, nil
}

// Read returns the 16-bit counter stored in the slot's NV index.
func (s *TPMStore) Read(slot interfaces.CounterSlot) (uint16, error) {
	h, err := s.handle(slot)
	if err != nil {
		return 0, err
	}
	name, err := s.name(h)
	if err != nil {
		return 0, err
	}

	rsp, err := tpm2.NVRead{
		AuthHandle: tpm2.AuthHandle{Handle: h, Name: name, Auth: tpm2.PasswordAuth(nil)},
		NVIndex:    tpm2.NamedHandle{Handle: h, Name: name},
		Size:       2,
	}.Execute(s.tpm)
	if err != nil {
		return 0, fmt.Errorf("rollback: NV_Read 0x%x: %w", h, err)
	}
	if len(rsp.Data.Buffer) != 2 {
		return 0, fmt.Errorf("rollback: NV_Read 0x%x returned %d bytes", h, len(rsp.Data.Buffer))
	}
	return binary.LittleEndian.Uint16(rsp.Data.Buffer), nil
}

// Write stores a 16-bit counter in the slot's NV index.
func (s *TPMStore) Write(slot interfaces.CounterSlot, value uint16) error {
	h, err := s.handle(slot)
	if err != nil {
		return err
	}
	name, err := s.name(h)
	if err != nil {
		return err
	}

	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, value)

	_, err = tpm2.NVWrite{
		AuthHandle: tpm2.AuthHandle{Handle: h, Name: name, Auth: tpm2.PasswordAuth(nil)},
		NVIndex:    tpm2.NamedHandle{Handle: h, Name: name},
		Data:       tpm2.TPM2BMaxNVBuffer{Buffer: buf},
		Offset:     0,
	}.Execute(s.tpm)
	if err != nil {
		return fmt.Errorf("rollback: NV_Write 0x%x: %w", h, err)
	}
	return nil
}

// Lock write-locks the slot's NV index until the next TPM reset.
// Locking an already-locked index succeeds.
func (s *TPMStore) Lock(slot interfaces.CounterSlot) error {
	h, err := s.handle(slot)
	if err != nil {
		return err
	}
	name, err := s.name(h)
	if err != nil {
		return err
	}

	_, err = tpm2.NVWriteLock{
		AuthHandle: tpm2.AuthHandle{Handle: h, Name: name, Auth: tpm2.PasswordAuth(nil)},
		NVIndex:    tpm2.NamedHandle{Handle: h, Name: name},
	}.Execute(s.tpm)
	if err != nil {
		return fmt.Errorf("rollback: NV_WriteLock 0x%x: %w", h, err)
	}
	return nil
}
