package kernel

import (
	"fmt"

	"github.com/deploymenttheory/go-vboot/internal/interfaces"
)

// Entry is one A/B boot candidate: the kernel blob plus the boot
// attributes read from (and partially written back to) the partition
// table. The engine mutates only the in-memory fields it is handed.
type Entry struct {
	Blob []byte

	BootPriority       int
	BootTriesRemaining int
	BootSuccessFlag    bool
}

// eligible reports whether the candidate may be attempted at all.
func (e *Entry) eligible() bool {
	return e.BootSuccessFlag || e.BootTriesRemaining > 0
}

// BootTarget is the outcome of the A/B selection policy. Recovery is a
// distinct sentinel, never conflated with either kernel slot.
type BootTarget int

const (
	BootRecovery BootTarget = iota
	BootKernelA
	BootKernelB
)

func (t BootTarget) String() string {
	switch t {
	case BootKernelA:
		return "kernel A"
	case BootKernelB:
		return "kernel B"
	default:
		return "recovery"
	}
}

// VerifyKernelDriver decides which of two candidate kernels to boot:
// candidates are attempted in descending boot priority (a tie favors
// kernel A), an attempted candidate must verify and must not be older
// than the rollback floor, and the floor is ratcheted upward only once
// both kernels are confirmed good. Candidates not selected have their
// boot priority reset to zero. Both counter slots are locked before
// returning, whatever the outcome.
//
// The returned error reports counter store failures; the BootTarget is
// valid either way (a store read failure forces recovery).
func (v *Verifier) VerifyKernelDriver(firmwareKeyBlob []byte, kernelA, kernelB *Entry, devMode bool, store interfaces.CounterStore) (BootTarget, error) {
	lversionA := GetLogicalKernelVersion(kernelA.Blob)
	lversionB := GetLogicalKernelVersion(kernelB.Blob)
	minVersion := lversionA
	if lversionB < minVersion {
		minVersion = lversionB
	}

	storedKey, keyErr := store.Read(interfaces.KernelKeyVersionSlot)
	storedKernel, kernErr := store.Read(interfaces.KernelVersionSlot)
	if keyErr != nil || kernErr != nil {
		lockErr := lockCounters(store)
		err := keyErr
		if err == nil {
			err = kernErr
		}
		if lockErr != nil {
			err = fmt.Errorf("%w (lock: %v)", err, lockErr)
		}
		return BootRecovery, fmt.Errorf("reading rollback counters: %w", err)
	}
	stored := uint32(storedKey)<<16 | uint32(storedKernel)

	try := [2]*Entry{kernelA, kernelB}
	which := [2]BootTarget{BootKernelA, BootKernelB}
	lversion := [2]uint32{lversionA, lversionB}
	if kernelA.BootPriority < kernelB.BootPriority {
		try[0], try[1] = kernelB, kernelA
		which[0], which[1] = BootKernelB, BootKernelA
		lversion[0], lversion[1] = lversionB, lversionA
	}

	target := BootRecovery
	var storeErr error

	for i := 0; i < 2; i++ {
		if !try[i].eligible() {
			continue
		}
		if v.VerifyKernel(firmwareKeyBlob, try[i].Blob, devMode) != nil {
			continue
		}
		if try[i].BootTriesRemaining > 0 {
			try[i].BootTriesRemaining--
		}
		if stored > lversion[i] {
			// Verified but older than the floor: a rollback attempt.
			continue
		}
		if i == 0 && stored < lversion[1] {
			// The higher-priority kernel is good; if the other one is
			// too, raise the floor to the minimum of both versions.
			if v.VerifyKernel(firmwareKeyBlob, try[1].Blob, devMode) == nil {
				if err := writeVersion(store, minVersion); err != nil {
					storeErr = fmt.Errorf("raising rollback floor: %w", err)
				} else {
					stored = minVersion
				}
			}
		}
		target = which[i]
		break
	}

	// Demote everything that was not selected.
	for i := 0; i < 2; i++ {
		if which[i] != target {
			try[i].BootPriority = 0
		}
	}

	if err := lockCounters(store); err != nil && storeErr == nil {
		storeErr = fmt.Errorf("locking rollback counters: %w", err)
	}
	return target, storeErr
}

func writeVersion(store interfaces.CounterStore, lversion uint32) error {
	if err := store.Write(interfaces.KernelKeyVersionSlot, uint16(lversion>>16)); err != nil {
		return err
	}
	return store.Write(interfaces.KernelVersionSlot, uint16(lversion&0xFFFF))
}

func lockCounters(store interfaces.CounterStore) error {
	if err := store.Lock(interfaces.KernelKeyVersionSlot); err != nil {
		return err
	}
	return store.Lock(interfaces.KernelVersionSlot)
}
