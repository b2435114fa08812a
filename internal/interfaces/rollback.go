package interfaces

// CounterSlot identifies one rollback-protected version counter.
type CounterSlot int

const (
	// KernelKeyVersionSlot stores the minimum accepted kernel key version.
	KernelKeyVersionSlot CounterSlot = iota

	// KernelVersionSlot stores the minimum accepted kernel version.
	KernelVersionSlot
)

// CounterStore is the tamper-resistant counter contract the kernel
// verification engine depends on. It is the store's responsibility to
// make the write+lock sequence durable before returning.
type CounterStore interface {
	// Read returns the stored value for a slot.
	Read(slot CounterSlot) (uint16, error)

	// Write stores a value for a slot. Writing to a locked slot fails.
	Write(slot CounterSlot, value uint16) error

	// Lock prevents further writes to a slot for the rest of the boot
	// session. Locking an already-locked slot is not an error.
	Lock(slot CounterSlot) error
}
