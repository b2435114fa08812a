package device

import "fmt"

// MemoryDevice is a BlockDevice over a byte slice, used by tests and
// dry-run tooling.
type MemoryDevice struct {
	data []byte
}

// NewMemoryDevice returns a zero-filled device of the given size.
func NewMemoryDevice(size uint64) *MemoryDevice {
	return &MemoryDevice{data: make([]byte, size)}
}

// FromBytes wraps an existing buffer; writes mutate the buffer.
func FromBytes(data []byte) *MemoryDevice {
	return &MemoryDevice{data: data}
}

// Bytes exposes the underlying buffer.
func (d *MemoryDevice) Bytes() []byte {
	return d.data
}

// ReadBytes reads length bytes at the given byte offset. The guard is
// written in subtraction form: offset+length can wrap.
func (d *MemoryDevice) ReadBytes(offset, length uint64) ([]byte, error) {
	size := uint64(len(d.data))
	if length > size || offset > size-length {
		return nil, fmt.Errorf("read [%d,+%d) beyond device size %d", offset, length, size)
	}
	buf := make([]byte, length)
	copy(buf, d.data[offset:offset+length])
	return buf, nil
}

// WriteBytes writes data at the given byte offset.
func (d *MemoryDevice) WriteBytes(offset uint64, data []byte) error {
	size := uint64(len(d.data))
	if uint64(len(data)) > size || offset > size-uint64(len(data)) {
		return fmt.Errorf("write [%d,+%d) beyond device size %d", offset, len(data), size)
	}
	copy(d.data[offset:], data)
	return nil
}

// TotalSize returns the device size in bytes.
func (d *MemoryDevice) TotalSize() uint64 {
	return uint64(len(d.data))
}

// Close is a no-op for a memory device.
func (d *MemoryDevice) Close() error {
	return nil
}
