package interfaces

import "io"

// BlockDevice is the narrow storage contract the partition engine depends
// on. Implementations back it with an image file or memory; the engine
// never assumes atomicity across multiple writes.
type BlockDevice interface {
	// ReadBytes reads length bytes starting at the given byte offset.
	ReadBytes(offset, length uint64) ([]byte, error)

	// WriteBytes writes data starting at the given byte offset.
	WriteBytes(offset uint64, data []byte) error

	// TotalSize returns the total size of the device in bytes.
	TotalSize() uint64

	io.Closer
}
