// Package device provides BlockDevice implementations: a disk image file
// for the CLI and an in-memory device for tests. Raw-device specifics
// (ioctls, rescan) are out of scope; an image file is enough for every
// collaborator contract the engines rely on.
package device

import (
	"fmt"
	"log/slog"
	"os"
)

// FileDevice is a BlockDevice backed by a disk image file.
type FileDevice struct {
	file *os.File
	path string
	size uint64
}

// OpenFile opens a disk image for reading and writing.
func OpenFile(path string) (*FileDevice, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat image %s: %w", path, err)
	}

	slog.Debug("opened image", "path", path, "size", stat.Size())
	return &FileDevice{file: file, path: path, size: uint64(stat.Size())}, nil
}

// ReadBytes reads length bytes at the given byte offset. The guard is
// written in subtraction form: offset+length can wrap.
func (d *FileDevice) ReadBytes(offset, length uint64) ([]byte, error) {
	if length > d.size || offset > d.size-length {
		return nil, fmt.Errorf("read [%d,+%d) beyond device size %d", offset, length, d.size)
	}
	buf := make([]byte, length)
	if _, err := d.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("read at %d: %w", offset, err)
	}
	return buf, nil
}

// WriteBytes writes data at the given byte offset.
func (d *FileDevice) WriteBytes(offset uint64, data []byte) error {
	if uint64(len(data)) > d.size || offset > d.size-uint64(len(data)) {
		return fmt.Errorf("write [%d,+%d) beyond device size %d", offset, len(data), d.size)
	}
	if _, err := d.file.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("write at %d: %w", offset, err)
	}
	slog.Debug("wrote region", "path", d.path, "offset", offset, "length", len(data))
	return nil
}

// TotalSize returns the image size in bytes.
func (d *FileDevice) TotalSize() uint64 {
	return d.size
}

// Close releases the underlying file.
func (d *FileDevice) Close() error {
	return d.file.Close()
}
