// Package checksum provides the CRC32 helpers used for GPT header and
// entry array integrity. GPT uses the standard IEEE polynomial, computed
// with the header's own CRC field zeroed.
package checksum

import "hash/crc32"

// Crc32 computes the standard IEEE CRC32 of data.
func Crc32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Crc32WithZeroedField computes the IEEE CRC32 of data with size bytes at
// offset treated as zero, without mutating the caller's buffer.
func Crc32WithZeroedField(data []byte, offset, size int) uint32 {
	buf := make([]byte, len(data))
	copy(buf, data)
	for i := offset; i < offset+size && i < len(buf); i++ {
		buf[i] = 0
	}
	return crc32.ChecksumIEEE(buf)
}
