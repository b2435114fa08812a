// Package gpt decodes, encodes and validates the binary GPT structures.
// Field offsets follow the UEFI specification; everything is
// little-endian.
package gpt

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-vboot/internal/checksum"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// headerCrcOffset is the byte offset of the header_crc32 field, zeroed
// while computing the header checksum.
const headerCrcOffset = 16

// DecodeHeader parses a GPT header from the first HeaderSize bytes of
// data. It performs layout decoding only; validity checks live in
// ValidateHeader.
func DecodeHeader(data []byte) (*types.GptHeader, error) {
	if len(data) < types.HeaderSize {
		return nil, fmt.Errorf("header data too short: expected %d bytes, got %d",
			types.HeaderSize, len(data))
	}

	var h types.GptHeader
	reader := binary.LittleEndian

	copy(h.Signature[:], data[0:8])
	h.Revision = reader.Uint32(data[8:12])
	h.Size = reader.Uint32(data[12:16])
	h.HeaderCrc32 = reader.Uint32(data[16:20])
	h.Reserved = reader.Uint32(data[20:24])
	h.MyLBA = reader.Uint64(data[24:32])
	h.AlternateLBA = reader.Uint64(data[32:40])
	h.FirstUsableLBA = reader.Uint64(data[40:48])
	h.LastUsableLBA = reader.Uint64(data[48:56])
	copy(h.DiskGuid[:], data[56:72])
	h.EntriesLBA = reader.Uint64(data[72:80])
	h.NumberOfEntries = reader.Uint32(data[80:84])
	h.SizeOfEntry = reader.Uint32(data[84:88])
	h.EntriesCrc32 = reader.Uint32(data[88:92])

	return &h, nil
}

// EncodeHeader serializes a GPT header into exactly HeaderSize bytes.
// The stored CRC field is written as-is; use HeaderCrc to recompute it.
func EncodeHeader(h *types.GptHeader) []byte {
	data := make([]byte, types.HeaderSize)
	writer := binary.LittleEndian

	copy(data[0:8], h.Signature[:])
	writer.PutUint32(data[8:12], h.Revision)
	writer.PutUint32(data[12:16], h.Size)
	writer.PutUint32(data[16:20], h.HeaderCrc32)
	writer.PutUint32(data[20:24], h.Reserved)
	writer.PutUint64(data[24:32], h.MyLBA)
	writer.PutUint64(data[32:40], h.AlternateLBA)
	writer.PutUint64(data[40:48], h.FirstUsableLBA)
	writer.PutUint64(data[48:56], h.LastUsableLBA)
	copy(data[56:72], h.DiskGuid[:])
	writer.PutUint64(data[72:80], h.EntriesLBA)
	writer.PutUint32(data[80:84], h.NumberOfEntries)
	writer.PutUint32(data[84:88], h.SizeOfEntry)
	writer.PutUint32(data[88:92], h.EntriesCrc32)

	return data
}

// HeaderCrc computes the CRC32 a header should carry: the IEEE CRC32 of
// the encoded header bytes with the CRC field itself zeroed.
func HeaderCrc(h *types.GptHeader) uint32 {
	return checksum.Crc32WithZeroedField(EncodeHeader(h), headerCrcOffset, 4)
}
