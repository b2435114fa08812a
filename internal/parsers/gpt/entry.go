package gpt

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-vboot/internal/checksum"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// DecodeEntry parses a single partition entry from the first EntrySize
// bytes of data.
func DecodeEntry(data []byte) (*types.GptEntry, error) {
	if len(data) < types.EntrySize {
		return nil, fmt.Errorf("entry data too short: expected %d bytes, got %d",
			types.EntrySize, len(data))
	}

	var e types.GptEntry
	reader := binary.LittleEndian

	copy(e.Type[:], data[0:16])
	copy(e.Unique[:], data[16:32])
	e.FirstLBA = reader.Uint64(data[32:40])
	e.LastLBA = reader.Uint64(data[40:48])
	e.Attributes = reader.Uint64(data[48:56])
	copy(e.Name[:], data[56:128])

	return &e, nil
}

// EncodeEntry serializes a partition entry into exactly EntrySize bytes.
func EncodeEntry(e *types.GptEntry) []byte {
	data := make([]byte, types.EntrySize)
	writer := binary.LittleEndian

	copy(data[0:16], e.Type[:])
	copy(data[16:32], e.Unique[:])
	writer.PutUint64(data[32:40], e.FirstLBA)
	writer.PutUint64(data[40:48], e.LastLBA)
	writer.PutUint64(data[48:56], e.Attributes)
	copy(data[56:128], e.Name[:])

	return data
}

// DecodeEntries parses an entry array of count entries of entrySize bytes
// each from data. Only the 128-byte entry layout is supported; a larger
// stride would carry reserved tail bytes the decoded form cannot
// preserve across a re-encode.
func DecodeEntries(data []byte, count, entrySize uint32) ([]types.GptEntry, error) {
	if entrySize != types.EntrySize {
		return nil, fmt.Errorf("unsupported entry size %d (want %d)",
			entrySize, types.EntrySize)
	}
	need := uint64(count) * uint64(entrySize)
	if uint64(len(data)) < need {
		return nil, fmt.Errorf("entry array too short: expected %d bytes, got %d",
			need, len(data))
	}

	entries := make([]types.GptEntry, count)
	for i := uint32(0); i < count; i++ {
		e, err := DecodeEntry(data[uint64(i)*uint64(entrySize):])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries[i] = *e
	}
	return entries, nil
}

// EncodeEntries serializes an entry array, padding each entry to
// entrySize bytes.
func EncodeEntries(entries []types.GptEntry, entrySize uint32) []byte {
	data := make([]byte, uint64(len(entries))*uint64(entrySize))
	for i := range entries {
		copy(data[uint64(i)*uint64(entrySize):], EncodeEntry(&entries[i]))
	}
	return data
}

// EntriesCrc computes the CRC32 the header's entries_crc32 field should
// carry for the given entry array.
func EntriesCrc(entries []types.GptEntry, entrySize uint32) uint32 {
	return checksum.Crc32(EncodeEntries(entries, entrySize))
}
