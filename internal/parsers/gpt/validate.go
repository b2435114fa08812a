package gpt

import (
	"fmt"

	"github.com/deploymenttheory/go-vboot/internal/checksum"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// ValidateHeader checks a decoded header against its own CRC, against
// the bounds of a device of driveSize bytes, and against the position it
// was read from (expectedLBA, the primary header LBA or the device's
// last sector). A nil return means the header copy can be trusted.
//
// All bounds arithmetic is written in subtraction form: the fields are
// attacker-controlled and addition can wrap.
func ValidateHeader(h *types.GptHeader, driveSize, expectedLBA uint64) error {
	if string(h.Signature[:]) != types.HeaderSignature {
		return fmt.Errorf("invalid header signature %q", h.Signature)
	}
	if h.Revision != types.HeaderRevision {
		return fmt.Errorf("unsupported header revision 0x%08x", h.Revision)
	}
	if h.Size < types.HeaderSize || h.Size > types.SectorSize {
		return fmt.Errorf("implausible header size %d", h.Size)
	}
	if crc := HeaderCrc(h); crc != h.HeaderCrc32 {
		return fmt.Errorf("header CRC mismatch: computed 0x%08x, stored 0x%08x",
			crc, h.HeaderCrc32)
	}

	totalSectors := driveSize / types.SectorSize
	if totalSectors == 0 {
		return fmt.Errorf("device smaller than one sector")
	}
	lastSector := totalSectors - 1

	// Each copy must claim the sector it was read from. A header copied
	// to the wrong position is CRC-correct but must not be trusted: a
	// later flush would write it back to the sector it claims.
	if h.MyLBA != expectedLBA {
		return fmt.Errorf("header my_lba %d does not match its position %d",
			h.MyLBA, expectedLBA)
	}
	expectedAlt := lastSector
	if expectedLBA == lastSector {
		expectedAlt = types.PrimaryHeaderLBA
	}
	if h.AlternateLBA != expectedAlt {
		return fmt.Errorf("header alternate_lba %d out of place (want %d)",
			h.AlternateLBA, expectedAlt)
	}
	if h.FirstUsableLBA > h.LastUsableLBA {
		return fmt.Errorf("usable range inverted: first %d > last %d",
			h.FirstUsableLBA, h.LastUsableLBA)
	}
	if h.LastUsableLBA >= lastSector {
		return fmt.Errorf("last usable LBA %d beyond device (last sector %d)",
			h.LastUsableLBA, lastSector)
	}

	// Larger entry strides are legal per UEFI but the reserved tail
	// bytes would not survive a re-encode; only the 128-byte layout is
	// accepted.
	if h.SizeOfEntry != types.EntrySize {
		return fmt.Errorf("unsupported entry size %d (want %d)", h.SizeOfEntry, types.EntrySize)
	}
	if h.NumberOfEntries == 0 || h.NumberOfEntries > types.TotalEntries {
		return fmt.Errorf("implausible entry count %d", h.NumberOfEntries)
	}

	// The entry array must lie entirely inside the device, outside the
	// usable range bookkeeping is the caller's concern.
	arrayBytes := uint64(h.NumberOfEntries) * uint64(h.SizeOfEntry)
	arraySectors := (arrayBytes + types.SectorSize - 1) / types.SectorSize
	if h.EntriesLBA == 0 || arraySectors > totalSectors ||
		h.EntriesLBA > totalSectors-arraySectors {
		return fmt.Errorf("entry array [%d,+%d sectors) outside device bounds",
			h.EntriesLBA, arraySectors)
	}

	return nil
}

// ValidateEntriesRaw checks a raw entry array region against the CRC and
// geometry a trusted header declares for it, then checks per-entry LBA
// sanity. A nil return means the entry array copy can be trusted.
func ValidateEntriesRaw(h *types.GptHeader, raw []byte) error {
	arrayBytes := uint64(h.NumberOfEntries) * uint64(h.SizeOfEntry)
	if uint64(len(raw)) < arrayBytes {
		return fmt.Errorf("entry array region too short: expected %d bytes, got %d",
			arrayBytes, len(raw))
	}

	if crc := checksum.Crc32(raw[:arrayBytes]); crc != h.EntriesCrc32 {
		return fmt.Errorf("entry array CRC mismatch: computed 0x%08x, stored 0x%08x",
			crc, h.EntriesCrc32)
	}

	entries, err := DecodeEntries(raw, h.NumberOfEntries, h.SizeOfEntry)
	if err != nil {
		return err
	}
	for i := range entries {
		e := &entries[i]
		if e.IsUnused() {
			continue
		}
		if e.FirstLBA > e.LastLBA {
			return fmt.Errorf("entry %d: first LBA %d > last LBA %d",
				i, e.FirstLBA, e.LastLBA)
		}
		if e.FirstLBA < h.FirstUsableLBA || e.LastLBA > h.LastUsableLBA {
			return fmt.Errorf("entry %d: [%d,%d] outside usable range [%d,%d]",
				i, e.FirstLBA, e.LastLBA, h.FirstUsableLBA, h.LastUsableLBA)
		}
	}

	return nil
}
