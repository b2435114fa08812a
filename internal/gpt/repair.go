package gpt

import (
	parsers "github.com/deploymenttheory/go-vboot/internal/parsers/gpt"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// IsSynonymous reports whether two headers agree on every field that must
// match between the primary and secondary copy. The location fields
// (my_lba, alternate_lba, entries_lba) and the header CRC legitimately
// differ and are not compared.
func IsSynonymous(a, b *types.GptHeader) bool {
	return a.Revision == b.Revision &&
		a.Size == b.Size &&
		a.FirstUsableLBA == b.FirstUsableLBA &&
		a.LastUsableLBA == b.LastUsableLBA &&
		a.DiskGuid == b.DiskGuid &&
		a.NumberOfEntries == b.NumberOfEntries &&
		a.SizeOfEntry == b.SizeOfEntry
}

// RepairHeader reconstructs or reconciles header copies given the
// validity mask and returns the modification mask of what changed.
//
// With exactly one valid copy the invalid one is rebuilt from it, with
// the location fields swapped for its position. With both copies valid
// but diverging, the primary wins. With neither valid nothing is done;
// the caller surfaces ErrUnrecoverableCorruption.
func RepairHeader(d *Drive, validHeaders uint8) uint8 {
	switch validHeaders {
	case MaskBoth:
		if IsSynonymous(d.Headers[primary], d.Headers[secondary]) {
			return 0
		}
		cloneContent(d.Headers[primary], d.Headers[secondary])
		d.Modified |= ModifiedHeader2
		return ModifiedHeader2

	case MaskPrimary:
		rebuildPeer(d.Headers[primary], d.Headers[secondary])
		d.ValidHeaders = MaskBoth
		d.Modified |= ModifiedHeader2
		return ModifiedHeader2

	case MaskSecondary:
		rebuildPeer(d.Headers[secondary], d.Headers[primary])
		d.ValidHeaders = MaskBoth
		d.Modified |= ModifiedHeader1
		return ModifiedHeader1
	}
	return 0
}

// cloneContent copies the content-bearing fields of src onto dst,
// leaving dst's location fields intact, and refreshes dst's CRC.
func cloneContent(src, dst *types.GptHeader) {
	dst.Signature = src.Signature
	dst.Revision = src.Revision
	dst.Size = src.Size
	dst.Reserved = src.Reserved
	dst.FirstUsableLBA = src.FirstUsableLBA
	dst.LastUsableLBA = src.LastUsableLBA
	dst.DiskGuid = src.DiskGuid
	dst.NumberOfEntries = src.NumberOfEntries
	dst.SizeOfEntry = src.SizeOfEntry
	dst.EntriesCrc32 = src.EntriesCrc32
	dst.HeaderCrc32 = parsers.HeaderCrc(dst)
}

// rebuildPeer reconstructs dst entirely from the valid copy src: same
// content, location fields swapped for the peer position, entry array
// placed directly below the peer header.
func rebuildPeer(src, dst *types.GptHeader) {
	*dst = *src
	dst.MyLBA, dst.AlternateLBA = src.AlternateLBA, src.MyLBA

	arrayBytes := uint64(dst.NumberOfEntries) * uint64(dst.SizeOfEntry)
	arraySectors := (arrayBytes + types.SectorSize - 1) / types.SectorSize
	if dst.MyLBA == types.PrimaryHeaderLBA {
		dst.EntriesLBA = types.PrimaryEntriesLBA
	} else {
		dst.EntriesLBA = dst.MyLBA - arraySectors
	}
	dst.HeaderCrc32 = parsers.HeaderCrc(dst)
}

// RepairEntries reconstructs the entry array copies given the validity
// mask, using the same exactly-one-trusted-copy rule as RepairHeader,
// and returns the modification mask. The repaired side's header gets the
// recomputed entries CRC and a refreshed header CRC.
func RepairEntries(d *Drive, validEntries uint8) uint8 {
	copyEntries := func(from, to int, headerMask, entriesMask uint8) uint8 {
		d.Entries[to] = append([]types.GptEntry(nil), d.Entries[from]...)
		d.Headers[to].NumberOfEntries = d.Headers[from].NumberOfEntries
		d.Headers[to].SizeOfEntry = d.Headers[from].SizeOfEntry
		d.Headers[to].EntriesCrc32 = parsers.EntriesCrc(d.Entries[to], d.Headers[to].SizeOfEntry)
		d.Headers[to].HeaderCrc32 = parsers.HeaderCrc(d.Headers[to])
		d.ValidEntries = MaskBoth
		d.Modified |= headerMask | entriesMask
		return headerMask | entriesMask
	}

	switch validEntries {
	case MaskBoth:
		if entriesEqual(d.Entries[primary], d.Entries[secondary]) {
			return 0
		}
		// Both CRC-valid but diverged: the primary wins.
		return copyEntries(primary, secondary, ModifiedHeader2, ModifiedEntries2)

	case MaskPrimary:
		return copyEntries(primary, secondary, ModifiedHeader2, ModifiedEntries2)

	case MaskSecondary:
		return copyEntries(secondary, primary, ModifiedHeader1, ModifiedEntries1)
	}
	return 0
}

func entriesEqual(a, b []types.GptEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UpdateCrc recomputes and stores the entries CRC and header CRC for
// both copies. It must run after any mutation, before persisting.
func UpdateCrc(d *Drive) {
	for i := 0; i < 2; i++ {
		h := d.Headers[i]
		h.EntriesCrc32 = parsers.EntriesCrc(d.Entries[i], h.SizeOfEntry)
		h.HeaderCrc32 = parsers.HeaderCrc(h)
	}
}
