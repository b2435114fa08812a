package types

// GPT on-disk layout constants. All multi-byte fields are little-endian
// and offsets are fixed by the UEFI specification.
const (
	// HeaderSignature is the 8-byte magic at the start of a GPT header.
	HeaderSignature = "EFI PART"

	// HeaderRevision is the GPT revision this package reads and writes.
	HeaderRevision = 0x00010000

	// HeaderSize is the size of the meaningful portion of a GPT header.
	// The rest of the header sector is reserved and must be zero.
	HeaderSize = 92

	// EntrySize is the size of a single partition entry.
	EntrySize = 128

	// SectorSize is the logical block size assumed throughout.
	SectorSize = 512

	// PrimaryHeaderLBA is the fixed location of the primary header.
	PrimaryHeaderLBA = 1

	// PrimaryEntriesLBA is the fixed location of the primary entry array.
	PrimaryEntriesLBA = 2

	// EntriesSectors is the number of sectors covered by one entry array
	// (128 entries of 128 bytes each).
	EntriesSectors = 32

	// TotalEntries is the number of partition entries in each array.
	TotalEntries = 128

	// PartitionNameSize is the byte length of an entry's UTF-16LE name.
	PartitionNameSize = 72
)

// GuidSize is the byte length of an on-disk GUID.
const GuidSize = 16

// Guid holds a GUID in its on-disk (mixed-endian) byte order. Conversion
// to RFC 4122 ordering happens only at the uuid package boundary.
type Guid [GuidSize]byte

// IsZero reports whether the GUID is all zeroes, which marks an unused
// partition entry.
func (g Guid) IsZero() bool {
	for _, b := range g {
		if b != 0 {
			return false
		}
	}
	return true
}

// GptHeader is the fixed-layout GPT header record. Field order matches the
// on-disk layout; see DecodeHeader/EncodeHeader in internal/parsers/gpt.
type GptHeader struct {
	Signature       [8]byte
	Revision        uint32
	Size            uint32
	HeaderCrc32     uint32
	Reserved        uint32
	MyLBA           uint64
	AlternateLBA    uint64
	FirstUsableLBA  uint64
	LastUsableLBA   uint64
	DiskGuid        Guid
	EntriesLBA      uint64
	NumberOfEntries uint32
	SizeOfEntry     uint32
	EntriesCrc32    uint32
}

// GptEntry is a single fixed-layout partition entry. The Name field is
// raw UTF-16LE bytes and is treated as opaque by the engine.
type GptEntry struct {
	Type       Guid
	Unique     Guid
	FirstLBA   uint64
	LastLBA    uint64
	Attributes uint64
	Name       [PartitionNameSize]byte
}

// IsUnused reports whether the entry slot is free (all-zero type GUID).
func (e *GptEntry) IsUnused() bool {
	return e.Type.IsZero()
}

// ChromeOS attribute bit layout, packed into the type-specific high bits
// of GptEntry.Attributes. This table is the single source of truth for
// both the partition engine and any other format reader.
//
//	field           bit offset  width
//	-----           ----------  -----
//	legacy boot      2           1    (standard "Legacy BIOS Bootable")
//	priority        48           4
//	tries remaining 52           4
//	successful boot 56           1
const (
	AttrLegacyBootOffset = 2
	AttrLegacyBootMask   = uint64(1) << AttrLegacyBootOffset

	AttrPriorityOffset = 48
	AttrPriorityWidth  = 4
	AttrPriorityMask   = uint64(0xF) << AttrPriorityOffset

	AttrTriesOffset = 52
	AttrTriesWidth  = 4
	AttrTriesMask   = uint64(0xF) << AttrTriesOffset

	AttrSuccessfulOffset = 56
	AttrSuccessfulWidth  = 1
	AttrSuccessfulMask   = uint64(0x1) << AttrSuccessfulOffset

	// MaxPriority and MaxTries bound the clamped accessor range.
	MaxPriority = 15
	MaxTries    = 15
)

// Priority returns the ChromeOS boot priority subfield (0-15).
func (e *GptEntry) Priority() int {
	return int((e.Attributes & AttrPriorityMask) >> AttrPriorityOffset)
}

// SetPriority stores the boot priority subfield, clamping to 0-15.
func (e *GptEntry) SetPriority(priority int) {
	priority = clampAttr(priority, MaxPriority)
	e.Attributes = (e.Attributes &^ AttrPriorityMask) |
		(uint64(priority) << AttrPriorityOffset)
}

// Tries returns the tries-remaining subfield (0-15).
func (e *GptEntry) Tries() int {
	return int((e.Attributes & AttrTriesMask) >> AttrTriesOffset)
}

// SetTries stores the tries-remaining subfield, clamping to 0-15.
func (e *GptEntry) SetTries(tries int) {
	tries = clampAttr(tries, MaxTries)
	e.Attributes = (e.Attributes &^ AttrTriesMask) |
		(uint64(tries) << AttrTriesOffset)
}

// Successful returns the successful-boot flag.
func (e *GptEntry) Successful() bool {
	return e.Attributes&AttrSuccessfulMask != 0
}

// SetSuccessful stores the successful-boot flag.
func (e *GptEntry) SetSuccessful(successful bool) {
	if successful {
		e.Attributes |= AttrSuccessfulMask
	} else {
		e.Attributes &^= AttrSuccessfulMask
	}
}

// LegacyBootable returns the standard legacy BIOS bootable flag.
func (e *GptEntry) LegacyBootable() bool {
	return e.Attributes&AttrLegacyBootMask != 0
}

// SetLegacyBootable stores the legacy BIOS bootable flag.
func (e *GptEntry) SetLegacyBootable(bootable bool) {
	if bootable {
		e.Attributes |= AttrLegacyBootMask
	} else {
		e.Attributes &^= AttrLegacyBootMask
	}
}

// RawAttributes returns the 16-bit ChromeOS attribute field (bits 48-63).
func (e *GptEntry) RawAttributes() uint16 {
	return uint16(e.Attributes >> 48)
}

// SetRawAttributes overwrites the 16-bit ChromeOS attribute field wholesale.
func (e *GptEntry) SetRawAttributes(raw uint16) {
	e.Attributes = (e.Attributes & 0x0000FFFFFFFFFFFF) | (uint64(raw) << 48)
}

func clampAttr(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
