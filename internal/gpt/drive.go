// Package gpt is the partition table engine: it owns the in-memory
// representation of a drive's GPT (both header and entry array copies),
// validates and repairs it, and exposes the ChromeOS attribute
// accessors. All storage access goes through the injected BlockDevice.
package gpt

import (
	"fmt"

	"github.com/deploymenttheory/go-vboot/internal/interfaces"
	parsers "github.com/deploymenttheory/go-vboot/internal/parsers/gpt"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// Validity bitmasks: one bit per on-disk copy.
const (
	MaskNone      = 0
	MaskPrimary   = 1
	MaskSecondary = 2
	MaskBoth      = MaskPrimary | MaskSecondary
)

// Modification bitmask: which copies need rewriting on Close.
const (
	ModifiedHeader1  = 1 << 0
	ModifiedHeader2  = 1 << 1
	ModifiedEntries1 = 1 << 2
	ModifiedEntries2 = 1 << 3
)

// copy indices into the Headers/Entries arrays.
const (
	primary   = 0
	secondary = 1
)

// Drive aggregates one storage device's GPT state: both header copies,
// both entry arrays, per-copy validity masks, and the protective MBR
// carried through as opaque bytes.
type Drive struct {
	device interfaces.BlockDevice
	size   uint64

	PMBR [types.SectorSize]byte

	Headers [2]*types.GptHeader
	Entries [2][]types.GptEntry

	ValidHeaders uint8
	ValidEntries uint8
	Modified     uint8
}

// Open reads the protective MBR and both GPT copies from the device and
// validates each copy independently. Open itself fails only on I/O or
// geometry errors; GPT corruption is reported through the validity masks
// so the caller can decide primary-vs-secondary trust and attempt repair.
func Open(device interfaces.BlockDevice) (*Drive, error) {
	size := device.TotalSize()
	minSize := uint64(types.SectorSize) * (1 + 1 + types.EntriesSectors + types.EntriesSectors + 1)
	if size < minSize {
		return nil, fmt.Errorf("device too small for a GPT: %d bytes (minimum %d)", size, minSize)
	}
	if size%types.SectorSize != 0 {
		return nil, fmt.Errorf("device size %d not a multiple of the sector size", size)
	}

	d := &Drive{device: device, size: size}

	pmbr, err := device.ReadBytes(0, types.SectorSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read protective MBR: %w", err)
	}
	copy(d.PMBR[:], pmbr)

	lastSector := size/types.SectorSize - 1
	headerLBAs := [2]uint64{types.PrimaryHeaderLBA, lastSector}

	for i, lba := range headerLBAs {
		if err := d.loadCopy(i, lba); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// loadCopy reads and validates one header copy and, when the header can
// be trusted, its entry array.
func (d *Drive) loadCopy(i int, headerLBA uint64) error {
	raw, err := d.device.ReadBytes(headerLBA*types.SectorSize, types.SectorSize)
	if err != nil {
		return fmt.Errorf("failed to read header copy %d: %w", i, err)
	}

	h, err := parsers.DecodeHeader(raw)
	if err != nil {
		return fmt.Errorf("header copy %d: %w", i, err)
	}
	d.Headers[i] = h

	if parsers.ValidateHeader(h, d.size, headerLBA) != nil {
		// Leave the copy's validity bits clear; the entry array cannot
		// be located without a trusted header.
		return nil
	}
	d.ValidHeaders |= 1 << i

	arrayBytes := uint64(h.NumberOfEntries) * uint64(h.SizeOfEntry)
	rawEntries, err := d.device.ReadBytes(h.EntriesLBA*types.SectorSize, arrayBytes)
	if err != nil {
		return fmt.Errorf("failed to read entry array copy %d: %w", i, err)
	}

	entries, err := parsers.DecodeEntries(rawEntries, h.NumberOfEntries, h.SizeOfEntry)
	if err != nil {
		return fmt.Errorf("entry array copy %d: %w", i, err)
	}
	d.Entries[i] = entries

	if parsers.ValidateEntriesRaw(h, rawEntries) == nil {
		d.ValidEntries |= 1 << i
	}
	return nil
}

// CheckValid surfaces the drive's validation state as sentinel errors:
// both copies of either structure invalid is unrecoverable, a single
// invalid copy is repairable and reported as such.
func (d *Drive) CheckValid() error {
	if d.ValidHeaders == MaskNone || d.ValidEntries == MaskNone {
		return ErrUnrecoverableCorruption
	}
	if d.ValidHeaders != MaskBoth {
		return ErrHeaderInvalid
	}
	if d.ValidEntries != MaskBoth {
		return ErrEntriesInvalid
	}
	return nil
}

// Size returns the device size in bytes.
func (d *Drive) Size() uint64 {
	return d.size
}

// NumberOfEntries returns the primary header's entry count.
func (d *Drive) NumberOfEntries() uint32 {
	return d.Headers[primary].NumberOfEntries
}

// GetEntry returns one entry of one copy. The index must be below the
// copy's number_of_entries.
func (d *Drive) GetEntry(useSecondary bool, index uint32) (*types.GptEntry, error) {
	i := primary
	if useSecondary {
		i = secondary
	}
	if index >= d.Headers[i].NumberOfEntries || index >= uint32(len(d.Entries[i])) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrEntryIndex, index, d.Headers[i].NumberOfEntries)
	}
	return &d.Entries[i][index], nil
}

// Close writes back any copy marked modified, recomputing CRCs first,
// then releases the device. With update false the state is discarded.
func (d *Drive) Close(update bool) error {
	if update && d.Modified != 0 {
		UpdateCrc(d)
		if err := d.flush(); err != nil {
			d.device.Close()
			return err
		}
	}
	return d.device.Close()
}

// flush writes only the copies that were actually changed; a copy never
// flagged modified is never partially rewritten.
func (d *Drive) flush() error {
	type region struct {
		mask   uint8
		offset uint64
		data   []byte
	}

	sector := func(h *types.GptHeader) []byte {
		buf := make([]byte, types.SectorSize)
		copy(buf, parsers.EncodeHeader(h))
		return buf
	}

	regions := []region{
		{ModifiedHeader1, d.Headers[primary].MyLBA * types.SectorSize, sector(d.Headers[primary])},
		{ModifiedHeader2, d.Headers[secondary].MyLBA * types.SectorSize, sector(d.Headers[secondary])},
		{ModifiedEntries1, d.Headers[primary].EntriesLBA * types.SectorSize,
			parsers.EncodeEntries(d.Entries[primary], d.Headers[primary].SizeOfEntry)},
		{ModifiedEntries2, d.Headers[secondary].EntriesLBA * types.SectorSize,
			parsers.EncodeEntries(d.Entries[secondary], d.Headers[secondary].SizeOfEntry)},
	}

	for _, r := range regions {
		if d.Modified&r.mask == 0 {
			continue
		}
		if err := d.device.WriteBytes(r.offset, r.data); err != nil {
			return fmt.Errorf("failed to write back GPT region: %w", err)
		}
	}
	d.Modified = 0
	return nil
}
