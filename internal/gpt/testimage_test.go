package gpt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-vboot/internal/device"
	parsers "github.com/deploymenttheory/go-vboot/internal/parsers/gpt"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// Test drive geometry: 256 sectors, both GPT copies, usable range between
// the primary entry array and the secondary entry array.
const (
	testSectors     = 256
	testSize        = testSectors * types.SectorSize
	testLastSector  = testSectors - 1
	testFirstUsable = types.PrimaryEntriesLBA + types.EntriesSectors
	testLastUsable  = testLastSector - 1 - types.EntriesSectors
)

// Entry indices the test layout fills in.
const (
	idxKernelA = 0
	idxKernelB = 1
	idxRoot    = 2
)

func testEntries() []types.GptEntry {
	entries := make([]types.GptEntry, types.TotalEntries)

	kern := UUIDToGuid(GuidChromeOSKernel)
	root := UUIDToGuid(GuidChromeOSRootFS)

	entries[idxKernelA] = types.GptEntry{
		Type: kern, Unique: NewRandomGuid(),
		FirstLBA: testFirstUsable, LastLBA: testFirstUsable + 15,
	}
	entries[idxKernelA].SetPriority(2)
	entries[idxKernelA].SetTries(2)

	entries[idxKernelB] = types.GptEntry{
		Type: kern, Unique: NewRandomGuid(),
		FirstLBA: testFirstUsable + 16, LastLBA: testFirstUsable + 31,
	}
	entries[idxKernelB].SetPriority(1)
	entries[idxKernelB].SetTries(1)

	entries[idxRoot] = types.GptEntry{
		Type: root, Unique: NewRandomGuid(),
		FirstLBA: testFirstUsable + 32, LastLBA: testLastUsable,
	}

	return entries
}

// buildTestImage lays out a fully valid dual-copy GPT over the given
// entries and returns the raw image bytes.
func buildTestImage(t *testing.T, entries []types.GptEntry) []byte {
	t.Helper()

	img := make([]byte, testSize)

	// Minimal protective MBR: just the boot signature.
	img[510], img[511] = 0x55, 0xAA

	disk := NewRandomGuid()
	mk := func(myLBA, altLBA, entriesLBA uint64) *types.GptHeader {
		h := &types.GptHeader{
			Revision:        types.HeaderRevision,
			Size:            types.HeaderSize,
			MyLBA:           myLBA,
			AlternateLBA:    altLBA,
			FirstUsableLBA:  testFirstUsable,
			LastUsableLBA:   testLastUsable,
			DiskGuid:        disk,
			EntriesLBA:      entriesLBA,
			NumberOfEntries: types.TotalEntries,
			SizeOfEntry:     types.EntrySize,
		}
		copy(h.Signature[:], types.HeaderSignature)
		h.EntriesCrc32 = parsers.EntriesCrc(entries, types.EntrySize)
		h.HeaderCrc32 = parsers.HeaderCrc(h)
		return h
	}

	primaryHdr := mk(types.PrimaryHeaderLBA, testLastSector, types.PrimaryEntriesLBA)
	secondaryHdr := mk(testLastSector, types.PrimaryHeaderLBA, testLastSector-types.EntriesSectors)

	raw := parsers.EncodeEntries(entries, types.EntrySize)
	copy(img[types.PrimaryHeaderLBA*types.SectorSize:], parsers.EncodeHeader(primaryHdr))
	copy(img[types.PrimaryEntriesLBA*types.SectorSize:], raw)
	copy(img[secondaryHdr.EntriesLBA*types.SectorSize:], raw)
	copy(img[uint64(testLastSector)*types.SectorSize:], parsers.EncodeHeader(secondaryHdr))

	return img
}

// openTestDrive builds a pristine image and opens it, failing the test on
// any open error.
func openTestDrive(t *testing.T) (*Drive, *device.MemoryDevice) {
	t.Helper()
	dev := device.FromBytes(buildTestImage(t, testEntries()))
	d, err := Open(dev)
	require.NoError(t, err)
	return d, dev
}

// corruptSector flips a byte inside the given sector.
func corruptSector(img []byte, lba uint64) {
	img[lba*types.SectorSize+20] ^= 0xFF
}
