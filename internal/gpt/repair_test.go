package gpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-vboot/internal/device"
	parsers "github.com/deploymenttheory/go-vboot/internal/parsers/gpt"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

func TestIsSynonymous(t *testing.T) {
	d, _ := openTestDrive(t)
	defer d.Close(false)

	t.Run("FreshCopiesAgree", func(t *testing.T) {
		assert.True(t, IsSynonymous(d.Headers[0], d.Headers[1]))
	})

	t.Run("LocationFieldsIgnored", func(t *testing.T) {
		// my_lba, alternate_lba and entries_lba always differ between
		// the copies; they must not break synonymity.
		assert.NotEqual(t, d.Headers[0].MyLBA, d.Headers[1].MyLBA)
		assert.NotEqual(t, d.Headers[0].EntriesLBA, d.Headers[1].EntriesLBA)
		assert.True(t, IsSynonymous(d.Headers[0], d.Headers[1]))
	})

	t.Run("ContentDivergenceDetected", func(t *testing.T) {
		peer := *d.Headers[1]
		peer.LastUsableLBA--
		assert.False(t, IsSynonymous(d.Headers[0], &peer))
	})
}

func TestRepairHeader(t *testing.T) {
	t.Run("NothingToRepair", func(t *testing.T) {
		d, _ := openTestDrive(t)
		defer d.Close(false)
		assert.Equal(t, uint8(0), RepairHeader(d, d.ValidHeaders))
	})

	t.Run("RebuildSecondaryFromPrimary", func(t *testing.T) {
		img := buildTestImage(t, testEntries())
		corruptSector(img, testLastSector)

		d, err := Open(device.FromBytes(img))
		require.NoError(t, err)
		require.Equal(t, uint8(MaskPrimary), d.ValidHeaders)

		assert.Equal(t, uint8(ModifiedHeader2), RepairHeader(d, d.ValidHeaders))
		assert.Equal(t, uint8(MaskBoth), d.ValidHeaders)

		h := d.Headers[1]
		assert.True(t, IsSynonymous(d.Headers[0], h))
		assert.Equal(t, uint64(testLastSector), h.MyLBA)
		assert.Equal(t, uint64(types.PrimaryHeaderLBA), h.AlternateLBA)
		assert.Equal(t, uint64(testLastSector-types.EntriesSectors), h.EntriesLBA)
		assert.NoError(t, parsers.ValidateHeader(h, d.Size(), testLastSector))

		// The repaired image must reopen fully valid.
		require.NoError(t, d.Close(true))
		d2, err := Open(device.FromBytes(img))
		require.NoError(t, err)
		defer d2.Close(false)
		assert.NoError(t, d2.CheckValid())
	})

	t.Run("RebuildPrimaryFromSecondary", func(t *testing.T) {
		img := buildTestImage(t, testEntries())
		corruptSector(img, types.PrimaryHeaderLBA)

		d, err := Open(device.FromBytes(img))
		require.NoError(t, err)
		require.Equal(t, uint8(MaskSecondary), d.ValidHeaders)

		assert.Equal(t, uint8(ModifiedHeader1), RepairHeader(d, d.ValidHeaders))

		h := d.Headers[0]
		assert.Equal(t, uint64(types.PrimaryHeaderLBA), h.MyLBA)
		assert.Equal(t, uint64(testLastSector), h.AlternateLBA)
		assert.Equal(t, uint64(types.PrimaryEntriesLBA), h.EntriesLBA)
		assert.NoError(t, parsers.ValidateHeader(h, d.Size(), types.PrimaryHeaderLBA))

		require.NoError(t, d.Close(true))
		d2, err := Open(device.FromBytes(img))
		require.NoError(t, err)
		defer d2.Close(false)
		assert.NoError(t, d2.CheckValid())
	})

	t.Run("BothValidButDivergedPrimaryWins", func(t *testing.T) {
		d, _ := openTestDrive(t)
		defer d.Close(false)

		d.Headers[1].LastUsableLBA--
		d.Headers[1].HeaderCrc32 = parsers.HeaderCrc(d.Headers[1])

		assert.Equal(t, uint8(ModifiedHeader2), RepairHeader(d, MaskBoth))
		assert.True(t, IsSynonymous(d.Headers[0], d.Headers[1]))
		assert.Equal(t, uint64(testLastUsable), d.Headers[1].LastUsableLBA)
	})

	t.Run("NeitherValid", func(t *testing.T) {
		d, _ := openTestDrive(t)
		defer d.Close(false)
		assert.Equal(t, uint8(0), RepairHeader(d, MaskNone))
	})
}

func TestRepairEntries(t *testing.T) {
	t.Run("RebuildSecondaryFromPrimary", func(t *testing.T) {
		img := buildTestImage(t, testEntries())
		corruptSector(img, testLastSector-types.EntriesSectors)

		d, err := Open(device.FromBytes(img))
		require.NoError(t, err)
		require.Equal(t, uint8(MaskPrimary), d.ValidEntries)

		mask := RepairEntries(d, d.ValidEntries)
		assert.Equal(t, uint8(ModifiedHeader2|ModifiedEntries2), mask)
		assert.Equal(t, uint8(MaskBoth), d.ValidEntries)
		assert.True(t, entriesEqual(d.Entries[0], d.Entries[1]))

		require.NoError(t, d.Close(true))
		d2, err := Open(device.FromBytes(img))
		require.NoError(t, err)
		defer d2.Close(false)
		assert.NoError(t, d2.CheckValid())
	})

	t.Run("RebuildPrimaryFromSecondary", func(t *testing.T) {
		img := buildTestImage(t, testEntries())
		corruptSector(img, types.PrimaryEntriesLBA)

		d, err := Open(device.FromBytes(img))
		require.NoError(t, err)
		require.Equal(t, uint8(MaskSecondary), d.ValidEntries)

		mask := RepairEntries(d, d.ValidEntries)
		assert.Equal(t, uint8(ModifiedHeader1|ModifiedEntries1), mask)

		// The corruption hit entry 0's unique GUID in the primary copy;
		// the secondary's version must win.
		p, err := GetPriority(d, false, idxKernelA)
		require.NoError(t, err)
		assert.Equal(t, 2, p)

		require.NoError(t, d.Close(true))
		d2, err := Open(device.FromBytes(img))
		require.NoError(t, err)
		defer d2.Close(false)
		assert.NoError(t, d2.CheckValid())
	})

	t.Run("BothValidAndEqual", func(t *testing.T) {
		d, _ := openTestDrive(t)
		defer d.Close(false)
		assert.Equal(t, uint8(0), RepairEntries(d, d.ValidEntries))
	})

	t.Run("BothValidButDivergedPrimaryWins", func(t *testing.T) {
		d, _ := openTestDrive(t)
		defer d.Close(false)

		d.Entries[1][idxKernelA].SetPriority(15)
		assert.NotEqual(t, uint8(0), RepairEntries(d, MaskBoth))
		p, err := GetPriority(d, true, idxKernelA)
		require.NoError(t, err)
		assert.Equal(t, 2, p)
	})
}

func TestUpdateCrc(t *testing.T) {
	d, _ := openTestDrive(t)
	defer d.Close(false)

	d.Entries[0][idxKernelA].SetTries(0)
	UpdateCrc(d)

	for i := 0; i < 2; i++ {
		assert.Equal(t, parsers.EntriesCrc(d.Entries[i], d.Headers[i].SizeOfEntry),
			d.Headers[i].EntriesCrc32, "copy %d entries CRC", i)
		assert.Equal(t, parsers.HeaderCrc(d.Headers[i]), d.Headers[i].HeaderCrc32,
			"copy %d header CRC", i)
	}
}
