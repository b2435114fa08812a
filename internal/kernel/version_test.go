package kernel

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deploymenttheory/go-vboot/internal/types"
)

func TestGetLogicalKernelVersion(t *testing.T) {
	t.Run("ReadsBothFields", func(t *testing.T) {
		blob := buildImage(t, imageParams{keyVersion: 3, kernelVersion: 7})
		assert.Equal(t, types.CombineVersion(3, 7), GetLogicalKernelVersion(blob))
	})

	t.Run("ZeroVersions", func(t *testing.T) {
		blob := buildImage(t, imageParams{})
		assert.Equal(t, uint32(0), GetLogicalKernelVersion(blob))
	})

	t.Run("KeyVersionDominates", func(t *testing.T) {
		high := buildImage(t, imageParams{keyVersion: 2, kernelVersion: 0})
		low := buildImage(t, imageParams{keyVersion: 1, kernelVersion: 0xFFFF})
		assert.Greater(t, GetLogicalKernelVersion(high), GetLogicalKernelVersion(low))
	})

	t.Run("ShortBlob", func(t *testing.T) {
		assert.Equal(t, uint32(0), GetLogicalKernelVersion(nil))
		assert.Equal(t, uint32(0), GetLogicalKernelVersion([]byte("CHROMEOS")))
	})

	t.Run("InvalidAlgorithm", func(t *testing.T) {
		blob := buildImage(t, imageParams{keyVersion: 3, kernelVersion: 7})
		binary.LittleEndian.PutUint16(blob[14:], 0xFFFF)
		assert.Equal(t, uint32(0), GetLogicalKernelVersion(blob))
	})

	t.Run("TruncatedBeforeConfig", func(t *testing.T) {
		blob := buildImage(t, imageParams{keyVersion: 3, kernelVersion: 7})
		assert.Equal(t, uint32(0), GetLogicalKernelVersion(blob[:100]))
	})

	// The walk does no validation at all; a tampered field changes the
	// result, which is why the value must never be trusted on its own.
	t.Run("NoIntegrityChecking", func(t *testing.T) {
		blob := buildImage(t, imageParams{keyVersion: 1, kernelVersion: 0})
		binary.LittleEndian.PutUint16(blob[16:], 9)
		assert.Equal(t, types.CombineVersion(9, 0), GetLogicalKernelVersion(blob))
	})
}
