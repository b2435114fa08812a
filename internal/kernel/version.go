package kernel

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-vboot/internal/types"
)

// GetLogicalKernelVersion extracts the 32-bit logical version
// (key version << 16 | kernel version) by walking the image's offset
// chain without any checksum or signature validation. It is a fast
// pre-filter only: a kernel must still pass full VerifyKernel before
// the value may be trusted. Returns 0, the lowest possible version, for
// blobs too short to walk or with out-of-range algorithm IDs.
func GetLogicalKernelVersion(blob []byte) uint32 {
	off := types.KernelMagicSize + types.HeaderVersionLen + types.HeaderLenFieldLen
	if len(blob) < off+types.FirmwareAlgLen+types.KernelAlgLen+types.KernelKeyVerLen {
		return 0
	}

	firmwareAlg := types.Algorithm(binary.LittleEndian.Uint16(blob[off:]))
	off += types.FirmwareAlgLen
	kernelAlg := types.Algorithm(binary.LittleEndian.Uint16(blob[off:]))
	off += types.KernelAlgLen
	keyVersion := binary.LittleEndian.Uint16(blob[off:])
	off += types.KernelKeyVerLen

	if !firmwareAlg.Valid() || !kernelAlg.Valid() {
		return 0
	}

	// Skip the embedded key, header checksum and firmware-key signature
	// to reach the kernel_version field at the start of the config block.
	off += kernelAlg.KeyBlobSize() + types.HeaderChecksumSize + firmwareAlg.SignatureSize()
	if len(blob) < off+types.KernelVersionLen {
		return 0
	}
	kernelVersion := binary.LittleEndian.Uint16(blob[off:])

	return types.CombineVersion(keyVersion, kernelVersion)
}
