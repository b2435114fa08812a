// Package kernel is the kernel verification engine: a strictly
// sequential pipeline over the signed kernel image container, plus the
// A/B candidate selection policy with rollback-protected version
// counters. The engine depends only on injected digest, signature and
// counter providers and performs no I/O of its own.
package kernel

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-vboot/internal/interfaces"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// Verifier runs the verification pipeline. All offsets it computes are
// functions of sizes validated in an earlier stage, never of length
// fields read from a not-yet-verified region.
type Verifier struct {
	digests    interfaces.DigestProvider
	signatures interfaces.SignatureVerifier
}

// NewVerifier returns a Verifier wired with the given providers.
func NewVerifier(digests interfaces.DigestProvider, signatures interfaces.SignatureVerifier) *Verifier {
	return &Verifier{digests: digests, signatures: signatures}
}

// VerifyHeader validates the kernel image header: algorithm range
// checks, exact header length accounting, the embedded SHA-512 header
// checksum, and (unless devMode) the firmware-key signature over the
// header. devMode bypasses only that one signature check.
func (v *Verifier) VerifyHeader(firmwareKeyBlob, header []byte, devMode bool) (firmwareAlg, kernelAlg types.Algorithm, headerLen int, err error) {
	if len(header) < types.BaseHeaderChecksumOffset {
		return 0, 0, 0, fmt.Errorf("%w: header truncated at %d bytes", ErrInvalidImage, len(header))
	}

	headerLenField := binary.LittleEndian.Uint16(header[types.HeaderVersionLen:])
	firmwareAlg = types.Algorithm(binary.LittleEndian.Uint16(header[types.HeaderVersionLen+types.HeaderLenFieldLen:]))
	kernelAlg = types.Algorithm(binary.LittleEndian.Uint16(header[types.HeaderVersionLen+types.HeaderLenFieldLen+types.FirmwareAlgLen:]))

	// Range checks gate every later table lookup.
	if !firmwareAlg.Valid() {
		return 0, 0, 0, fmt.Errorf("%w: firmware algorithm %d", ErrInvalidAlgorithm, firmwareAlg)
	}
	if !kernelAlg.Valid() {
		return 0, 0, 0, fmt.Errorf("%w: kernel algorithm %d", ErrInvalidAlgorithm, kernelAlg)
	}

	expectedLen := types.BaseHeaderChecksumOffset + kernelAlg.KeyBlobSize() + types.HeaderChecksumSize
	if int(headerLenField) != expectedLen {
		return 0, 0, 0, fmt.Errorf("%w: header length %d, computed %d",
			ErrInvalidImage, headerLenField, expectedLen)
	}
	headerLen = expectedLen
	if len(header) < headerLen {
		return 0, 0, 0, fmt.Errorf("%w: header truncated at %d bytes", ErrInvalidImage, len(header))
	}

	// The embedded checksum binds the header's own integrity
	// independent of any signature.
	sum, err := v.digests.Digest(header[:headerLen-types.HeaderChecksumSize], types.DigestSHA512)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	stored := header[headerLen-types.HeaderChecksumSize : headerLen]
	if subtle.ConstantTimeCompare(sum, stored) != 1 {
		return 0, 0, 0, fmt.Errorf("%w: header checksum mismatch", ErrInvalidImage)
	}

	if !devMode {
		sigLen := firmwareAlg.SignatureSize()
		if len(header) < headerLen+sigLen {
			return 0, 0, 0, fmt.Errorf("%w: missing key signature", ErrInvalidImage)
		}
		if !v.signatures.VerifyBlob(firmwareKeyBlob, header[:headerLen], header[headerLen:headerLen+sigLen], firmwareAlg) {
			return 0, 0, 0, ErrKeySignatureFailed
		}
	}

	return firmwareAlg, kernelAlg, headerLen, nil
}

// VerifyConfig validates the config block signature under the kernel
// public key and only then extracts the kernel payload length from the
// verified region.
func (v *Verifier) VerifyConfig(key interfaces.PublicKey, config []byte, alg types.Algorithm) (kernelLen uint64, err error) {
	sigLen := alg.SignatureSize()
	if len(config) < types.KernelConfigFieldLen+sigLen {
		return 0, fmt.Errorf("%w: config block truncated at %d bytes", ErrInvalidImage, len(config))
	}
	region := config[:types.KernelConfigFieldLen]
	sig := config[types.KernelConfigFieldLen : types.KernelConfigFieldLen+sigLen]
	if !v.signatures.Verify(key, region, sig, alg) {
		return 0, ErrConfigSignatureFailed
	}

	return binary.LittleEndian.Uint64(config[types.KernelLenOffset:]), nil
}

// VerifyData validates the kernel payload signature. The signed bytes
// are the config region followed by the payload, which are not adjacent
// in the image, so the digest is built incrementally and the signature
// is verified against the digest rather than a contiguous message.
func (v *Verifier) VerifyData(key interfaces.PublicKey, configStart, dataStart []byte, kernelLen uint64, alg types.Algorithm) error {
	// kernelLen is read from the config block and may be arbitrary;
	// the comparison must not wrap.
	sigLen := uint64(alg.SignatureSize())
	if uint64(len(dataStart)) < sigLen || kernelLen > uint64(len(dataStart))-sigLen {
		return fmt.Errorf("%w: data block truncated at %d bytes", ErrInvalidImage, len(dataStart))
	}

	ctx, err := v.digests.NewDigest(alg.Digest())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	ctx.Update(configStart[:types.KernelConfigFieldLen])
	ctx.Update(dataStart[sigLen : sigLen+kernelLen])

	if !v.signatures.VerifyDigest(key, ctx.Final(), dataStart[:sigLen], alg) {
		return ErrDataSignatureFailed
	}
	return nil
}

// VerifyKernel runs the whole pipeline over a kernel image blob:
// magic check, header verification, embedded key parse, config
// verification, data verification. Any non-nil return means "do not
// boot this kernel".
func (v *Verifier) VerifyKernel(firmwareKeyBlob, blob []byte, devMode bool) error {
	if len(blob) < types.KernelMagicSize {
		return ErrWrongMagic
	}
	if subtle.ConstantTimeCompare(blob[:types.KernelMagicSize], []byte(types.KernelMagic)) != 1 {
		return ErrWrongMagic
	}
	header := blob[types.KernelMagicSize:]

	firmwareAlg, kernelAlg, headerLen, err := v.VerifyHeader(firmwareKeyBlob, header, devMode)
	if err != nil {
		return err
	}

	// The signing key is embedded in the now-verified header.
	keyBlob := header[types.BaseHeaderChecksumOffset : types.BaseHeaderChecksumOffset+kernelAlg.KeyBlobSize()]
	key, err := v.signatures.ParseKey(keyBlob, kernelAlg)
	if err != nil {
		return fmt.Errorf("%w: embedded kernel key: %v", ErrInvalidImage, err)
	}

	keySigLen := firmwareAlg.SignatureSize()
	kernelSigLen := kernelAlg.SignatureSize()

	configOffset := headerLen + keySigLen
	if len(header) < configOffset+types.KernelConfigFieldLen+kernelSigLen {
		return fmt.Errorf("%w: image truncated before config block", ErrInvalidImage)
	}
	config := header[configOffset:]

	kernelLen, err := v.VerifyConfig(key, config, kernelAlg)
	if err != nil {
		return err
	}

	data := config[types.KernelConfigFieldLen+kernelSigLen:]
	return v.VerifyData(key, config, data, kernelLen, kernelAlg)
}
