package kernel

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-vboot/internal/crypto"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// testAlg keeps fixture signing fast; the pipeline code paths are the
// same for every algorithm in the family.
const testAlg = types.AlgRSA1024SHA256

var (
	testKeysOnce    sync.Once
	testFirmwareKey *rsa.PrivateKey
	testKernelKey   *rsa.PrivateKey
)

func testKeys(t *testing.T) (firmware, kernel *rsa.PrivateKey) {
	t.Helper()
	testKeysOnce.Do(func() {
		var err error
		if testFirmwareKey, err = rsa.GenerateKey(rand.Reader, 1024); err != nil {
			panic(err)
		}
		if testKernelKey, err = rsa.GenerateKey(rand.Reader, 1024); err != nil {
			panic(err)
		}
	})
	return testFirmwareKey, testKernelKey
}

func testFirmwareKeyBlob(t *testing.T) []byte {
	t.Helper()
	fw, _ := testKeys(t)
	blob, err := crypto.MarshalKey(&fw.PublicKey, testAlg)
	require.NoError(t, err)
	return blob
}

func signWith(t *testing.T, key *rsa.PrivateKey, message []byte, alg types.Algorithm) []byte {
	t.Helper()

	var hash stdcrypto.Hash
	switch alg.Digest() {
	case types.DigestSHA1:
		hash = stdcrypto.SHA1
	case types.DigestSHA256:
		hash = stdcrypto.SHA256
	default:
		hash = stdcrypto.SHA512
	}
	h := hash.New()
	h.Write(message)

	sig, err := rsa.SignPKCS1v15(rand.Reader, key, hash, h.Sum(nil))
	require.NoError(t, err)
	return sig
}

// imageParams parameterizes a signed test image.
type imageParams struct {
	keyVersion    uint16
	kernelVersion uint16
	payload       []byte
}

// buildImage assembles and signs a complete kernel image: magic, header
// with embedded kernel key and SHA-512 checksum, firmware-key signature,
// config block, config signature, data signature and payload.
func buildImage(t *testing.T, p imageParams) []byte {
	t.Helper()
	fw, kern := testKeys(t)

	if p.payload == nil {
		p.payload = []byte("vmlinuz vmlinuz vmlinuz")
	}

	kernelKeyBlob, err := crypto.MarshalKey(&kern.PublicKey, testAlg)
	require.NoError(t, err)

	headerLen := types.BaseHeaderChecksumOffset + len(kernelKeyBlob) + types.HeaderChecksumSize
	header := make([]byte, headerLen)
	binary.LittleEndian.PutUint16(header[0:], 1)
	binary.LittleEndian.PutUint16(header[2:], uint16(headerLen))
	binary.LittleEndian.PutUint16(header[4:], uint16(testAlg))
	binary.LittleEndian.PutUint16(header[6:], uint16(testAlg))
	binary.LittleEndian.PutUint16(header[8:], p.keyVersion)
	copy(header[types.BaseHeaderChecksumOffset:], kernelKeyBlob)
	sum := sha512.Sum512(header[:headerLen-types.HeaderChecksumSize])
	copy(header[headerLen-types.HeaderChecksumSize:], sum[:])

	firmwareSig := signWith(t, fw, header, testAlg)

	config := make([]byte, types.KernelConfigFieldLen)
	binary.LittleEndian.PutUint16(config[0:], p.kernelVersion)
	binary.LittleEndian.PutUint32(config[2:], 1)
	copy(config[6:], "console=ttyS0 root=/dev/dm-0")
	binary.LittleEndian.PutUint64(config[types.KernelLenOffset:], uint64(len(p.payload)))
	binary.LittleEndian.PutUint64(config[types.KernelLenOffset+8:], 0x100000)
	binary.LittleEndian.PutUint64(config[types.KernelLenOffset+16:], 0x100020)

	configSig := signWith(t, kern, config, testAlg)
	dataSig := signWith(t, kern, append(append([]byte(nil), config...), p.payload...), testAlg)

	blob := []byte(types.KernelMagic)
	blob = append(blob, header...)
	blob = append(blob, firmwareSig...)
	blob = append(blob, config...)
	blob = append(blob, configSig...)
	blob = append(blob, dataSig...)
	blob = append(blob, p.payload...)
	return blob
}

func mustKeyBlob(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	blob, err := crypto.MarshalKey(&key.PublicKey, testAlg)
	require.NoError(t, err)
	return blob
}

func testVerifier() *Verifier {
	return NewVerifier(crypto.NewDigestProvider(), crypto.NewVerifier())
}
