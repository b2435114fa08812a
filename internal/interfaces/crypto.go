package interfaces

import "github.com/deploymenttheory/go-vboot/internal/types"

// PublicKey is an opaque parsed public key, produced by ParseKey and
// consumed by the verification methods of the same SignatureVerifier.
type PublicKey interface{}

// DigestProvider computes message digests, both one-shot and
// incrementally. The incremental form exists because the kernel data
// signature covers byte ranges that are not contiguous in memory.
type DigestProvider interface {
	// Digest computes a one-shot digest of data.
	Digest(data []byte, alg types.DigestAlgorithm) ([]byte, error)

	// NewDigest returns a fresh incremental digest context.
	NewDigest(alg types.DigestAlgorithm) (Digest, error)
}

// Digest is an incremental digest context: any number of Update calls
// followed by a single Final.
type Digest interface {
	Update(data []byte)
	Final() []byte
}

// SignatureVerifier verifies signatures under the algorithm enumeration
// of the kernel image format. It supports verification over a raw
// message and over a precomputed digest; the latter is required when the
// signed bytes are not contiguous.
type SignatureVerifier interface {
	// ParseKey constructs a public key from a processed key blob. The
	// blob must be exactly alg.KeyBlobSize() bytes.
	ParseKey(blob []byte, alg types.Algorithm) (PublicKey, error)

	// Verify reports whether sig is a valid signature over message.
	Verify(key PublicKey, message, sig []byte, alg types.Algorithm) bool

	// VerifyDigest reports whether sig is a valid signature over a
	// message with the given precomputed digest.
	VerifyDigest(key PublicKey, digest, sig []byte, alg types.Algorithm) bool

	// VerifyBlob is Verify with key parsing folded in, for call sites
	// that hold only the raw key blob.
	VerifyBlob(keyBlob, message, sig []byte, alg types.Algorithm) bool
}
