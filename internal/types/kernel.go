package types

// Signed kernel image container layout. All integer fields are
// little-endian; every offset is derived from the declared field sizes
// below plus the key/signature sizes of the declared algorithms.
const (
	// KernelMagic is the fixed prefix of a signed kernel image.
	KernelMagic     = "CHROMEOS"
	KernelMagicSize = 8

	// Header field lengths, in declared order.
	HeaderVersionLen  = 2
	HeaderLenFieldLen = 2
	FirmwareAlgLen    = 2
	KernelAlgLen      = 2
	KernelKeyVerLen   = 2

	// BaseHeaderChecksumOffset is the header-relative offset of the
	// checksum field before the variable-size signing key is accounted
	// for. The actual offset is this plus the kernel key blob size.
	BaseHeaderChecksumOffset = HeaderVersionLen + HeaderLenFieldLen +
		FirmwareAlgLen + KernelAlgLen + KernelKeyVerLen

	// HeaderChecksumSize is the length of the embedded SHA-512 header
	// checksum.
	HeaderChecksumSize = 64

	// Config block field lengths, in declared order. The signed config
	// region covers exactly these fields.
	KernelVersionLen     = 2
	ConfigVersionLen     = 4
	CmdLineSize          = 256
	KernelLenFieldLen    = 8
	KernelLoadAddrLen    = 8
	KernelEntryAddrLen   = 8
	KernelConfigFieldLen = KernelVersionLen + ConfigVersionLen + CmdLineSize +
		KernelLenFieldLen + KernelLoadAddrLen + KernelEntryAddrLen

	// KernelLenOffset is the config-relative offset of the kernel_len
	// field, read only after the config signature has been verified.
	KernelLenOffset = KernelVersionLen + ConfigVersionLen + CmdLineSize
)

// Algorithm identifies a signing algorithm: an RSA key size paired with a
// message digest. The numeric values are part of the image format.
type Algorithm uint16

const (
	AlgRSA1024SHA1 Algorithm = iota
	AlgRSA1024SHA256
	AlgRSA1024SHA512
	AlgRSA2048SHA1
	AlgRSA2048SHA256
	AlgRSA2048SHA512
	AlgRSA4096SHA1
	AlgRSA4096SHA256
	AlgRSA4096SHA512
	AlgRSA8192SHA1
	AlgRSA8192SHA256
	AlgRSA8192SHA512

	// NumAlgorithms bounds the supported-algorithm range. Any 16-bit
	// value at or above this is rejected before any table lookup.
	NumAlgorithms
)

// DigestAlgorithm identifies a message digest family.
type DigestAlgorithm int

const (
	DigestSHA1 DigestAlgorithm = iota
	DigestSHA256
	DigestSHA512
)

// algorithmInfo is one row of the immutable algorithm lookup table.
type algorithmInfo struct {
	keyBytes uint32
	digest   DigestAlgorithm
	name     string
}

var algorithmTable = [NumAlgorithms]algorithmInfo{
	AlgRSA1024SHA1:   {128, DigestSHA1, "RSA1024 SHA1"},
	AlgRSA1024SHA256: {128, DigestSHA256, "RSA1024 SHA256"},
	AlgRSA1024SHA512: {128, DigestSHA512, "RSA1024 SHA512"},
	AlgRSA2048SHA1:   {256, DigestSHA1, "RSA2048 SHA1"},
	AlgRSA2048SHA256: {256, DigestSHA256, "RSA2048 SHA256"},
	AlgRSA2048SHA512: {256, DigestSHA512, "RSA2048 SHA512"},
	AlgRSA4096SHA1:   {512, DigestSHA1, "RSA4096 SHA1"},
	AlgRSA4096SHA256: {512, DigestSHA256, "RSA4096 SHA256"},
	AlgRSA4096SHA512: {512, DigestSHA512, "RSA4096 SHA512"},
	AlgRSA8192SHA1:   {1024, DigestSHA1, "RSA8192 SHA1"},
	AlgRSA8192SHA256: {1024, DigestSHA256, "RSA8192 SHA256"},
	AlgRSA8192SHA512: {1024, DigestSHA512, "RSA8192 SHA512"},
}

// Valid reports whether the algorithm ID is within the supported range.
// Callers must check this before calling any of the table accessors.
func (a Algorithm) Valid() bool {
	return a < NumAlgorithms
}

// SignatureSize returns the signature length in bytes (the RSA modulus
// size). The algorithm must be Valid.
func (a Algorithm) SignatureSize() int {
	return int(algorithmTable[a].keyBytes)
}

// KeyBytes returns the RSA modulus size in bytes. The algorithm must be
// Valid.
func (a Algorithm) KeyBytes() int {
	return int(algorithmTable[a].keyBytes)
}

// KeyBlobSize returns the size of the processed public key blob for the
// algorithm: a length word, an n0inv word, then the modulus and the
// precomputed montgomery R*R constant, each modulus-sized. The algorithm
// must be Valid.
func (a Algorithm) KeyBlobSize() int {
	return 8 + 2*int(algorithmTable[a].keyBytes)
}

// Digest returns the digest family the algorithm signs with. The
// algorithm must be Valid.
func (a Algorithm) Digest() DigestAlgorithm {
	return algorithmTable[a].digest
}

// String returns a human-readable algorithm name.
func (a Algorithm) String() string {
	if !a.Valid() {
		return "invalid algorithm"
	}
	return algorithmTable[a].name
}

// CombineVersion builds the 32-bit logical kernel version from the
// key version (high 16 bits) and kernel version (low 16 bits). The value
// is used only for rollback comparison, never stored as-is.
func CombineVersion(keyVersion, kernelVersion uint16) uint32 {
	return uint32(keyVersion)<<16 | uint32(kernelVersion)
}
