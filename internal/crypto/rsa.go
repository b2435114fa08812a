package crypto

import (
	stdcrypto "crypto"
	"crypto/rsa"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/deploymenttheory/go-vboot/internal/interfaces"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// rsaExponent is the fixed public exponent of all supported keys.
const rsaExponent = 65537

// Verifier implements interfaces.SignatureVerifier for the RSA-PKCS1v15
// algorithm family.
type Verifier struct {
	digests *DigestProvider
}

// NewVerifier returns an RSA signature verifier.
func NewVerifier() *Verifier {
	return &Verifier{digests: NewDigestProvider()}
}

// ParseKey constructs a public key from a processed key blob:
//
//	uint32 len       modulus size in 32-bit words
//	uint32 n0inv     -1/n[0] mod 2^32 (montgomery constant, unused here)
//	uint32 n[len]    modulus, least significant word first
//	uint32 rr[len]   R*R mod n (montgomery constant, unused here)
//
// The montgomery constants are part of the on-disk format and are
// validated for size, but software verification only needs the modulus.
func (v *Verifier) ParseKey(blob []byte, alg types.Algorithm) (interfaces.PublicKey, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("algorithm %d out of range", alg)
	}
	if len(blob) != alg.KeyBlobSize() {
		return nil, fmt.Errorf("key blob size %d, expected %d for %s",
			len(blob), alg.KeyBlobSize(), alg)
	}

	words := binary.LittleEndian.Uint32(blob[0:4])
	if int(words)*4 != alg.KeyBytes() {
		return nil, fmt.Errorf("key blob declares %d words, expected %d",
			words, alg.KeyBytes()/4)
	}

	n := new(big.Int)
	for i := int(words) - 1; i >= 0; i-- {
		word := binary.LittleEndian.Uint32(blob[8+4*i : 12+4*i])
		n.Lsh(n, 32)
		n.Or(n, big.NewInt(int64(word)))
	}
	if n.Bit(0) == 0 {
		return nil, fmt.Errorf("modulus is even")
	}
	if (n.BitLen()+7)/8 != alg.KeyBytes() {
		return nil, fmt.Errorf("modulus is %d bits, expected %d",
			n.BitLen(), alg.KeyBytes()*8)
	}

	return &rsa.PublicKey{N: n, E: rsaExponent}, nil
}

// Verify reports whether sig is a valid signature over message.
func (v *Verifier) Verify(key interfaces.PublicKey, message, sig []byte, alg types.Algorithm) bool {
	if !alg.Valid() {
		return false
	}
	digest, err := v.digests.Digest(message, alg.Digest())
	if err != nil {
		return false
	}
	return v.VerifyDigest(key, digest, sig, alg)
}

// VerifyDigest reports whether sig is a valid signature over a message
// with the given precomputed digest.
func (v *Verifier) VerifyDigest(key interfaces.PublicKey, digest, sig []byte, alg types.Algorithm) bool {
	if !alg.Valid() {
		return false
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok || pub == nil {
		return false
	}
	if len(sig) != alg.SignatureSize() {
		return false
	}
	return rsa.VerifyPKCS1v15(pub, cryptoHash(alg.Digest()), digest, sig) == nil
}

// VerifyBlob is Verify with key parsing folded in.
func (v *Verifier) VerifyBlob(keyBlob, message, sig []byte, alg types.Algorithm) bool {
	key, err := v.ParseKey(keyBlob, alg)
	if err != nil {
		return false
	}
	return v.Verify(key, message, sig, alg)
}

func cryptoHash(alg types.DigestAlgorithm) stdcrypto.Hash {
	switch alg {
	case types.DigestSHA1:
		return stdcrypto.SHA1
	case types.DigestSHA256:
		return stdcrypto.SHA256
	default:
		return stdcrypto.SHA512
	}
}

// MarshalKey serializes an RSA public key into the processed key blob
// format, computing the montgomery constants the format carries. Used by
// image packing tooling and tests.
func MarshalKey(pub *rsa.PublicKey, alg types.Algorithm) ([]byte, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("algorithm %d out of range", alg)
	}
	if pub.E != rsaExponent {
		return nil, fmt.Errorf("unsupported public exponent %d", pub.E)
	}
	keyBytes := alg.KeyBytes()
	if (pub.N.BitLen()+7)/8 != keyBytes {
		return nil, fmt.Errorf("modulus is %d bits, expected %d for %s",
			pub.N.BitLen(), keyBytes*8, alg)
	}

	words := keyBytes / 4
	blob := make([]byte, alg.KeyBlobSize())
	binary.LittleEndian.PutUint32(blob[0:4], uint32(words))

	// n0inv = -1/n[0] mod 2^32.
	b := new(big.Int).Lsh(big.NewInt(1), 32)
	n0 := new(big.Int).Mod(pub.N, b)
	n0inv := new(big.Int).ModInverse(n0, b)
	if n0inv == nil {
		return nil, fmt.Errorf("modulus has no inverse mod 2^32")
	}
	n0inv.Neg(n0inv).Mod(n0inv, b)
	binary.LittleEndian.PutUint32(blob[4:8], uint32(n0inv.Uint64()))

	putWords := func(dst []byte, x *big.Int) {
		rem := new(big.Int).Set(x)
		word := new(big.Int)
		for i := 0; i < words; i++ {
			word.And(rem, big.NewInt(0xFFFFFFFF))
			binary.LittleEndian.PutUint32(dst[4*i:4*i+4], uint32(word.Uint64()))
			rem.Rsh(rem, 32)
		}
	}
	putWords(blob[8:8+keyBytes], pub.N)

	// rr = R^2 mod n, with R = 2^(modulus bits).
	rr := new(big.Int).Lsh(big.NewInt(1), uint(2*keyBytes*8))
	rr.Mod(rr, pub.N)
	putWords(blob[8+keyBytes:], rr)

	return blob, nil
}
