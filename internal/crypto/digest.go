// Package crypto provides the concrete digest and signature providers
// the kernel verification engine is wired with: SHA-family digests and
// RSA-PKCS1v15 signature verification over the processed public key
// blob format embedded in kernel images.
package crypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/deploymenttheory/go-vboot/internal/interfaces"
	"github.com/deploymenttheory/go-vboot/internal/types"
)

// DigestProvider implements interfaces.DigestProvider with the standard
// library SHA implementations.
type DigestProvider struct{}

// NewDigestProvider returns a SHA-family digest provider.
func NewDigestProvider() *DigestProvider {
	return &DigestProvider{}
}

func newHash(alg types.DigestAlgorithm) (hash.Hash, error) {
	switch alg {
	case types.DigestSHA1:
		return sha1.New(), nil
	case types.DigestSHA256:
		return sha256.New(), nil
	case types.DigestSHA512:
		return sha512.New(), nil
	}
	return nil, fmt.Errorf("unsupported digest algorithm %d", alg)
}

// Digest computes a one-shot digest of data.
func (p *DigestProvider) Digest(data []byte, alg types.DigestAlgorithm) ([]byte, error) {
	h, err := newHash(alg)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// NewDigest returns a fresh incremental digest context.
func (p *DigestProvider) NewDigest(alg types.DigestAlgorithm) (interfaces.Digest, error) {
	h, err := newHash(alg)
	if err != nil {
		return nil, err
	}
	return &digestContext{h: h}, nil
}

type digestContext struct {
	h hash.Hash
}

func (c *digestContext) Update(data []byte) {
	c.h.Write(data)
}

func (c *digestContext) Final() []byte {
	return c.h.Sum(nil)
}
