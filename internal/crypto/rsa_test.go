package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-vboot/internal/types"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

// testRSAKey returns a shared 1024-bit key; generation is slow enough to
// be worth amortizing across the package's tests.
func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 1024)
		if err != nil {
			panic(err)
		}
	})
	return testKey
}

func TestMarshalParseKeyRoundTrip(t *testing.T) {
	key := testRSAKey(t)
	alg := types.AlgRSA1024SHA256

	blob, err := MarshalKey(&key.PublicKey, alg)
	require.NoError(t, err)
	require.Len(t, blob, alg.KeyBlobSize())

	v := NewVerifier()
	parsed, err := v.ParseKey(blob, alg)
	require.NoError(t, err)

	pub, ok := parsed.(*rsa.PublicKey)
	require.True(t, ok)
	assert.Zero(t, pub.N.Cmp(key.N))
	assert.Equal(t, 65537, pub.E)
}

func TestParseKeyRejects(t *testing.T) {
	key := testRSAKey(t)
	alg := types.AlgRSA1024SHA256
	blob, err := MarshalKey(&key.PublicKey, alg)
	require.NoError(t, err)

	v := NewVerifier()

	t.Run("WrongBlobSize", func(t *testing.T) {
		_, err := v.ParseKey(blob[:len(blob)-1], alg)
		assert.Error(t, err)
	})

	t.Run("WrongAlgorithmForBlob", func(t *testing.T) {
		_, err := v.ParseKey(blob, types.AlgRSA2048SHA256)
		assert.Error(t, err)
	})

	t.Run("InvalidAlgorithm", func(t *testing.T) {
		_, err := v.ParseKey(blob, types.NumAlgorithms)
		assert.Error(t, err)
	})

	t.Run("CorruptLengthWord", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[0]++
		_, err := v.ParseKey(bad, alg)
		assert.Error(t, err)
	})

	t.Run("EvenModulus", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[8] &^= 0x01 // clear the modulus LSB
		_, err := v.ParseKey(bad, alg)
		assert.Error(t, err)
	})
}

func TestMarshalKeyRejects(t *testing.T) {
	key := testRSAKey(t)

	t.Run("WrongModulusSize", func(t *testing.T) {
		_, err := MarshalKey(&key.PublicKey, types.AlgRSA2048SHA256)
		assert.Error(t, err)
	})

	t.Run("WrongExponent", func(t *testing.T) {
		bad := key.PublicKey
		bad.E = 3
		_, err := MarshalKey(&bad, types.AlgRSA1024SHA256)
		assert.Error(t, err)
	})
}

func TestVerify(t *testing.T) {
	key := testRSAKey(t)
	alg := types.AlgRSA1024SHA256
	message := []byte("boot me maybe")

	digest := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, stdcrypto.SHA256, digest[:])
	require.NoError(t, err)

	v := NewVerifier()
	pub, err := v.ParseKey(mustMarshal(t, key, alg), alg)
	require.NoError(t, err)

	t.Run("GoodSignature", func(t *testing.T) {
		assert.True(t, v.Verify(pub, message, sig, alg))
	})

	t.Run("GoodDigest", func(t *testing.T) {
		assert.True(t, v.VerifyDigest(pub, digest[:], sig, alg))
	})

	t.Run("GoodBlob", func(t *testing.T) {
		assert.True(t, v.VerifyBlob(mustMarshal(t, key, alg), message, sig, alg))
	})

	t.Run("TamperedMessage", func(t *testing.T) {
		bad := append([]byte(nil), message...)
		bad[0] ^= 0x01
		assert.False(t, v.Verify(pub, bad, sig, alg))
	})

	t.Run("TamperedSignature", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		bad[10] ^= 0x01
		assert.False(t, v.Verify(pub, message, bad, alg))
	})

	t.Run("TruncatedSignature", func(t *testing.T) {
		assert.False(t, v.Verify(pub, message, sig[:len(sig)-1], alg))
	})

	t.Run("WrongDigestFamily", func(t *testing.T) {
		assert.False(t, v.Verify(pub, message, sig, types.AlgRSA1024SHA512))
	})

	t.Run("NotAnRSAKey", func(t *testing.T) {
		assert.False(t, v.Verify("not a key", message, sig, alg))
	})

	t.Run("InvalidAlgorithm", func(t *testing.T) {
		assert.False(t, v.Verify(pub, message, sig, types.NumAlgorithms))
	})
}

func mustMarshal(t *testing.T, key *rsa.PrivateKey, alg types.Algorithm) []byte {
	t.Helper()
	blob, err := MarshalKey(&key.PublicKey, alg)
	require.NoError(t, err)
	return blob
}

func TestDigestProvider(t *testing.T) {
	p := NewDigestProvider()

	t.Run("OneShotMatchesIncremental", func(t *testing.T) {
		data := []byte("0123456789abcdef")
		for _, alg := range []types.DigestAlgorithm{
			types.DigestSHA1, types.DigestSHA256, types.DigestSHA512,
		} {
			oneShot, err := p.Digest(data, alg)
			require.NoError(t, err)

			ctx, err := p.NewDigest(alg)
			require.NoError(t, err)
			ctx.Update(data[:7])
			ctx.Update(data[7:])
			assert.Equal(t, oneShot, ctx.Final(), "digest alg %d", alg)
		}
	})

	t.Run("KnownSHA256", func(t *testing.T) {
		want := sha256.Sum256([]byte("abc"))
		got, err := p.Digest([]byte("abc"), types.DigestSHA256)
		require.NoError(t, err)
		assert.Equal(t, want[:], got)
	})

	t.Run("UnknownAlgorithm", func(t *testing.T) {
		_, err := p.Digest(nil, types.DigestAlgorithm(99))
		assert.Error(t, err)
		_, err = p.NewDigest(types.DigestAlgorithm(99))
		assert.Error(t, err)
	})
}
