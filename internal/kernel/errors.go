package kernel

import "errors"

// Verification error taxonomy. Every pipeline stage fails fast with one
// of these; the caller decides whether to try the other candidate or
// fall to recovery.
var (
	// ErrWrongMagic reports a magic prefix mismatch.
	ErrWrongMagic = errors.New("kernel: wrong magic")

	// ErrInvalidImage reports a malformed image: header length mismatch,
	// header hash mismatch, or a blob too short for its declared layout.
	ErrInvalidImage = errors.New("kernel: invalid image")

	// ErrInvalidAlgorithm reports a firmware or kernel algorithm ID
	// outside the supported range.
	ErrInvalidAlgorithm = errors.New("kernel: invalid algorithm")

	// ErrKeySignatureFailed reports a failed firmware-key signature over
	// the header.
	ErrKeySignatureFailed = errors.New("kernel: key signature failed")

	// ErrConfigSignatureFailed reports a failed config block signature.
	ErrConfigSignatureFailed = errors.New("kernel: config signature failed")

	// ErrDataSignatureFailed reports a failed kernel data signature.
	ErrDataSignatureFailed = errors.New("kernel: data signature failed")
)
