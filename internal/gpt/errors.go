package gpt

import "errors"

var (
	// ErrHeaderInvalid reports that a header copy failed validation.
	ErrHeaderInvalid = errors.New("gpt: invalid header")

	// ErrEntriesInvalid reports that an entry array copy failed validation.
	ErrEntriesInvalid = errors.New("gpt: invalid entry array")

	// ErrUnrecoverableCorruption reports that both copies of a structure
	// are invalid at once, which no repair can recover from.
	ErrUnrecoverableCorruption = errors.New("gpt: both copies corrupt, unrecoverable")

	// ErrEntryIndex reports an entry index outside number_of_entries.
	ErrEntryIndex = errors.New("gpt: entry index out of range")
)
