package storage

import "errors"

// Failure classes shared by all drivers. Drivers wrap these so callers can
// pick a policy with errors.Is without knowing which backend sits below.
var (
	// ErrCorrupt means a persisted value exists but does not parse as an
	// item collection.
	ErrCorrupt = errors.New("stored data is corrupt")

	// ErrUnavailable means the backend cannot be read or written at all.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrQuota means the backend ran out of space while writing.
	ErrQuota = errors.New("storage quota exceeded")
)
