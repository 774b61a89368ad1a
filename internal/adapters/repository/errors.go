package repository

import "errors"

// Sentinel kinds for posting store errors.
var (
	// ErrStoreUnavailable wraps failures of the underlying storage medium.
	// Unlike duplicate inserts, these abort the whole cycle.
	ErrStoreUnavailable = errors.New("posting store unavailable")
)
