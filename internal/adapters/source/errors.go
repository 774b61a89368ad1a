package source

import "errors"

var (
	// ErrFetch indicates the board could not be reached or returned a
	// non-success status.
	ErrFetch = errors.New("fetching postings failed")
	// ErrDecode indicates the board responded with a payload the adapter
	// could not parse.
	ErrDecode = errors.New("decoding board response failed")
	// ErrMisconfigured indicates the source settings are incomplete.
	ErrMisconfigured = errors.New("source is misconfigured")
)
