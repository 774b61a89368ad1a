// Package repository defines the posting store interface and errors.
package repository

import (
	"context"

	"jobwatch/internal/domain/model"
)

// Store provides persistent, URL-keyed access to seen postings. Uniqueness
// by URL is enforced inside the store: callers never pre-check before Add.
type Store interface {
	// Exists reports whether a posting with this URL is already persisted.
	Exists(ctx context.Context, url string) (bool, error)

	// Add inserts the posting iff its URL is not already present. Returns
	// true when the insert happened, false when the URL was already known.
	// A concurrent duplicate insert is treated the same as "already exists";
	// it is never surfaced as an error.
	Add(ctx context.Context, p model.Posting) (bool, error)

	// MarkNotified transitions the entry's notified flag to true. Calling it
	// on an already-notified or nonexistent URL is a no-op.
	MarkNotified(ctx context.Context, url string) error

	// Unnotified returns every persisted posting whose flag is still false,
	// ordered by first-seen time then insertion order.
	Unnotified(ctx context.Context) ([]model.Posting, error)

	// Count returns the total number of persisted postings.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying storage handle.
	Close() error
}
