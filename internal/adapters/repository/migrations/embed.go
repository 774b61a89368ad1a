// Package migrations embeds the SQLite schema for the posting store.
package migrations

import "embed"

// FS contains embedded SQLite migrations for the posting store.
//
//go:embed *.sql
var FS embed.FS
