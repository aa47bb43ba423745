package migrations

import "embed"

// FS contains embedded SQLite migrations for sketch storage.
//
//go:embed *.sql
var FS embed.FS
