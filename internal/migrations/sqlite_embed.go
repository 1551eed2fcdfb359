package migrations

import "embed"

// SQLite holds the goose migrations for the kv_store schema.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
