package migrations

import "embed"

// Files holds the goose SQL migrations for the proofing schema.
//
//go:embed *.sql
var Files embed.FS
