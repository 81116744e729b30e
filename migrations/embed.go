// Package migrations embeds the goose SQL migrations for the smart-agen schema.
package migrations

import "embed"

// FS holds every *.sql migration. cmd/api applies it through a goose
// provider when MIGRATE_ON_START is set; integration test mains apply it
// before any repo test runs.
//
//go:embed *.sql
var FS embed.FS
