// Package migrations embeds the PostgreSQL schema so the API and
// cmd/migrate apply the same files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
