// Package migrations holds the SQL schema applied at startup
package migrations

import "embed"

// FS contains the numbered migration files, e.g. 001_initial_schema.sql
//
//go:embed *.sql
var FS embed.FS
