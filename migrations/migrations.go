// Package migrations embeds the SQL schema.
package migrations

import "embed"

// FS holds the SQLite *.up.sql files, applied in name order.
//
//go:embed *.sql
var FS embed.FS

// PostgresFS holds the PostgreSQL schema under postgres/.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS
