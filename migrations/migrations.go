// Package migrations embeds the schema migrations for every SQL dialect.
package migrations

import "embed"

// FS holds one directory per dialect: postgres and sqlite.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
