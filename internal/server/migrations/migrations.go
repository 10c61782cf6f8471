// Package migrations embeds the goose migration sets. The postgres set holds
// the auth tables (profiles, auth_tokens) and the ledger tables; the sqlite
// set holds only the ledger tables.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Postgres returns the PostgreSQL migration set rooted at its directory.
func Postgres() fs.FS { return sub("postgres") }

// SQLite returns the SQLite migration set rooted at its directory.
func SQLite() fs.FS { return sub("sqlite") }

func sub(dir string) fs.FS {
	f, err := fs.Sub(Migrations, dir)
	if err != nil {
		// dir is a compile-time constant matching the embed pattern
		panic(err)
	}
	return f
}
