package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tgledger/internal/dbx"
	"github.com/pressly/goose/v3"
)

// Up applies every pending migration of the set matching dialect.
func Up(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	var (
		gd   goose.Dialect
		fsys = SQLite()
	)
	switch dialect {
	case dbx.DialectPostgres:
		gd, fsys = goose.DialectPostgres, Postgres()
	case dbx.DialectSQLite:
		gd = goose.DialectSQLite3
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	provider, err := goose.NewProvider(gd, db, fsys)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
