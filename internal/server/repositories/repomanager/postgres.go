package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tgledger/internal/dbx"
	"github.com/dmitrijs2005/tgledger/internal/server/migrations"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/tokens"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound to
// one connection pool and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db       *sql.DB
	profiles *profiles.PostgresRepository
	tokens   *tokens.PostgresRepository
}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// NewPostgresRepositoryManager wraps an open pool. The manager owns db and
// closes it in Close.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		db:       db,
		profiles: profiles.NewPostgresRepository(db),
		tokens:   tokens.NewPostgresRepository(db),
	}
}

// OpenPostgresRepositoryManager dials dsn and wraps the resulting pool.
func OpenPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := dbx.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}

func (m *PostgresRepositoryManager) Profiles() profiles.Repository { return m.profiles }

func (m *PostgresRepositoryManager) Tokens() tokens.Repository { return m.tokens }

// RunMigrations applies the embedded PostgreSQL migration set.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := migrateUp(ctx, m.db, dbx.DialectPostgres); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
