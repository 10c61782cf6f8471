package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/dbx"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a token record.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (id, user_id, tier, permissions, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, int(rec.Tier), models.JoinCapabilities(rec.Permissions), rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// Find returns the token record for id.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.AuthToken, error) {
	query := `
		SELECT id, user_id, tier, permissions, created_at, expires_at
		FROM auth_tokens
		WHERE id = $1
	`
	rec := &models.AuthToken{}
	var tier int
	var perms string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.UserID, &tier, &perms, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.Tier = models.Tier(tier)
	rec.Permissions = models.SplitCapabilities(perms)
	return rec, nil
}

// DeleteExpired removes every record whose expiry is not after now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM auth_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
