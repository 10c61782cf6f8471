package profiles

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

// Get returns the profile row for id, or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.UserProfile, error) {
	query := `
		SELECT id, first_name, last_name, username, tier, permissions, is_active, created_at, last_login
		FROM profiles
		WHERE id = $1
	`
	p := &models.UserProfile{}
	var tier int
	var perms string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Username, &tier, &perms, &p.IsActive, &p.CreatedAt, &p.LastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.Tier = models.Tier(tier)
	p.Permissions = models.SplitCapabilities(perms)
	return p, nil
}

// Create inserts the profile; a conflicting id leaves the stored row alone.
func (r *PostgresRepository) Create(ctx context.Context, p *models.UserProfile) (bool, error) {
	query := `
		INSERT INTO profiles (id, first_name, last_name, username, tier, permissions, is_active, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Username, int(p.Tier), models.JoinCapabilities(p.Permissions),
		p.IsActive, p.CreatedAt, p.LastLogin)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

// TouchLogin advances last_login; GREATEST keeps it monotonic under races.
func (r *PostgresRepository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE profiles SET last_login = GREATEST(last_login, $2)
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// UpdateTier rewrites tier and permission cache for id.
func (r *PostgresRepository) UpdateTier(ctx context.Context, id int64, tier models.Tier, perms []models.Capability) error {
	query := `
		UPDATE profiles SET tier = $2, permissions = $3
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, int(tier), models.JoinCapabilities(perms))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
