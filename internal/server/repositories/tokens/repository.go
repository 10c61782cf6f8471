// Package tokens declares the server-side repository contract for issued
// bearer tokens and ships an in-memory and a PostgreSQL implementation.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// Repository stores AuthToken records keyed by their random id.
type Repository interface {
	// Create stores rec. The signed string in rec.Token is not persisted.
	Create(ctx context.Context, rec *models.AuthToken) error

	// Find returns the record for id, or common.ErrorNotFound.
	Find(ctx context.Context, id string) (*models.AuthToken, error)

	// DeleteExpired drops every record with expires_at <= now and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
