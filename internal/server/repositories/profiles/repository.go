// Package profiles declares the repository contract for auth-side user
// profiles and ships an in-memory and a PostgreSQL implementation.
package profiles

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// Repository stores one UserProfile per identity id.
type Repository interface {
	// Get returns the profile for id or common.ErrorNotFound.
	Get(ctx context.Context, id int64) (*models.UserProfile, error)

	// Create inserts p unless a profile with the same id already exists.
	// It reports whether the row was inserted. Two concurrent calls for the
	// same id never both return true.
	Create(ctx context.Context, p *models.UserProfile) (bool, error)

	// TouchLogin moves last_login forward to at. It never moves it back.
	TouchLogin(ctx context.Context, id int64, at time.Time) error

	// UpdateTier replaces the tier and its permission cache.
	// Returns common.ErrorNotFound when there is no such profile.
	UpdateTier(ctx context.Context, id int64, tier models.Tier, perms []models.Capability) error
}
