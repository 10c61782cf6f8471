package profiles

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// MemoryRepository keeps profiles in a map. Used for tests and for
// deployments without a database DSN.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[int64]*models.UserProfile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[int64]*models.UserProfile)}
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (*models.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneProfile(p), nil
}

func (r *MemoryRepository) Create(_ context.Context, p *models.UserProfile) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.ID]; ok {
		return false, nil
	}
	r.profiles[p.ID] = cloneProfile(p)
	return true, nil
}

func (r *MemoryRepository) TouchLogin(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return common.ErrorNotFound
	}
	if at.After(p.LastLogin) {
		p.LastLogin = at
	}
	return nil
}

func (r *MemoryRepository) UpdateTier(_ context.Context, id int64, tier models.Tier, perms []models.Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Tier = tier
	p.Permissions = slices.Clone(perms)
	return nil
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	c := *p
	c.Permissions = slices.Clone(p.Permissions)
	return &c
}
