package tokens

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	tokens map[string]models.AuthToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]models.AuthToken)}
}

func (r *MemoryRepository) Create(_ context.Context, rec *models.AuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *rec
	c.Token = ""
	c.Permissions = slices.Clone(rec.Permissions)
	r.tokens[rec.ID] = c
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, id string) (*models.AuthToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.tokens[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	rec.Permissions = slices.Clone(rec.Permissions)
	return &rec, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, rec := range r.tokens {
		if !rec.Valid(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}
