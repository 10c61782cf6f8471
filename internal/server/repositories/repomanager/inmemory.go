package repomanager

import (
	"context"

	"github.com/dmitrijs2005/tgledger/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/tokens"
)

// InMemoryRepositoryManager keeps profiles and tokens in process memory.
// Everything is lost on restart.
type InMemoryRepositoryManager struct {
	profiles *profiles.MemoryRepository
	tokens   *tokens.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		profiles: profiles.NewMemoryRepository(),
		tokens:   tokens.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Profiles() profiles.Repository { return m.profiles }

func (m *InMemoryRepositoryManager) Tokens() tokens.Repository { return m.tokens }

func (m *InMemoryRepositoryManager) Close() error { return nil }
