// Package repomanager vends the auth-side repositories (profiles and tokens)
// from a single backing store and owns its schema migrations.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/tgledger/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/tokens"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Profiles() profiles.Repository
	Tokens() tokens.Repository
	Close() error
}
