// Package storage implements the per-tier ledger stores. Every backend
// satisfies the same Backend contract; Router picks one by tier.
package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// Kind identifies a backend implementation.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindFile     Kind = "file"
	KindDatabase Kind = "database"
	KindCloud    Kind = "cloud"
)

// Backend is the read/write contract the ledger layer depends on.
//
// GetUser returns common.ErrorNotFound for unknown ids. SaveExpense assigns
// e.ID when it is zero; ids are unique within one user's collection.
// GetExpenses returns a stable order for the lifetime of the backend.
// DeleteExpense reports whether a matching row existed and was removed.
// I/O failures wrap common.ErrStorageIO or common.ErrStorageUnavailable.
type Backend interface {
	Kind() Kind
	SaveUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	SaveExpense(ctx context.Context, e *models.Expense) error
	GetExpenses(ctx context.Context, userID int64) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID, userID int64) (bool, error)
	SaveCategories(ctx context.Context, cats []models.Category) error
	GetCategories(ctx context.Context) ([]models.Category, error)
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStorageIO, op, err)
}
