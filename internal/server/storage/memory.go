package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// MemoryBackend keeps everything in process memory. Used for guests; data
// is gone after a restart.
type MemoryBackend struct {
	mu         sync.RWMutex
	users      map[int64]models.User
	expenses   map[int64][]models.Expense
	lastID     map[int64]int64
	categories []models.Category
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		users:    make(map[int64]models.User),
		expenses: make(map[int64][]models.Expense),
		lastID:   make(map[int64]int64),
	}
}

func (b *MemoryBackend) Kind() Kind { return KindMemory }

func (b *MemoryBackend) SaveUser(_ context.Context, u *models.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[u.ID] = *u
	return nil
}

func (b *MemoryBackend) GetUser(_ context.Context, id int64) (*models.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	u, ok := b.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

// SaveExpense appends e, or replaces the row with the same id. Ids come
// from a per-user counter and are never reused.
func (b *MemoryBackend) SaveExpense(_ context.Context, e *models.Expense) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row := *e
	row.Category = nil

	list := b.expenses[e.UserID]
	if e.ID == 0 {
		b.lastID[e.UserID]++
		e.ID = b.lastID[e.UserID]
		row.ID = e.ID
		b.expenses[e.UserID] = append(list, row)
		return nil
	}

	if e.ID > b.lastID[e.UserID] {
		b.lastID[e.UserID] = e.ID
	}
	if i := slices.IndexFunc(list, func(x models.Expense) bool { return x.ID == e.ID }); i >= 0 {
		list[i] = row
		return nil
	}
	b.expenses[e.UserID] = append(list, row)
	return nil
}

func (b *MemoryBackend) GetExpenses(_ context.Context, userID int64) ([]models.Expense, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.expenses[userID]), nil
}

func (b *MemoryBackend) DeleteExpense(_ context.Context, expenseID, userID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.expenses[userID]
	i := slices.IndexFunc(list, func(x models.Expense) bool { return x.ID == expenseID })
	if i < 0 {
		return false, nil
	}
	b.expenses[userID] = slices.Delete(slices.Clone(list), i, i+1)
	return true, nil
}

func (b *MemoryBackend) SaveCategories(_ context.Context, cats []models.Category) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.categories = slices.Clone(cats)
	return nil
}

func (b *MemoryBackend) GetCategories(context.Context) ([]models.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.categories), nil
}
