package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/filex"
	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// FileBackend keeps one JSON document per (user, entity kind) under dir:
// user_<id>.json, expenses_<id>.json and a global categories.json.
// Every write rewrites the whole file atomically. Writers for the same user
// are serialized; different users proceed in parallel.
type FileBackend struct {
	dir   string
	users *keyedMutex
	catMu sync.Mutex
	log   logging.Logger
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string, log logging.Logger) (*FileBackend, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, ioError("init", err)
	}
	return &FileBackend{
		dir:   abs,
		users: newKeyedMutex(),
		log:   log.With("module", "storage.file"),
	}, nil
}

func (b *FileBackend) Kind() Kind { return KindFile }

func (b *FileBackend) userPath(id int64) string {
	return filepath.Join(b.dir, fmt.Sprintf("user_%d.json", id))
}

func (b *FileBackend) expensesPath(userID int64) string {
	return filepath.Join(b.dir, fmt.Sprintf("expenses_%d.json", userID))
}

func (b *FileBackend) categoriesPath() string {
	return filepath.Join(b.dir, "categories.json")
}

func (b *FileBackend) SaveUser(ctx context.Context, u *models.User) error {
	unlock := b.users.Lock(u.ID)
	defer unlock()
	return b.writeJSON(ctx, b.userPath(u.ID), u)
}

func (b *FileBackend) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	ok, err := b.readJSON(ctx, b.userPath(id), u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// SaveExpense assigns max(id)+1 to a new expense, or replaces the row with
// the same id.
func (b *FileBackend) SaveExpense(ctx context.Context, e *models.Expense) error {
	unlock := b.users.Lock(e.UserID)
	defer unlock()

	list, err := b.loadExpenses(ctx, e.UserID)
	if err != nil {
		return err
	}

	row := *e
	row.Category = nil

	if row.ID == 0 {
		var maxID int64
		for _, x := range list {
			maxID = max(maxID, x.ID)
		}
		row.ID = maxID + 1
		list = append(list, row)
	} else if i := slices.IndexFunc(list, func(x models.Expense) bool { return x.ID == row.ID }); i >= 0 {
		list[i] = row
	} else {
		list = append(list, row)
	}

	if err := b.writeJSON(ctx, b.expensesPath(e.UserID), list); err != nil {
		return err
	}
	e.ID = row.ID
	return nil
}

func (b *FileBackend) GetExpenses(ctx context.Context, userID int64) ([]models.Expense, error) {
	return b.loadExpenses(ctx, userID)
}

func (b *FileBackend) DeleteExpense(ctx context.Context, expenseID, userID int64) (bool, error) {
	unlock := b.users.Lock(userID)
	defer unlock()

	list, err := b.loadExpenses(ctx, userID)
	if err != nil {
		return false, err
	}
	i := slices.IndexFunc(list, func(x models.Expense) bool { return x.ID == expenseID })
	if i < 0 {
		return false, nil
	}
	list = slices.Delete(list, i, i+1)
	if err := b.writeJSON(ctx, b.expensesPath(userID), list); err != nil {
		return false, err
	}
	return true, nil
}

func (b *FileBackend) SaveCategories(ctx context.Context, cats []models.Category) error {
	b.catMu.Lock()
	defer b.catMu.Unlock()
	if cats == nil {
		cats = []models.Category{}
	}
	return b.writeJSON(ctx, b.categoriesPath(), cats)
}

func (b *FileBackend) GetCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if _, err := b.readJSON(ctx, b.categoriesPath(), &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (b *FileBackend) loadExpenses(ctx context.Context, userID int64) ([]models.Expense, error) {
	var list []models.Expense
	if _, err := b.readJSON(ctx, b.expensesPath(userID), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// readJSON decodes path into v. A missing file is reported as ok=false.
func (b *FileBackend) readJSON(ctx context.Context, path string, v any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, ok, err := filex.ReadFileIfExists(path)
	if err != nil {
		b.log.Error(ctx, "read failed", "path", path, "error", err)
		return false, ioError("read "+filepath.Base(path), err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		b.log.Error(ctx, "decode failed", "path", path, "error", err)
		return false, ioError("decode "+filepath.Base(path), err)
	}
	return true, nil
}

func (b *FileBackend) writeJSON(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ioError("encode "+filepath.Base(path), err)
	}
	if err := filex.WriteFileAtomic(path, data, 0o640); err != nil {
		b.log.Error(ctx, "write failed", "path", path, "error", err)
		return ioError("write "+filepath.Base(path), err)
	}
	return nil
}
