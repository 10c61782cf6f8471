package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// Replica receives a full per-user snapshot after each user-scoped write.
type Replica interface {
	PutSnapshot(ctx context.Context, userID int64, data []byte) error
}

// Snapshot is the document shipped to the replica.
type Snapshot struct {
	User     *models.User     `json:"user,omitempty"`
	Expenses []models.Expense `json:"expenses"`
	TakenAt  time.Time        `json:"taken_at"`
}

// ReplicatedBackend delegates every call to its own SQLBackend and then
// ships a best-effort snapshot of the affected user to a Replica. Replica
// failures are logged and never fail the write. A nil replica disables
// shipping.
type ReplicatedBackend struct {
	primary *SQLBackend
	replica Replica
	log     logging.Logger
	now     func() time.Time
}

func NewReplicatedBackend(primary *SQLBackend, replica Replica, log logging.Logger) *ReplicatedBackend {
	return &ReplicatedBackend{
		primary: primary,
		replica: replica,
		log:     log.With("module", "storage.replicated"),
		now:     time.Now,
	}
}

func (b *ReplicatedBackend) Kind() Kind { return KindCloud }

func (b *ReplicatedBackend) Close() error { return b.primary.Close() }

func (b *ReplicatedBackend) SaveUser(ctx context.Context, u *models.User) error {
	if err := b.primary.SaveUser(ctx, u); err != nil {
		return err
	}
	b.replicate(ctx, u.ID)
	return nil
}

func (b *ReplicatedBackend) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return b.primary.GetUser(ctx, id)
}

func (b *ReplicatedBackend) SaveExpense(ctx context.Context, e *models.Expense) error {
	if err := b.primary.SaveExpense(ctx, e); err != nil {
		return err
	}
	b.replicate(ctx, e.UserID)
	return nil
}

func (b *ReplicatedBackend) GetExpenses(ctx context.Context, userID int64) ([]models.Expense, error) {
	return b.primary.GetExpenses(ctx, userID)
}

func (b *ReplicatedBackend) DeleteExpense(ctx context.Context, expenseID, userID int64) (bool, error) {
	ok, err := b.primary.DeleteExpense(ctx, expenseID, userID)
	if err != nil || !ok {
		return ok, err
	}
	b.replicate(ctx, userID)
	return true, nil
}

func (b *ReplicatedBackend) SaveCategories(ctx context.Context, cats []models.Category) error {
	return b.primary.SaveCategories(ctx, cats)
}

func (b *ReplicatedBackend) GetCategories(ctx context.Context) ([]models.Category, error) {
	return b.primary.GetCategories(ctx)
}

func (b *ReplicatedBackend) replicate(ctx context.Context, userID int64) {
	if b.replica == nil {
		return
	}

	snap := Snapshot{TakenAt: b.now().UTC()}
	if u, err := b.primary.GetUser(ctx, userID); err == nil {
		snap.User = u
	}
	expenses, err := b.primary.GetExpenses(ctx, userID)
	if err != nil {
		b.log.Warn(ctx, "snapshot read failed", "user_id", userID, "error", err)
		return
	}
	snap.Expenses = expenses
	if snap.Expenses == nil {
		snap.Expenses = []models.Expense{}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		b.log.Warn(ctx, "snapshot encode failed", "user_id", userID, "error", err)
		return
	}
	if err := b.replica.PutSnapshot(ctx, userID, data); err != nil {
		b.log.Warn(ctx, "replica write failed", "user_id", userID, "error", err)
		return
	}
	b.log.Debug(ctx, "snapshot replicated", "user_id", userID, "expenses", len(snap.Expenses))
}
