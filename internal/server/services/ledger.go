package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/events"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/dmitrijs2005/tgledger/internal/server/storage"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LedgerService implements expenses, categories, statistics and the bank
// balance on top of whichever backend the user's tier maps to.
type LedgerService struct {
	profiles *ProfileService
	router   *storage.Router
	sink     events.Sink
	log      logging.Logger
	now      func() time.Time
}

func NewLedgerService(profiles *ProfileService, router *storage.Router, sink events.Sink, log logging.Logger) *LedgerService {
	if sink == nil {
		sink = events.Nop{}
	}
	return &LedgerService{
		profiles: profiles,
		router:   router,
		sink:     sink,
		log:      log.With("module", "ledger"),
		now:      time.Now,
	}
}

// AddExpense validates and stores a new expense and returns it with its
// category attached.
func (s *LedgerService) AddExpense(ctx context.Context, userID int64, amount decimal.Decimal, categoryID int64, description string) (*models.Expense, error) {
	if !amount.IsPositive() {
		return nil, common.ErrNonPositiveAmount
	}

	profile, backend, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	cats, err := backend.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	cat, ok := findCategory(cats, categoryID)
	if !ok {
		return nil, common.ErrUnknownCategory
	}

	if _, err := s.ensureUser(ctx, backend, profileClaims(profile)); err != nil {
		return nil, err
	}

	e := &models.Expense{
		UserID:      userID,
		Amount:      amount,
		CategoryID:  categoryID,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	}
	if err := backend.SaveExpense(ctx, e); err != nil {
		return nil, err
	}
	e.Category = &cat

	s.publish(ctx, events.Event{Type: events.ExpenseCreated, UserID: userID, ExpenseID: e.ID, Amount: amount, At: e.CreatedAt})
	return e, nil
}

// DeleteExpense removes one of the user's expenses.
func (s *LedgerService) DeleteExpense(ctx context.Context, userID, expenseID int64) error {
	_, backend, err := s.resolve(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := backend.DeleteExpense(ctx, expenseID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrExpenseNotFound
	}

	s.publish(ctx, events.Event{Type: events.ExpenseDeleted, UserID: userID, ExpenseID: expenseID, At: s.now().UTC()})
	return nil
}

// ListExpenses returns the user's expenses, categories attached, and their
// exact sum.
func (s *LedgerService) ListExpenses(ctx context.Context, userID int64) ([]models.Expense, decimal.Decimal, error) {
	_, backend, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	list, err := backend.GetExpenses(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	cats, err := backend.GetCategories(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}

	total := decimal.Zero
	for i := range list {
		if c, ok := findCategory(cats, list[i].CategoryID); ok {
			list[i].Category = &c
		}
		total = total.Add(list[i].Amount)
	}
	if list == nil {
		list = []models.Expense{}
	}
	return list, total, nil
}

// Statistics aggregates the user's expenses per category. Rows follow the
// order in which each category first appears; percentages are rounded to
// one decimal and are zero when the total is zero.
func (s *LedgerService) Statistics(ctx context.Context, userID int64) (*models.Statistics, error) {
	list, total, err := s.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.Statistics{Total: total, Count: len(list), PerCategory: []models.CategoryStat{}}
	index := make(map[int64]int)
	for _, e := range list {
		i, ok := index[e.CategoryID]
		if !ok {
			cat := models.Category{ID: e.CategoryID, Name: "Unknown"}
			if e.Category != nil {
				cat = *e.Category
			}
			i = len(stats.PerCategory)
			index[e.CategoryID] = i
			stats.PerCategory = append(stats.PerCategory, models.CategoryStat{Category: cat, Amount: decimal.Zero})
		}
		stats.PerCategory[i].Amount = stats.PerCategory[i].Amount.Add(e.Amount)
	}

	for i := range stats.PerCategory {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = stats.PerCategory[i].Amount.Mul(hundred).Div(total).Round(1)
		}
		stats.PerCategory[i].Percentage = pct
	}
	return stats, nil
}

// Categories lists the categories of the user's backend.
func (s *LedgerService) Categories(ctx context.Context, userID int64) ([]models.Category, error) {
	_, backend, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	cats, err := backend.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

// BankBalance returns the balance kept on the user's ledger record.
func (s *LedgerService) BankBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	profile, backend, err := s.resolve(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	u, err := s.ensureUser(ctx, backend, profileClaims(profile))
	if err != nil {
		return decimal.Zero, err
	}
	return u.BankBalance, nil
}

// SetBankBalance overwrites the balance. Negative values are rejected.
func (s *LedgerService) SetBankBalance(ctx context.Context, userID int64, amount decimal.Decimal) (*models.User, error) {
	if amount.IsNegative() {
		return nil, common.ErrNegativeBalance
	}
	profile, backend, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	u, err := s.ensureUser(ctx, backend, profileClaims(profile))
	if err != nil {
		return nil, err
	}
	u.BankBalance = amount
	if err := backend.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureUser makes sure the ledger record for profile exists in its tier's
// backend, creating it from claims when missing.
func (s *LedgerService) EnsureUser(ctx context.Context, profile *models.UserProfile, claims models.IdentityClaims) (*models.User, error) {
	claims.ID = profile.ID
	return s.ensureUser(ctx, s.router.Select(profile.Tier), claims)
}

// Storage describes the backend serving tier.
func (s *LedgerService) Storage(tier models.Tier) storage.Info {
	return s.router.Describe(tier)
}

func (s *LedgerService) resolve(ctx context.Context, userID int64) (*models.UserProfile, storage.Backend, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return profile, s.router.Select(profile.Tier), nil
}

func (s *LedgerService) ensureUser(ctx context.Context, backend storage.Backend, claims models.IdentityClaims) (*models.User, error) {
	u, err := backend.GetUser(ctx, claims.ID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	u = models.NewUserFromClaims(claims, s.now().UTC())
	if err := backend.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("error creating ledger user: %w", err)
	}
	return u, nil
}

func profileClaims(p *models.UserProfile) models.IdentityClaims {
	return models.IdentityClaims{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, Username: p.Username}
}

func (s *LedgerService) publish(ctx context.Context, e events.Event) {
	if err := s.sink.Publish(ctx, e); err != nil {
		s.log.Warn(ctx, "event sink failed", "type", string(e.Type), "error", err)
	}
}

func findCategory(cats []models.Category, id int64) (models.Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}
