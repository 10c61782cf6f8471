package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/events"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/dmitrijs2005/tgledger/internal/server/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var allTiers = []models.Tier{models.TierGuest, models.TierRegistered, models.TierPremium, models.TierAdmin}

func TestLedger_AddAndList(t *testing.T) {
	for _, tier := range allTiers {
		t.Run(tier.String(), func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			env.newUser(t, 42, tier)

			e, err := env.ledger.AddExpense(ctx, 42, dec("25.50"), 1, "  lunch ")
			require.NoError(t, err)
			assert.NotZero(t, e.ID)
			assert.Equal(t, "lunch", e.Description)
			require.NotNil(t, e.Category)
			assert.Equal(t, "Food", e.Category.Name)

			list, total, err := env.ledger.ListExpenses(ctx, 42)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.True(t, list[0].Amount.Equal(dec("25.50")))
			assert.True(t, total.Equal(dec("25.50")), total.String())
			assert.Equal(t, "Food", list[0].Category.Name)

			require.Len(t, env.recorder.History(events.ExpenseCreated), 1)
		})
	}
}

func TestLedger_NonPositiveAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 42, models.TierGuest)

	for _, amount := range []string{"-5", "0"} {
		_, err := env.ledger.AddExpense(ctx, 42, dec(amount), 1, "")
		require.ErrorIs(t, err, common.ErrNonPositiveAmount)
		require.True(t, common.IsValidationError(err))
	}

	list, total, err := env.ledger.ListExpenses(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, total.IsZero())
}

func TestLedger_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 42, models.TierGuest)

	_, err := env.ledger.AddExpense(ctx, 42, dec("1"), 99, "")
	require.ErrorIs(t, err, common.ErrUnknownCategory)

	_, err = env.ledger.AddExpense(ctx, 7, dec("1"), 1, "")
	require.ErrorIs(t, err, common.ErrUnknownUser)

	_, _, err = env.ledger.ListExpenses(ctx, 7)
	require.ErrorIs(t, err, common.ErrUnknownUser)
}

func TestLedger_DeleteExpense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 42, models.TierRegistered)
	env.newUser(t, 43, models.TierRegistered)

	err := env.ledger.DeleteExpense(ctx, 42, 999)
	require.ErrorIs(t, err, common.ErrExpenseNotFound)

	e, err := env.ledger.AddExpense(ctx, 42, dec("3"), 2, "bus")
	require.NoError(t, err)

	require.ErrorIs(t, env.ledger.DeleteExpense(ctx, 43, e.ID), common.ErrExpenseNotFound)
	require.NoError(t, env.ledger.DeleteExpense(ctx, 42, e.ID))
	require.ErrorIs(t, env.ledger.DeleteExpense(ctx, 42, e.ID), common.ErrExpenseNotFound)
	require.Len(t, env.recorder.History(events.ExpenseDeleted), 1)
}

func TestLedger_SumInvariant(t *testing.T) {
	amounts := []string{"0.1", "0.2", "0.3", "19.99", "1000000.01", "7", "0.005"}
	for _, tier := range allTiers {
		t.Run(tier.String(), func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			env.newUser(t, 42, tier)

			want := decimal.Zero
			for i, a := range amounts {
				_, err := env.ledger.AddExpense(ctx, 42, dec(a), int64(i%3+1), "")
				require.NoError(t, err)
				want = want.Add(dec(a))
			}

			list, total, err := env.ledger.ListExpenses(ctx, 42)
			require.NoError(t, err)
			independent := decimal.Zero
			for _, e := range list {
				independent = independent.Add(e.Amount)
			}
			assert.True(t, total.Equal(want), "%s != %s", total, want)
			assert.True(t, total.Equal(independent))

			stats, err := env.ledger.Statistics(ctx, 42)
			require.NoError(t, err)
			assert.True(t, stats.Total.Equal(total))
			assert.Equal(t, len(amounts), stats.Count)

			perCat := decimal.Zero
			for _, row := range stats.PerCategory {
				perCat = perCat.Add(row.Amount)
			}
			assert.True(t, perCat.Equal(total))
		})
	}
}

func TestLedger_Statistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 42, models.TierGuest)

	stats, err := env.ledger.Statistics(ctx, 42)
	require.NoError(t, err)
	assert.True(t, stats.Total.IsZero())
	assert.Equal(t, 0, stats.Count)
	assert.Empty(t, stats.PerCategory)
	assert.NotNil(t, stats.PerCategory)

	for _, x := range []struct {
		amount string
		cat    int64
	}{{"10", 2}, {"20", 1}, {"30", 2}, {"15", 7}} {
		_, err := env.ledger.AddExpense(ctx, 42, dec(x.amount), x.cat, "")
		require.NoError(t, err)
	}

	stats, err = env.ledger.Statistics(ctx, 42)
	require.NoError(t, err)
	assert.True(t, stats.Total.Equal(dec("75")))
	assert.Equal(t, 4, stats.Count)

	type row struct {
		Name string
		Amt  string
		Pct  string
	}
	var got []row
	for _, r := range stats.PerCategory {
		got = append(got, row{r.Category.Name, r.Amount.String(), r.Percentage.String()})
	}
	want := []row{
		{"Transport", "40", "53.3"},
		{"Food", "20", "26.7"},
		{"Other", "15", "20"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("per-category mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger_StatisticsUnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 42, models.TierGuest)

	_, err := env.ledger.AddExpense(ctx, 42, dec("5"), 3, "")
	require.NoError(t, err)
	require.NoError(t, env.router.Select(models.TierGuest).SaveCategories(ctx, models.DefaultCategories()[:1]))

	stats, err := env.ledger.Statistics(ctx, 42)
	require.NoError(t, err)
	require.Len(t, stats.PerCategory, 1)
	assert.Equal(t, "Unknown", stats.PerCategory[0].Category.Name)
	assert.Equal(t, "100", stats.PerCategory[0].Percentage.String())
}

func TestLedger_BackendIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 42, models.TierGuest)

	_, err := env.ledger.AddExpense(ctx, 42, dec("8"), 1, "")
	require.NoError(t, err)

	// same identity seen through the file backend has nothing
	list, err := env.router.Select(models.TierRegistered).GetExpenses(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, list)

	// tier change does not move data
	require.NoError(t, env.profRepo.UpdateTier(ctx, 42, models.TierRegistered, nil))
	list, total, err := env.ledger.ListExpenses(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, total.IsZero())
}

func TestLedger_BankBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 42, models.TierPremium)

	bal, err := env.ledger.BankBalance(ctx, 42)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	_, err = env.ledger.SetBankBalance(ctx, 42, dec("-0.01"))
	require.ErrorIs(t, err, common.ErrNegativeBalance)

	u, err := env.ledger.SetBankBalance(ctx, 42, dec("1500.75"))
	require.NoError(t, err)
	assert.True(t, u.BankBalance.Equal(dec("1500.75")))

	bal, err = env.ledger.BankBalance(ctx, 42)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("1500.75")))

	_, err = env.ledger.BankBalance(ctx, 404)
	require.ErrorIs(t, err, common.ErrUnknownUser)
}

func TestLedger_Categories(t *testing.T) {
	env := newTestEnv(t)
	env.newUser(t, 42, models.TierAdmin)

	cats, err := env.ledger.Categories(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategories(), cats)
}

type brokenBackend struct{ *storage.MemoryBackend }

func (brokenBackend) SaveExpense(context.Context, *models.Expense) error {
	return common.ErrStorageIO
}

func TestLedger_StorageErrorSurfaces(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mem := storage.NewMemoryBackend()
	require.NoError(t, mem.SaveCategories(ctx, models.DefaultCategories()))
	broken := brokenBackend{mem}
	router := storage.NewRouter(broken, broken, broken, broken)
	ledger := NewLedgerService(env.profiles, router, nil, logging.NewNopLogger())
	env.newUser(t, 42, models.TierGuest)

	_, err := ledger.AddExpense(ctx, 42, dec("1"), 1, "")
	require.ErrorIs(t, err, common.ErrStorageIO)
	require.True(t, common.IsStorageError(err))
}

func TestLedger_SinkFailureDoesNotAbort(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newUser(t, 42, models.TierGuest)

	sink := events.SinkFunc(func(context.Context, events.Event) error { return errors.New("down") })
	ledger := NewLedgerService(env.profiles, env.router, sink, logging.NewNopLogger())

	_, err := ledger.AddExpense(ctx, 42, dec("2000"), 1, "")
	require.NoError(t, err)
}
