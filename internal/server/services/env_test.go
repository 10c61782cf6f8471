package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/auth"
	"github.com/dmitrijs2005/tgledger/internal/server/events"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/tgledger/internal/server/storage"
	"github.com/stretchr/testify/require"
)

const (
	testBotToken = "tok"
	testAdminID  = 1000
)

var testSecret = []byte("jwt-secret")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	clock    *clock
	recorder *events.Recorder
	profRepo *profiles.MemoryRepository
	router   *storage.Router
	profiles *ProfileService
	tokens   *TokenService
	ledger   *LedgerService
	sessions *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := logging.NewNopLogger()

	file, err := storage.NewFileBackend(t.TempDir(), log)
	require.NoError(t, err)
	premium, err := storage.OpenSQLiteBackend(ctx, filepath.Join(t.TempDir(), "premium.db"), log)
	require.NoError(t, err)
	admin, err := storage.OpenSQLiteBackend(ctx, filepath.Join(t.TempDir(), "admin.db"), log)
	require.NoError(t, err)

	router := storage.NewRouter(storage.NewMemoryBackend(), file, premium, storage.NewReplicatedBackend(admin, nil, log))
	t.Cleanup(func() { _ = router.Close() })
	require.NoError(t, router.SeedCategories(ctx, models.DefaultCategories()))

	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	rec := &events.Recorder{}
	profRepo := profiles.NewMemoryRepository()

	ps := NewProfileService(profRepo, auth.NewPolicy([]int64{testAdminID}), rec, log)
	ps.now = c.now
	ts := NewTokenService(tokens.NewMemoryRepository(), testSecret, 24*time.Hour, log)
	ts.now = c.now
	ls := NewLedgerService(ps, router, rec, log)
	ls.now = c.now

	return &testEnv{
		clock:    c,
		recorder: rec,
		profRepo: profRepo,
		router:   router,
		profiles: ps,
		tokens:   ts,
		ledger:   ls,
		sessions: NewSessionService(testBotToken, ps, ts, ls, log),
	}
}

// newUser creates a profile for id and moves it to tier.
func (e *testEnv) newUser(t *testing.T, id int64, tier models.Tier) *models.UserProfile {
	t.Helper()
	ctx := context.Background()
	p, err := e.profiles.GetOrCreate(ctx, models.IdentityClaims{ID: id, FirstName: "Ann"})
	require.NoError(t, err)
	if p.Tier != tier {
		require.NoError(t, e.profRepo.UpdateTier(ctx, id, tier, auth.PermissionsFor(tier)))
		p.Tier = tier
		p.Permissions = auth.PermissionsFor(tier)
	}
	return p
}
