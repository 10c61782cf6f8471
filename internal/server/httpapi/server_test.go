package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/auth"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/tgledger/internal/server/services"
	"github.com/dmitrijs2005/tgledger/internal/server/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBotToken = "tok"
	testAdminID  = 1000
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logging.NewNopLogger()

	mem := storage.NewMemoryBackend()
	router := storage.NewRouter(mem, storage.NewMemoryBackend(), storage.NewMemoryBackend(), storage.NewMemoryBackend())
	require.NoError(t, router.SeedCategories(t.Context(), models.DefaultCategories()))

	ps := services.NewProfileService(profiles.NewMemoryRepository(), auth.NewPolicy([]int64{testAdminID}), nil, log)
	ts := services.NewTokenService(tokens.NewMemoryRepository(), []byte("jwt-secret"), time.Hour, log)
	ls := services.NewLedgerService(ps, router, nil, log)
	ss := services.NewSessionService(testBotToken, ps, ts, ls, log)

	srv := httptest.NewServer(NewHTTPServer("", log, ss, ts, ps, ls).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func initData(id int64) string {
	return auth.SignInitData(map[string]string{
		"auth_date": "1700000000",
		"user":      fmt.Sprintf(`{"id":%d,"first_name":"Ann"}`, id),
	}, testBotToken)
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(t.Context(), method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func login(t *testing.T, srv *httptest.Server, id int64) sessionResponse {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/api/session", "", sessionRequest{InitData: initData(id)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[sessionResponse](t, resp)
}

func TestSession(t *testing.T) {
	srv := newTestServer(t)

	s := login(t, srv, 42)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, int64(42), s.Profile.ID)
	assert.Equal(t, models.TierGuest, s.Profile.Tier)
	assert.Equal(t, storage.KindMemory, s.Storage.Kind)
	assert.Len(t, s.Categories, 7)
	assert.Equal(t, "Ann", s.User.FirstName)

	admin := login(t, srv, testAdminID)
	assert.Equal(t, models.TierAdmin, admin.Profile.Tier)
	assert.Contains(t, admin.Profile.Permissions, models.CapUsersManage)
}

func TestSession_Rejected(t *testing.T) {
	srv := newTestServer(t)

	forged := auth.SignInitData(map[string]string{"user": `{"id":42}`}, "other-bot")
	resp := do(t, srv, http.MethodPost, "/api/session", "", sessionRequest{InitData: forged})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/session", "", sessionRequest{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/session", "", map[string]int{"bogus": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBearer(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/expenses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = do(t, srv, http.MethodGet, "/api/expenses", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Error, "token not found")
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/api/categories", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestExpenses(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, 42).Token

	resp := do(t, srv, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decode[expensesResponse](t, resp)
	assert.NotNil(t, empty.Expenses)
	assert.True(t, empty.Total.IsZero())

	for _, amount := range []string{"12.50", "7.50"} {
		resp = do(t, srv, http.MethodPost, "/api/expenses", token, addExpenseRequest{
			Amount: decimal.RequireFromString(amount), CategoryID: 1, Description: " lunch ",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		e := decode[models.Expense](t, resp)
		assert.Equal(t, "lunch", e.Description)
		require.NotNil(t, e.Category)
		assert.Equal(t, "Food", e.Category.Name)
	}

	resp = do(t, srv, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[expensesResponse](t, resp)
	assert.Len(t, list.Expenses, 2)
	assert.True(t, list.Total.Equal(decimal.NewFromInt(20)), list.Total.String())
}

func TestExpenses_Validation(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, 42).Token

	resp := do(t, srv, http.MethodPost, "/api/expenses", token, addExpenseRequest{Amount: decimal.NewFromInt(-1), CategoryID: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/expenses", token, addExpenseRequest{Amount: decimal.NewFromInt(5), CategoryID: 99})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown category", decode[errorResponse](t, resp).Error)
}

func TestGuestPermissions(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, 42).Token

	for _, c := range []struct{ method, path string }{
		{http.MethodGet, "/api/statistics"},
		{http.MethodDelete, "/api/expenses/1"},
		{http.MethodGet, "/api/balance"},
		{http.MethodPut, "/api/admin/users/7/tier"},
	} {
		resp := do(t, srv, c.method, c.path, token, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, c.path)
	}

	resp := do(t, srv, http.MethodGet, "/api/categories", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Category](t, resp), 7)
}

func TestPromotion(t *testing.T) {
	srv := newTestServer(t)
	guest := login(t, srv, 42).Token
	admin := login(t, srv, testAdminID).Token

	resp := do(t, srv, http.MethodPut, "/api/admin/users/42/tier", admin, setTierRequest{Tier: "premium"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.TierPremium, decode[profileResponse](t, resp).Tier)

	// the old token keeps its guest snapshot
	resp = do(t, srv, http.MethodGet, "/api/statistics", guest, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	premium := login(t, srv, 42)
	assert.Equal(t, models.TierPremium, premium.Profile.Tier)
	assert.Equal(t, storage.KindMemory, premium.Storage.Kind)

	resp = do(t, srv, http.MethodPost, "/api/expenses", premium.Token, addExpenseRequest{Amount: decimal.NewFromInt(30), CategoryID: 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	e := decode[models.Expense](t, resp)

	resp = do(t, srv, http.MethodGet, "/api/statistics", premium.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[models.Statistics](t, resp)
	assert.Equal(t, 1, stats.Count)
	require.Len(t, stats.PerCategory, 1)
	assert.Equal(t, "Transport", stats.PerCategory[0].Category.Name)

	resp = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", e.ID), premium.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", e.ID), premium.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, srv, http.MethodDelete, "/api/expenses/abc", premium.Token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetTier_Errors(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, testAdminID).Token
	login(t, srv, 42)

	resp := do(t, srv, http.MethodPut, "/api/admin/users/42/tier", admin, setTierRequest{Tier: "overlord"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown tier", decode[errorResponse](t, resp).Error)

	resp = do(t, srv, http.MethodPut, "/api/admin/users/77/tier", admin, setTierRequest{Tier: "registered"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown user", decode[errorResponse](t, resp).Error)
}

func TestBalance(t *testing.T) {
	srv := newTestServer(t)
	admin := login(t, srv, testAdminID).Token

	resp := do(t, srv, http.MethodGet, "/api/balance", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[balanceResponse](t, resp).Balance.IsZero())

	resp = do(t, srv, http.MethodPut, "/api/balance", admin, balanceRequest{Balance: decimal.RequireFromString("250.75")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "250.75", decode[balanceResponse](t, resp).Balance.String())

	resp = do(t, srv, http.MethodPut, "/api/balance", admin, balanceRequest{Balance: decimal.NewFromInt(-5)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/balance", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "250.75", decode[balanceResponse](t, resp).Balance.String())
}
