package httpapi

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type ctxKey string

const tokenKey ctxKey = "token"

// Each route accepts any one of its capabilities, so an admin's *_all
// grants satisfy routes that a regular user reaches through *_own.
var (
	readExpenses   = []models.Capability{models.CapExpenseReadOwn, models.CapExpenseReadAll}
	createExpense  = []models.Capability{models.CapExpenseCreate}
	deleteExpense  = []models.Capability{models.CapExpenseDeleteOwn, models.CapExpenseDeleteAll}
	readStats      = []models.Capability{models.CapStatsReadOwn, models.CapStatsReadAll}
	readCategories = []models.Capability{models.CapCategoryRead}
	manageBalance  = []models.Capability{models.CapBalanceManage}
	manageUsers    = []models.Capability{models.CapUsersManage}
)

// authorize resolves the bearer token and checks its permission snapshot
// before handing the request to next.
func (s *HTTPServer) authorize(next http.HandlerFunc, anyOf ...models.Capability) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accessToken, ok := bearerToken(r)
		if !ok {
			s.writeError(ctx, w, common.ErrTokenNotFound)
			return
		}

		token, err := s.tokens.Validate(ctx, accessToken)
		if err != nil {
			s.writeError(ctx, w, err)
			return
		}

		if len(anyOf) > 0 && !slices.ContainsFunc(anyOf, token.HasPermission) {
			s.logger.Debug(ctx, "permission denied", "user_id", token.UserID, "path", r.URL.Path)
			s.writeError(ctx, w, common.ErrForbidden)
			return
		}

		ctx = context.WithValue(ctx, tokenKey, token)
		next(w, r.WithContext(ctx))
	})
}

// withRequestID echoes the caller's request id, or assigns one, and logs
// each request at debug level.
func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path, "request_id", id)
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return "", false
	}
	t := strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
	return t, t != ""
}

// tokenFrom returns the token placed by authorize.
func tokenFrom(ctx context.Context) *models.AuthToken {
	t, _ := ctx.Value(tokenKey).(*models.AuthToken)
	return t
}
