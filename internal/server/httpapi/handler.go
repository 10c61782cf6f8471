package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/dmitrijs2005/tgledger/internal/server/storage"
	"github.com/shopspring/decimal"
)

type sessionRequest struct {
	InitData string `json:"init_data"`
}

type profileResponse struct {
	ID          int64               `json:"id"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name,omitempty"`
	Username    string              `json:"username,omitempty"`
	Tier        models.Tier         `json:"tier"`
	Permissions []models.Capability `json:"permissions"`
	CreatedAt   time.Time           `json:"created_at"`
	LastLogin   time.Time           `json:"last_login"`
}

type sessionResponse struct {
	Token      string            `json:"token"`
	ExpiresAt  time.Time         `json:"expires_at"`
	Profile    profileResponse   `json:"profile"`
	User       *models.User      `json:"user"`
	Storage    storage.Info      `json:"storage"`
	Categories []models.Category `json:"categories"`
}

type addExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"category_id"`
	Description string          `json:"description"`
}

type expensesResponse struct {
	Expenses []models.Expense `json:"expenses"`
	Total    decimal.Decimal  `json:"total"`
}

type balanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type setTierRequest struct {
	Tier string `json:"tier"`
}

func newProfileResponse(p *models.UserProfile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Username:    p.Username,
		Tier:        p.Tier,
		Permissions: p.Permissions,
		CreatedAt:   p.CreatedAt,
		LastLogin:   p.LastLogin,
	}
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	session, err := s.sessions.Init(ctx, req.InitData)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:      session.Token.Token,
		ExpiresAt:  session.Token.ExpiresAt,
		Profile:    newProfileResponse(session.Profile),
		User:       session.User,
		Storage:    session.Storage,
		Categories: session.Categories,
	})
}

func (s *HTTPServer) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := tokenFrom(ctx)

	items, total, err := s.ledger.ListExpenses(ctx, token.UserID)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	if items == nil {
		items = []models.Expense{}
	}

	writeJSON(w, http.StatusOK, expensesResponse{Expenses: items, Total: total})
}

func (s *HTTPServer) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := tokenFrom(ctx)

	var req addExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	e, err := s.ledger.AddExpense(ctx, token.UserID, req.Amount, req.CategoryID, req.Description)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, e)
}

func (s *HTTPServer) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := tokenFrom(ctx)

	id, err := pathID(r)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	if err := s.ledger.DeleteExpense(ctx, token.UserID, id); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := tokenFrom(ctx)

	stats, err := s.ledger.Statistics(ctx, token.UserID)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := tokenFrom(ctx)

	cats, err := s.ledger.Categories(ctx, token.UserID)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, cats)
}

func (s *HTTPServer) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := tokenFrom(ctx)

	balance, err := s.ledger.BankBalance(ctx, token.UserID)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

func (s *HTTPServer) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := tokenFrom(ctx)

	var req balanceRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	u, err := s.ledger.SetBankBalance(ctx, token.UserID, req.Balance)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: u.BankBalance})
}

func (s *HTTPServer) handleSetTier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := tokenFrom(ctx)

	id, err := pathID(r)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	var req setTierRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	// an unparseable name falls through as an invalid tier value
	tier, ok := models.ParseTier(req.Tier)
	if !ok {
		tier = models.Tier(-1)
	}

	p, err := s.profiles.SetTier(ctx, token, id, tier)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(p))
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errMalformedRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", errMalformedRequest, r.PathValue("id"))
	}
	return id, nil
}
