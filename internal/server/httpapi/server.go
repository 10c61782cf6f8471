// Package httpapi exposes the ledger services over a small JSON API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address  string
	sessions *services.SessionService
	tokens   *services.TokenService
	profiles *services.ProfileService
	ledger   *services.LedgerService
	logger   logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, ss *services.SessionService, ts *services.TokenService,
	ps *services.ProfileService, ls *services.LedgerService) *HTTPServer {
	return &HTTPServer{
		address:  a,
		logger:   l.With("module", "http_server"),
		sessions: ss,
		tokens:   ts,
		profiles: ps,
		ledger:   ls,
	}
}

// Handler returns the routed API.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/session", s.handleSession)

	mux.Handle("GET /api/expenses", s.authorize(s.handleListExpenses, readExpenses...))
	mux.Handle("POST /api/expenses", s.authorize(s.handleAddExpense, createExpense...))
	mux.Handle("DELETE /api/expenses/{id}", s.authorize(s.handleDeleteExpense, deleteExpense...))
	mux.Handle("GET /api/statistics", s.authorize(s.handleStatistics, readStats...))
	mux.Handle("GET /api/categories", s.authorize(s.handleCategories, readCategories...))
	mux.Handle("GET /api/balance", s.authorize(s.handleGetBalance, manageBalance...))
	mux.Handle("PUT /api/balance", s.authorize(s.handleSetBalance, manageBalance...))
	mux.Handle("PUT /api/admin/users/{id}/tier", s.authorize(s.handleSetTier, manageUsers...))

	return s.withRequestID(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
