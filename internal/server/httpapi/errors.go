package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/tgledger/internal/common"
)

var errMalformedRequest = errors.New("malformed request")

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an error kind to the status clients use to tell "fix your
// input" from "log in again" from "try later".
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case common.IsAuthError(err):
		return http.StatusUnauthorized
	case common.IsValidationError(err), errors.Is(err, errMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrExpenseNotFound), errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "error", err, "storage", common.IsStorageError(err))
		msg = common.ErrorInternal.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
