package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrInvalidSignature, http.StatusUnauthorized},
		{common.ErrTokenExpired, http.StatusUnauthorized},
		{fmt.Errorf("%w: no hash", common.ErrMalformedPayload), http.StatusUnauthorized},
		{common.ErrForbidden, http.StatusForbidden},
		{common.ErrNonPositiveAmount, http.StatusBadRequest},
		{common.ErrUnknownTier, http.StatusBadRequest},
		{errMalformedRequest, http.StatusBadRequest},
		{common.ErrExpenseNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: disk", common.ErrStorageIO), http.StatusInternalServerError},
		{common.ErrStorageUnavailable, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	s := &HTTPServer{logger: logging.NewNopLogger()}
	rec := httptest.NewRecorder()

	s.writeError(t.Context(), rec, fmt.Errorf("%w: open /var/lib/ledger: permission denied", common.ErrStorageIO))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}
