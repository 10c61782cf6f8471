// Package common defines shared constants and sentinel errors used across
// the ledger server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrForbidden  = errors.New("forbidden")

	// Identity assertion errors.
	ErrMissingPayload   = errors.New("missing payload")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInvalidSignature = errors.New("invalid signature")

	// Token lifecycle errors.
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// Ledger validation errors.
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrUnknownUser       = errors.New("unknown user")
	ErrNegativeBalance   = errors.New("balance cannot be negative")
	ErrUnknownTier       = errors.New("unknown tier")

	ErrExpenseNotFound = errors.New("expense not found")

	// Storage errors.
	ErrStorageIO          = errors.New("storage io error")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
