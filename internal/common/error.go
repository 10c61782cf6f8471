package common

import "errors"

var (
	authErrors       = []error{ErrMissingPayload, ErrMalformedPayload, ErrInvalidSignature, ErrTokenNotFound, ErrTokenExpired}
	validationErrors = []error{ErrNonPositiveAmount, ErrUnknownCategory, ErrUnknownUser, ErrNegativeBalance, ErrUnknownTier}
	storageErrors    = []error{ErrStorageIO, ErrStorageUnavailable}
)

// IsAuthError reports whether err belongs to the authentication family.
func IsAuthError(err error) bool { return isAny(err, authErrors) }

// IsValidationError reports whether err is a caller-correctable validation failure.
func IsValidationError(err error) bool { return isAny(err, validationErrors) }

// IsStorageError reports whether err originated in a storage backend.
func IsStorageError(err error) bool { return isAny(err, storageErrors) }

func isAny(err error, targets []error) bool {
	if err == nil {
		return false
	}
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
