// Package common contains shared constants and sentinel errors used across
// ledger components.
package common

import "time"

// AuthorizationHeaderName carries the bearer token on API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// DefaultTokenValidity is how long an issued token stays valid.
const DefaultTokenValidity = 24 * time.Hour

// TokenEntropyBytes is the size of the random token identifier (256 bits).
const TokenEntropyBytes = 32
