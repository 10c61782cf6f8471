package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// IdentityClaims is what a verified identity assertion tells us about the
// user. Only ID is guaranteed to be set.
type IdentityClaims struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// UserProfile is the auth-side view of a user: tier, login timestamps and the
// permission cache derived from the tier.
type UserProfile struct {
	ID          int64
	FirstName   string
	LastName    string
	Username    string
	Tier        Tier
	CreatedAt   time.Time
	LastLogin   time.Time
	Permissions []Capability
	IsActive    bool
}

// HasPermission reports whether the cached permission set contains c.
func (p *UserProfile) HasPermission(c Capability) bool {
	return slices.Contains(p.Permissions, c)
}

// AuthToken is the server-side record of an issued bearer token. Tier and
// Permissions are a snapshot taken at issuance. ID is the random identifier
// the record is stored under; Token is the signed string handed to clients.
type AuthToken struct {
	ID          string
	Token       string
	UserID      int64
	Tier        Tier
	Permissions []Capability
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Valid reports whether the token is still usable at now; expiry is strict.
func (t *AuthToken) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// HasPermission reports whether the snapshot contains c.
func (t *AuthToken) HasPermission(c Capability) bool {
	return slices.Contains(t.Permissions, c)
}

// User is the ledger-side user record kept in each storage backend.
type User struct {
	ID           int64           `json:"id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name,omitempty"`
	Username     string          `json:"username,omitempty"`
	LanguageCode string          `json:"language_code,omitempty"`
	BankBalance  decimal.Decimal `json:"bank_balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewUserFromClaims builds the ledger record for a freshly verified identity.
func NewUserFromClaims(c IdentityClaims, now time.Time) *User {
	return &User{
		ID:           c.ID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Username:     c.Username,
		LanguageCode: c.LanguageCode,
		BankBalance:  decimal.Zero,
		CreatedAt:    now,
	}
}
