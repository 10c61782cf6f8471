package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

func testRecord(ttl time.Duration) *models.AuthToken {
	now := time.Now()
	return &models.AuthToken{
		ID:        "abc123",
		UserID:    42,
		Tier:      models.TierRegistered,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	tok, err := GenerateToken(testRecord(time.Hour), secret)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	id, err := GetTokenIDFromToken(tok, secret)
	if err != nil {
		t.Fatalf("GetTokenIDFromToken error: %v", err)
	}
	if id != "abc123" {
		t.Fatalf("id mismatch: got %q", id)
	}
}

func TestGetTokenIDFromToken_ExpiredEnvelopeStillParses(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken(testRecord(-time.Hour), secret)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	// expiry is decided by the stored record
	if _, err := GetTokenIDFromToken(tok, secret); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetTokenIDFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(testRecord(time.Hour), []byte("right-secret"))
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = GetTokenIDFromToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestGetTokenIDFromToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := GetTokenIDFromToken("not.a.jwt", []byte("k"))
	if !errors.Is(err, common.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}
