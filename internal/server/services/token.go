package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/auth"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/tokens"
)

// TokenService mints and checks bearer tokens. The server-side record is
// authoritative; the signed string only carries its id.
type TokenService struct {
	repo     tokens.Repository
	secret   []byte
	validity time.Duration
	log      logging.Logger
	now      func() time.Time
}

// NewTokenService falls back to common.DefaultTokenValidity when validity
// is not positive.
func NewTokenService(repo tokens.Repository, secret []byte, validity time.Duration, log logging.Logger) *TokenService {
	if validity <= 0 {
		validity = common.DefaultTokenValidity
	}
	return &TokenService{
		repo:     repo,
		secret:   secret,
		validity: validity,
		log:      log.With("module", "tokens"),
		now:      time.Now,
	}
}

// Issue stores a new record for p with a snapshot of its tier and
// permissions and returns it with the signed token string filled in.
func (s *TokenService) Issue(ctx context.Context, p *models.UserProfile) (*models.AuthToken, error) {
	id, err := common.MakeRandHexString(common.TokenEntropyBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating token id: %w", err)
	}

	perms := slices.Clone(p.Permissions)
	if len(perms) == 0 {
		perms = auth.PermissionsFor(p.Tier)
	}

	now := s.now().UTC()
	rec := &models.AuthToken{
		ID:          id,
		UserID:      p.ID,
		Tier:        p.Tier,
		Permissions: perms,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.validity),
	}

	signed, err := auth.GenerateToken(rec, s.secret)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}
	rec.Token = signed

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("error storing token: %w", err)
	}
	return rec, nil
}

// Validate resolves a token string to its record. Unknown or forged
// strings give common.ErrTokenNotFound; a record at or past its expiry
// gives common.ErrTokenExpired.
func (s *TokenService) Validate(ctx context.Context, token string) (*models.AuthToken, error) {
	id, err := auth.GetTokenIDFromToken(token, s.secret)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error searching token: %w", err)
	}

	if !rec.Valid(s.now()) {
		return nil, common.ErrTokenExpired
	}
	rec.Token = token
	return rec, nil
}

// PurgeExpired drops records that can no longer validate.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error purging tokens: %w", err)
	}
	if n > 0 {
		s.log.Debug(ctx, "expired tokens purged", "count", n)
	}
	return n, nil
}
