package services

import (
	"context"

	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/auth"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/dmitrijs2005/tgledger/internal/server/storage"
)

// Session is what a client gets back from a successful initialization.
type Session struct {
	Profile    *models.UserProfile
	Token      *models.AuthToken
	User       *models.User
	Storage    storage.Info
	Categories []models.Category
}

// SessionService turns a signed identity assertion into a session.
type SessionService struct {
	secret   string
	profiles *ProfileService
	tokens   *TokenService
	ledger   *LedgerService
	log      logging.Logger
}

// NewSessionService verifies assertions against secret (the bot token).
func NewSessionService(secret string, profiles *ProfileService, tokens *TokenService, ledger *LedgerService, log logging.Logger) *SessionService {
	return &SessionService{
		secret:   secret,
		profiles: profiles,
		tokens:   tokens,
		ledger:   ledger,
		log:      log.With("module", "sessions"),
	}
}

// Init verifies raw, gets or creates the profile, makes sure the ledger
// record exists in the tier's backend and issues a token.
func (s *SessionService) Init(ctx context.Context, raw string) (*Session, error) {
	claims, err := auth.VerifyInitData(raw, s.secret)
	if err != nil {
		s.log.Debug(ctx, "assertion rejected", "error", err)
		return nil, err
	}

	profile, err := s.profiles.GetOrCreate(ctx, *claims)
	if err != nil {
		return nil, err
	}

	user, err := s.ledger.EnsureUser(ctx, profile, *claims)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, profile)
	if err != nil {
		return nil, err
	}

	cats, err := s.ledger.Categories(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "session initialized", "user_id", profile.ID, "tier", profile.Tier.String())
	return &Session{
		Profile:    profile,
		Token:      token,
		User:       user,
		Storage:    s.ledger.Storage(profile.Tier),
		Categories: cats,
	}, nil
}
