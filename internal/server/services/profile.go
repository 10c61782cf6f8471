package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/auth"
	"github.com/dmitrijs2005/tgledger/internal/server/events"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/dmitrijs2005/tgledger/internal/server/repositories/profiles"
	"golang.org/x/sync/singleflight"
)

// ProfileService owns UserProfile records: creation on first sight, login
// bookkeeping and admin tier changes.
type ProfileService struct {
	repo   profiles.Repository
	policy *auth.Policy
	sink   events.Sink
	log    logging.Logger
	now    func() time.Time

	// collapses concurrent first logins for one identity; the repository's
	// insert-if-absent covers other processes
	inflight singleflight.Group
}

func NewProfileService(repo profiles.Repository, policy *auth.Policy, sink events.Sink, log logging.Logger) *ProfileService {
	if sink == nil {
		sink = events.Nop{}
	}
	return &ProfileService{
		repo:   repo,
		policy: policy,
		sink:   sink,
		log:    log.With("module", "profiles"),
		now:    time.Now,
	}
}

// GetOrCreate returns the profile for claims.ID, creating it with the
// policy-resolved tier when the identity is new. An existing profile only
// gets its last login moved forward; its tier is left as stored.
func (s *ProfileService) GetOrCreate(ctx context.Context, claims models.IdentityClaims) (*models.UserProfile, error) {
	v, err, _ := s.inflight.Do(strconv.FormatInt(claims.ID, 10), func() (any, error) {
		return s.getOrCreate(ctx, claims)
	})
	if err != nil {
		return nil, err
	}
	return cloneProfile(v.(*models.UserProfile)), nil
}

func (s *ProfileService) getOrCreate(ctx context.Context, claims models.IdentityClaims) (*models.UserProfile, error) {
	now := s.now().UTC()

	p, err := s.repo.Get(ctx, claims.ID)
	switch {
	case err == nil:
		return s.touch(ctx, p, now)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error loading profile: %w", err)
	}

	tier := s.policy.ResolveTier(claims.ID, nil)
	p = &models.UserProfile{
		ID:          claims.ID,
		FirstName:   claims.FirstName,
		LastName:    claims.LastName,
		Username:    claims.Username,
		Tier:        tier,
		CreatedAt:   now,
		LastLogin:   now,
		Permissions: auth.PermissionsFor(tier),
		IsActive:    true,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("error creating profile: %w", err)
	}
	if !created {
		// lost the race to another process
		existing, err := s.repo.Get(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("error loading profile: %w", err)
		}
		return s.touch(ctx, existing, now)
	}

	s.log.Info(ctx, "profile created", "user_id", p.ID, "tier", p.Tier.String())
	s.publish(ctx, events.Event{Type: events.UserCreated, UserID: p.ID, Tier: p.Tier, At: now})
	return p, nil
}

func (s *ProfileService) touch(ctx context.Context, p *models.UserProfile, now time.Time) (*models.UserProfile, error) {
	if err := s.repo.TouchLogin(ctx, p.ID, now); err != nil {
		return nil, fmt.Errorf("error updating last login: %w", err)
	}
	if now.After(p.LastLogin) {
		p.LastLogin = now
	}
	return p, nil
}

// Get returns the stored profile, or common.ErrUnknownUser.
func (s *ProfileService) Get(ctx context.Context, id int64) (*models.UserProfile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownUser
		}
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return p, nil
}

// SetTier moves target to tier and recomputes its permission cache. The
// actor's token must carry users:manage. Tokens already issued to the
// target keep their snapshot until they expire.
func (s *ProfileService) SetTier(ctx context.Context, actor *models.AuthToken, targetID int64, tier models.Tier) (*models.UserProfile, error) {
	if actor == nil || !actor.HasPermission(models.CapUsersManage) {
		return nil, common.ErrForbidden
	}
	if !tier.Valid() {
		return nil, common.ErrUnknownTier
	}

	if err := s.repo.UpdateTier(ctx, targetID, tier, auth.PermissionsFor(tier)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownUser
		}
		return nil, fmt.Errorf("error updating tier: %w", err)
	}

	s.log.Info(ctx, "tier changed", "user_id", targetID, "tier", tier.String(), "by", actor.UserID)
	s.publish(ctx, events.Event{Type: events.TierChanged, UserID: targetID, Tier: tier, At: s.now().UTC()})
	return s.Get(ctx, targetID)
}

func (s *ProfileService) publish(ctx context.Context, e events.Event) {
	if err := s.sink.Publish(ctx, e); err != nil {
		s.log.Warn(ctx, "event sink failed", "type", string(e.Type), "error", err)
	}
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	c := *p
	c.Permissions = slices.Clone(p.Permissions)
	return &c
}
