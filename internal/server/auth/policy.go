package auth

import (
	"slices"

	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

var tierPermissions = map[models.Tier][]models.Capability{
	models.TierGuest: {
		models.CapExpenseCreate,
		models.CapExpenseReadOwn,
		models.CapCategoryRead,
	},
	models.TierRegistered: {
		models.CapExpenseCreate,
		models.CapExpenseReadOwn,
		models.CapExpenseUpdateOwn,
		models.CapExpenseDeleteOwn,
		models.CapCategoryRead,
		models.CapStatsReadOwn,
	},
	models.TierPremium: {
		models.CapExpenseCreate,
		models.CapExpenseReadOwn,
		models.CapExpenseUpdateOwn,
		models.CapExpenseDeleteOwn,
		models.CapExpenseExport,
		models.CapCategoryRead,
		models.CapCategoryCreateCustom,
		models.CapStatsReadOwn,
		models.CapStatsAdvanced,
		models.CapBalanceManage,
		models.CapBackupCreate,
	},
	models.TierAdmin: {
		models.CapExpenseCreate,
		models.CapExpenseReadAll,
		models.CapExpenseUpdateAll,
		models.CapExpenseDeleteAll,
		models.CapExpenseExportAll,
		models.CapCategoryRead,
		models.CapCategoryCreate,
		models.CapCategoryUpdate,
		models.CapCategoryDelete,
		models.CapStatsReadAll,
		models.CapStatsSystem,
		models.CapBalanceManage,
		models.CapBackupCreate,
		models.CapBackupRestore,
		models.CapUsersManage,
		models.CapSystemAdmin,
	},
}

// Policy decides which tier an identity belongs to. The zero value has an
// empty admin allow-list.
type Policy struct {
	admins map[int64]struct{}
}

// NewPolicy returns a Policy granting Admin to every id in adminIDs.
func NewPolicy(adminIDs []int64) *Policy {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Policy{admins: admins}
}

// IsAdmin reports whether id is on the allow-list.
func (p *Policy) IsAdmin(id int64) bool {
	_, ok := p.admins[id]
	return ok
}

// ResolveTier returns the tier for id given its stored profile (nil when the
// identity has never been seen). A stored Premium or Admin tier is kept as
// is, so repeated calls never downgrade a user.
func (p *Policy) ResolveTier(id int64, existing *models.UserProfile) models.Tier {
	if p.IsAdmin(id) {
		return models.TierAdmin
	}
	if existing == nil {
		return models.TierGuest
	}
	switch existing.Tier {
	case models.TierPremium, models.TierAdmin:
		return existing.Tier
	default:
		return models.TierRegistered
	}
}

// PermissionsFor returns a copy of the fixed capability set for tier.
// Unknown tiers get the Guest set.
func PermissionsFor(tier models.Tier) []models.Capability {
	perms, ok := tierPermissions[tier]
	if !ok {
		perms = tierPermissions[models.TierGuest]
	}
	return slices.Clone(perms)
}
