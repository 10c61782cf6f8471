// Package models defines the server-side records shared by the auth,
// storage and ledger layers.
package models

import (
	"fmt"
	"strings"
)

// Tier is a user's access level. It decides both the permission set and the
// storage backend that holds the user's data.
type Tier int

const (
	TierGuest Tier = iota
	TierRegistered
	TierPremium
	TierAdmin
)

var tierNames = map[Tier]string{
	TierGuest:      "guest",
	TierRegistered: "registered",
	TierPremium:    "premium",
	TierAdmin:      "admin",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Valid reports whether t is one of the four known tiers.
func (t Tier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// ParseTier maps a tier name (case-insensitive) back to its value.
func ParseTier(s string) (Tier, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range tierNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	v, ok := ParseTier(string(b))
	if !ok {
		return fmt.Errorf("unknown tier %q", string(b))
	}
	*t = v
	return nil
}

// Capability names a permitted action, e.g. "expense:create".
type Capability string

const (
	CapExpenseCreate    Capability = "expense:create"
	CapExpenseReadOwn   Capability = "expense:read_own"
	CapExpenseUpdateOwn Capability = "expense:update_own"
	CapExpenseDeleteOwn Capability = "expense:delete_own"
	CapExpenseExport    Capability = "expense:export"
	CapExpenseReadAll   Capability = "expense:read_all"
	CapExpenseUpdateAll Capability = "expense:update_all"
	CapExpenseDeleteAll Capability = "expense:delete_all"
	CapExpenseExportAll Capability = "expense:export_all"

	CapCategoryRead         Capability = "category:read"
	CapCategoryCreate       Capability = "category:create"
	CapCategoryCreateCustom Capability = "category:create_custom"
	CapCategoryUpdate       Capability = "category:update"
	CapCategoryDelete       Capability = "category:delete"

	CapStatsReadOwn  Capability = "stats:read_own"
	CapStatsAdvanced Capability = "stats:advanced"
	CapStatsReadAll  Capability = "stats:read_all"
	CapStatsSystem   Capability = "stats:system"

	CapBalanceManage Capability = "balance:manage"
	CapBackupCreate  Capability = "backup:create"
	CapBackupRestore Capability = "backup:restore"
	CapUsersManage   Capability = "users:manage"
	CapSystemAdmin   Capability = "system:admin"
)
