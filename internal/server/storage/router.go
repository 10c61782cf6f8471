package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// Info describes a backend kind to end users.
type Info struct {
	Kind        Kind     `json:"kind"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Persistence string   `json:"persistence"`
	Capacity    string   `json:"capacity"`
	Features    []string `json:"features"`
}

var kindInfo = map[Kind]Info{
	KindMemory: {
		Kind:        KindMemory,
		Name:        "Memory Storage",
		Description: "Fast in-memory storage for guest users",
		Persistence: "Session only",
		Capacity:    "Limited",
		Features:    []string{"Fast access", "No persistence"},
	},
	KindFile: {
		Kind:        KindFile,
		Name:        "File Storage",
		Description: "Local file-based storage for registered users",
		Persistence: "Local files",
		Capacity:    "Medium",
		Features:    []string{"Persistent", "Local backup"},
	},
	KindDatabase: {
		Kind:        KindDatabase,
		Name:        "Database Storage",
		Description: "SQL database for premium users",
		Persistence: "Full database",
		Capacity:    "High",
		Features:    []string{"ACID transactions", "Query optimization", "Data integrity"},
	},
	KindCloud: {
		Kind:        KindCloud,
		Name:        "Cloud Storage",
		Description: "Replicated storage for admin users",
		Persistence: "Database with object storage snapshots",
		Capacity:    "Unlimited",
		Features:    []string{"Auto backup", "Advanced analytics"},
	},
}

// Router maps tiers to backends. The table is fixed at construction;
// tiers outside it get the memory backend.
type Router struct {
	byTier   map[models.Tier]Backend
	fallback Backend
}

// NewRouter wires Guest, Registered, Premium and Admin to the given backends.
func NewRouter(memory, file, database, cloud Backend) *Router {
	return &Router{
		byTier: map[models.Tier]Backend{
			models.TierGuest:      memory,
			models.TierRegistered: file,
			models.TierPremium:    database,
			models.TierAdmin:      cloud,
		},
		fallback: memory,
	}
}

// Select returns the backend for tier. It never returns nil.
func (r *Router) Select(tier models.Tier) Backend {
	if b, ok := r.byTier[tier]; ok {
		return b
	}
	return r.fallback
}

// Describe returns user-facing information about the backend for tier.
func (r *Router) Describe(tier models.Tier) Info {
	info := kindInfo[r.Select(tier).Kind()]
	info.Features = slices.Clone(info.Features)
	return info
}

// Backends lists each distinct backend once, in tier order.
func (r *Router) Backends() []Backend {
	var out []Backend
	for _, t := range []models.Tier{models.TierGuest, models.TierRegistered, models.TierPremium, models.TierAdmin} {
		b := r.byTier[t]
		if !slices.Contains(out, b) {
			out = append(out, b)
		}
	}
	return out
}

// SeedCategories writes cats into every backend whose category set is empty.
func (r *Router) SeedCategories(ctx context.Context, cats []models.Category) error {
	for _, b := range r.Backends() {
		existing, err := b.GetCategories(ctx)
		if err != nil {
			return fmt.Errorf("seed %s: %w", b.Kind(), err)
		}
		if len(existing) > 0 {
			continue
		}
		if err := b.SaveCategories(ctx, cats); err != nil {
			return fmt.Errorf("seed %s: %w", b.Kind(), err)
		}
	}
	return nil
}

// Close closes every backend that holds resources.
func (r *Router) Close() error {
	var errs []error
	for _, b := range r.Backends() {
		if c, ok := b.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
