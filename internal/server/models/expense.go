package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a global expense category.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

// DefaultCategories is the seed set written into every backend on startup.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Food", Emoji: "🍕", Color: "#FF6B6B"},
		{ID: 2, Name: "Transport", Emoji: "🚗", Color: "#4ECDC4"},
		{ID: 3, Name: "Shopping", Emoji: "🛍️", Color: "#45B7D1"},
		{ID: 4, Name: "Entertainment", Emoji: "🎬", Color: "#96CEB4"},
		{ID: 5, Name: "Health", Emoji: "🏥", Color: "#FFEAA7"},
		{ID: 6, Name: "Utilities", Emoji: "⚡", Color: "#DDA0DD"},
		{ID: 7, Name: "Other", Emoji: "📦", Color: "#98D8C8"},
	}
}

// Expense belongs to exactly one user. ID is unique within that user's
// collection only; zero means "not assigned yet".
type Expense struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"category_id"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`

	// Category is attached by the ledger service on the way out; backends
	// never persist it.
	Category *Category `json:"category,omitempty"`
}

// CategoryStat is one row of the per-category breakdown.
type CategoryStat struct {
	Category   Category        `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Statistics summarizes a user's expenses.
type Statistics struct {
	Total       decimal.Decimal `json:"total"`
	Count       int             `json:"count"`
	PerCategory []CategoryStat  `json:"per_category"`
}
