// Package events carries notifications about ledger activity to optional
// sinks. Sinks observe; they never influence the operation that emitted
// the event.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/shopspring/decimal"
)

type Type string

const (
	UserCreated    Type = "user_created"
	ExpenseCreated Type = "expense_created"
	ExpenseDeleted Type = "expense_deleted"
	TierChanged    Type = "tier_changed"
)

// Event is a single notification. Fields not relevant to Type are zero.
type Event struct {
	Type      Type
	UserID    int64
	ExpenseID int64
	Amount    decimal.Decimal
	Tier      models.Tier
	At        time.Time
}

// Sink receives events.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Multi fans an event out to every sink, even after one fails.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		errs = append(errs, s.Publish(ctx, e))
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
