package events

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/shopspring/decimal"
)

// LogSink writes every event to the logger at Info.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log.With("module", "events")}
}

func (s *LogSink) Publish(ctx context.Context, e Event) error {
	s.log.Info(ctx, "event", "type", string(e.Type), "user_id", e.UserID,
		"expense_id", e.ExpenseID, "amount", e.Amount.String())
	return nil
}

// NotificationSink sends a welcome note on user creation and an alert for
// expenses strictly above Threshold. Delivery is a log line for now.
type NotificationSink struct {
	threshold decimal.Decimal
	log       logging.Logger
	sent      atomic.Int64
}

func NewNotificationSink(threshold decimal.Decimal, log logging.Logger) *NotificationSink {
	return &NotificationSink{threshold: threshold, log: log.With("module", "notifications")}
}

func (s *NotificationSink) Publish(ctx context.Context, e Event) error {
	switch e.Type {
	case UserCreated:
		s.log.Info(ctx, "welcome notification sent", "user_id", e.UserID)
		s.sent.Add(1)
	case ExpenseCreated:
		if e.Amount.GreaterThan(s.threshold) {
			s.log.Info(ctx, "high expense alert", "user_id", e.UserID, "amount", e.Amount.String())
			s.sent.Add(1)
		}
	}
	return nil
}

// Sent returns how many notifications went out.
func (s *NotificationSink) Sent() int64 { return s.sent.Load() }

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// History returns recorded events, filtered by type unless t is empty.
func (r *Recorder) History(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t == "" {
		return slices.Clone(r.events)
	}
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
