// Package events announces committed ledger changes to other consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/budgetbot/core/logger"
	"github.com/m3rciful/budgetbot/internal/ledger"
)

// Type is the event name, also used as the AMQP routing key.
type Type string

const (
	ExpenseRecorded Type = "expense.recorded"
	IncomeRecorded  Type = "income.recorded"
	BudgetSet       Type = "budget.set"
)

// Event describes one committed change of the budget document.
type Event struct {
	Type        Type          `json:"type"`
	ChatID      int64         `json:"chat_id"`
	ID          *ledger.ID    `json:"id,omitempty"`
	CategoryID  *ledger.ID    `json:"category_id,omitempty"`
	Category    string        `json:"category,omitempty"`
	Amount      ledger.Amount `json:"amount"`
	Description string        `json:"description,omitempty"`
	Date        string        `json:"date,omitempty"`
	Unallocated ledger.Amount `json:"unallocated"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// Encode serializes an event as the JSON message body.
func Encode(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("events: encode %s: %w", e.Type, err)
	}
	return body, nil
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }

// Emit publishes e and logs the outcome. Publishing is best effort: failures never reach
// the caller.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	start := time.Now()
	if err := p.Publish(ctx, e); err != nil {
		logger.Events.WarnContext(ctx, "publish failed",
			slog.String("event", "events.publish"),
			slog.String("status", "fail"),
			slog.String("routing_key", string(e.Type)),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return
	}
	logger.Events.DebugContext(ctx, "published",
		slog.String("event", "events.publish"),
		slog.String("routing_key", string(e.Type)),
		slog.Duration("duration", logger.Took(start)),
	)
}
