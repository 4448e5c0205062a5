package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/budgetbot/internal/ledger"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) Close() error { return nil }

func expense() Event {
	id := ledger.NumericID(1715000000000)
	cat := ledger.NumericID(1)
	return Event{
		Type:        ExpenseRecorded,
		ChatID:      42,
		ID:          &id,
		CategoryID:  &cat,
		Category:    "Groceries",
		Amount:      decimal.RequireFromString("12.5"),
		Description: "Shop",
		Date:        "2024-05-02",
		Unallocated: decimal.RequireFromString("800"),
		OccurredAt:  time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestEncode(t *testing.T) {
	body, err := Encode(expense())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "expense.recorded", got["type"])
	assert.EqualValues(t, 1715000000000, got["id"])
	assert.EqualValues(t, 1, got["category_id"])
	assert.EqualValues(t, 12.5, got["amount"])
	assert.Equal(t, "2024-05-02T10:00:00Z", got["occurred_at"])
}

func TestEncodeOmitsUnsetIDs(t *testing.T) {
	body, err := Encode(Event{Type: IncomeRecorded, Amount: decimal.RequireFromString("1000")})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "category_id")
	assert.NotContains(t, string(body), `"id"`)
}

func TestAMQPPublisherRoutesByType(t *testing.T) {
	ch := &fakeChannel{}
	p := newAMQPPublisher(ch, "budget")

	require.NoError(t, p.Publish(context.Background(), expense()))
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "budget", ch.sent[0].exchange)
	assert.Equal(t, "expense.recorded", ch.sent[0].key)
	assert.Equal(t, "application/json", ch.sent[0].msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.sent[0].msg.DeliveryMode)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisherError(t *testing.T) {
	p := newAMQPPublisher(&fakeChannel{err: errors.New("channel closed")}, "budget")
	err := p.Publish(context.Background(), expense())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expense.recorded")
}

func TestEmitSwallowsErrors(t *testing.T) {
	r := &recorder{err: errors.New("broker down")}
	Emit(context.Background(), r, Event{Type: BudgetSet})

	require.Len(t, r.events, 1)
	assert.False(t, r.events[0].OccurredAt.IsZero())

	Emit(context.Background(), nil, Event{Type: BudgetSet})
	Emit(context.Background(), Nop{}, Event{Type: BudgetSet})
}
