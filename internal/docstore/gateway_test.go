package docstore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/budgetbot/internal/ledger"
)

const seed = `{
  "categories": [{"id": 1, "name": "Groceries", "budgeted": 200, "activity": 0, "color": "green"}],
  "masterCategories": [],
  "income": [{"id": 2, "amount": 1000, "description": "Salary", "date": "2024-05-01"}],
  "transactions": [],
  "activityLog": [],
  "unallocated": 0
}`

type failingStore struct{ err error }

func (s failingStore) Get(context.Context) ([]byte, Version, error) { return nil, "", s.err }
func (s failingStore) Put(context.Context, []byte, Version) (Version, error) {
	return "", s.err
}

// racingStore lets another writer sneak in before the first n puts.
type racingStore struct {
	*MemoryStore
	races int32
	puts  atomic.Int32
}

func (s *racingStore) Put(ctx context.Context, content []byte, expected Version) (Version, error) {
	if s.puts.Add(1) <= s.races {
		cur, v, _ := s.MemoryStore.Get(ctx)
		doc, _ := ledger.Decode(cur)
		doc.RecordIncome(ledger.NumericID(int64(100+s.puts.Load())), decimal.NewFromInt(1), "web", "2024-05-01")
		out, _ := ledger.Encode(doc)
		_, _ = s.MemoryStore.Put(ctx, out, v)
	}
	return s.MemoryStore.Put(ctx, content, expected)
}

func TestFetchFallsBackToEmptyDocument(t *testing.T) {
	g := NewGateway(failingStore{err: errors.New("boom")})

	snap := g.Fetch(context.Background())
	require.NotNil(t, snap.Doc)
	assert.Empty(t, snap.Version)
	assert.Empty(t, snap.Doc.Categories)
	assert.True(t, ledger.Unallocated(snap.Doc).IsZero())
}

func TestFetchGarbageFallsBack(t *testing.T) {
	g := NewGateway(NewMemoryStore([]byte(`not json`)))
	snap := g.Fetch(context.Background())
	assert.Empty(t, snap.Doc.Income)
	assert.Empty(t, snap.Version)
}

func TestFetchIsIdempotent(t *testing.T) {
	g := NewGateway(NewMemoryStore([]byte(seed)))
	ctx := context.Background()

	a, b := g.Fetch(ctx), g.Fetch(ctx)
	assert.Equal(t, a.Version, b.Version)
	first, err := ledger.Encode(a.Doc)
	require.NoError(t, err)
	second, err := ledger.Encode(b.Doc)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestSaveThenFetchRoundTrips(t *testing.T) {
	g := NewGateway(NewMemoryStore([]byte(seed)))
	ctx := context.Background()

	snap := g.Fetch(ctx)
	snap.Doc.RecordIncome(ledger.NumericID(3), decimal.RequireFromString("12.34"), "Gift", "2024-05-02")
	require.NoError(t, g.Save(ctx, snap.Doc, snap.Version))

	want, err := ledger.Encode(snap.Doc)
	require.NoError(t, err)
	got, err := ledger.Encode(g.Fetch(ctx).Doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestSaveRejectsStaleVersion(t *testing.T) {
	g := NewGateway(NewMemoryStore([]byte(seed)))
	ctx := context.Background()

	snap := g.Fetch(ctx)
	require.NoError(t, g.Save(ctx, snap.Doc, snap.Version))
	assert.ErrorIs(t, g.Save(ctx, snap.Doc, snap.Version), ErrConflict)
}

func TestSaveOfFallbackDocumentCannotClobber(t *testing.T) {
	store := NewMemoryStore([]byte(seed))
	g := NewGateway(store)

	err := g.Save(context.Background(), ledger.NewDocument(), "")
	assert.ErrorIs(t, err, ErrConflict)

	content, _, _ := store.Get(context.Background())
	assert.JSONEq(t, seed, string(content))
}

func TestUpdateRecomputesUnallocated(t *testing.T) {
	g := NewGateway(NewMemoryStore([]byte(seed)))

	doc, err := g.Update(context.Background(), func(d *ledger.Document) error {
		d.SetBudget(ledger.NumericID(1), decimal.NewFromInt(300))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(700).Equal(doc.Unallocated))

	stored := g.Fetch(context.Background()).Doc
	assert.True(t, decimal.NewFromInt(700).Equal(stored.Unallocated))
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore([]byte(seed)), races: 2}
	g := NewGateway(store)
	var applied int

	_, err := g.Update(context.Background(), func(d *ledger.Document) error {
		applied++
		_, err := d.RecordExpense(ledger.NumericID(50), ledger.NumericID(1), decimal.NewFromInt(5), "shop", "2024-05-03")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	doc := g.Fetch(context.Background()).Doc
	assert.Len(t, doc.Income, 3, "concurrent writes survive")
	assert.Len(t, doc.Transactions, 1)
	assert.True(t, decimal.NewFromInt(-5).Equal(doc.Categories[0].Activity))
}

func TestUpdateGivesUp(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore([]byte(seed)), races: 10}
	g := NewGateway(store, WithUpdateAttempts(2))

	_, err := g.Update(context.Background(), func(*ledger.Document) error { return nil })
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int32(2), store.puts.Load())
}

func TestUpdateMutationErrorSkipsSave(t *testing.T) {
	store := NewMemoryStore([]byte(seed))
	g := NewGateway(store)

	_, err := g.Update(context.Background(), func(d *ledger.Document) error {
		_, err := d.RecordExpense(ledger.NumericID(9), ledger.NumericID(404), decimal.NewFromInt(1), "x", "2024-05-03")
		return err
	})
	require.ErrorIs(t, err, ledger.ErrCategoryNotFound)

	_, v, _ := store.Get(context.Background())
	assert.Equal(t, Version("1"), v)
}

func TestUpdateNoChange(t *testing.T) {
	store := NewMemoryStore([]byte(seed))
	g := NewGateway(store)

	doc, err := g.Update(context.Background(), func(d *ledger.Document) error {
		if !d.SetBudget(ledger.StringID("missing"), decimal.NewFromInt(1)) {
			return ErrNoChange
		}
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, doc)

	_, v, _ := store.Get(context.Background())
	assert.Equal(t, Version("1"), v)
}

func TestUpdateDoesNotWriteWhenLoadFails(t *testing.T) {
	g := NewGateway(failingStore{err: errors.New("offline")})
	called := false

	_, err := g.Update(context.Background(), func(*ledger.Document) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestUpdateCreatesMissingDocument(t *testing.T) {
	store := NewMemoryStore(nil)
	g := NewGateway(store)

	_, err := g.Update(context.Background(), func(d *ledger.Document) error {
		d.RecordIncome(ledger.NumericID(1), decimal.NewFromInt(10), "first", "2024-05-01")
		return nil
	})
	require.NoError(t, err)

	doc := g.Fetch(context.Background()).Doc
	require.Len(t, doc.Income, 1)
	assert.Len(t, doc.ActivityLog, 1)
}
