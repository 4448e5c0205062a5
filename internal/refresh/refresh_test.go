package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/budgetbot/internal/docstore"
	"github.com/m3rciful/budgetbot/internal/ledger"
)

type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) Fetch(context.Context) docstore.Snapshot {
	f.calls.Add(1)
	return docstore.Snapshot{Doc: ledger.NewDocument()}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context) ([]byte, docstore.Version, error) {
	return nil, "", errors.New("gist unavailable")
}

func (brokenStore) Put(context.Context, []byte, docstore.Version) (docstore.Version, error) {
	return "", errors.New("gist unavailable")
}

func TestLoopTicksUntilCancelled(t *testing.T) {
	f := &countingFetcher{}
	l := New(f, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return f.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoopSurvivesStoreFailures(t *testing.T) {
	l := New(docstore.NewGateway(brokenStore{}), time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, l.Run(ctx), context.DeadlineExceeded)
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, New(&countingFetcher{}, 0).interval)
}
