package dlq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/webhook"
)

type captureEnqueuer struct {
	events []webhook.Event
	err    error
}

func (c *captureEnqueuer) Enqueue(_ context.Context, e webhook.Event) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, e)
	return nil
}

func TestReplayerRetryRemovesEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	entry := entryAt("dl_1", time.Now().UTC())
	require.NoError(t, store.Store(ctx, entry))

	enq := &captureEnqueuer{}
	r := NewReplayer(store, enq)

	require.NoError(t, r.Retry(ctx, "dl_1"))

	require.Len(t, enq.events, 1)
	assert.Equal(t, entry.Event.RequestID, enq.events[0].RequestID)

	_, err := store.Get(ctx, "dl_1")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestReplayerRetryUnknownID(t *testing.T) {
	r := NewReplayer(NewMemoryStore(), &captureEnqueuer{})

	assert.ErrorIs(t, r.Retry(context.Background(), "missing"), ErrEntryNotFound)
}

func TestReplayerKeepsEntryWhenEnqueueFails(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Store(ctx, entryAt("dl_1", time.Now().UTC())))

	r := NewReplayer(store, &captureEnqueuer{err: webhook.ErrQueueFull})

	err := r.Retry(ctx, "dl_1")
	assert.ErrorIs(t, err, webhook.ErrQueueFull)

	_, getErr := store.Get(ctx, "dl_1")
	assert.NoError(t, getErr, "entry must survive a failed replay")
	assert.False(t, errors.Is(getErr, ErrEntryNotFound))
}
