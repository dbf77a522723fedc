package dlq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/acp"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/webhook"
)

func entryAt(id string, failedAt time.Time) webhook.DeadLetter {
	return webhook.DeadLetter{
		ID:            id,
		Event:         webhook.NewOrderCreate("cs_"+id, "https://merchant.test/orders/"+id, acp.OrderStatusCreated),
		Attempts:      5,
		LastResult:    "http_error (status 503)",
		FirstFailedAt: failedAt,
		RetryAfter:    failedAt.Add(time.Minute),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	entry := entryAt("dl_1", time.Now().UTC())

	require.NoError(t, s.Store(ctx, entry))

	got, err := s.Get(ctx, "dl_1")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.Event.CheckoutSessionID, got.Event.CheckoutSessionID)
	assert.Equal(t, 5, got.Attempts)
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestMemoryStoreListOrderingAndPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Store(ctx, entryAt("dl_c", base.Add(2*time.Hour))))
	require.NoError(t, s.Store(ctx, entryAt("dl_a", base)))
	require.NoError(t, s.Store(ctx, entryAt("dl_b", base.Add(time.Hour))))

	all, err := s.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "dl_a", all[0].ID)
	assert.Equal(t, "dl_b", all[1].ID)
	assert.Equal(t, "dl_c", all[2].ID)

	page, err := s.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "dl_b", page[0].ID)

	empty, err := s.List(ctx, 10, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, entryAt("dl_1", time.Now().UTC())))

	require.NoError(t, s.Delete(ctx, "dl_1"))
	_, err := s.Get(ctx, "dl_1")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "dl_1"), ErrEntryNotFound)
}

func TestMemoryStoreUpsert(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	first := entryAt("dl_1", time.Now().UTC())
	require.NoError(t, s.Store(ctx, first))

	second := first
	second.Attempts = 7
	require.NoError(t, s.Store(ctx, second))

	got, err := s.Get(ctx, "dl_1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Attempts)
}
