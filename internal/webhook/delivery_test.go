package webhook

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/acp"
)

type recordingDLQ struct {
	mu      sync.Mutex
	entries []DeadLetter
}

func (r *recordingDLQ) Store(_ context.Context, entry DeadLetter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingDLQ) all() []DeadLetter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DeadLetter(nil), r.entries...)
}

func newTestPipeline(t *testing.T, endpoint string, dlq DeadLetterStore) *Pipeline {
	t.Helper()
	cfg := PipelineConfig{
		Endpoint:   endpoint,
		MerchantID: "merchant_test",
		Secret:     []byte("merchant_secret"),
		Workers:    2,
	}
	queue := NewQueue(16, EnqueueFail)
	scheduler := NewRetryScheduler(time.Millisecond, 10*time.Millisecond, 5)
	return NewPipeline(cfg, queue, scheduler, dlq, nil, log.New(io.Discard, "", 0))
}

func TestPipelineDeliversSignedEvent(t *testing.T) {
	received := make(chan *http.Request, 1)
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- r
		bodies <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dlq := &recordingDLQ{}
	p := newTestPipeline(t, srv.URL, dlq)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	event := NewOrderCreate("cs_123", "https://merchant.test/orders/123", acp.OrderStatusCreated)
	require.NoError(t, p.Enqueue(ctx, event))

	select {
	case r := <-received:
		body := <-bodies

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, event.RequestID, r.Header.Get("Request-Id"))
		_, err := time.Parse(time.RFC3339, r.Header.Get("Timestamp"))
		assert.NoError(t, err)

		sig := r.Header.Get("Merchant-Signature")
		require.True(t, len(sig) > len("merchant_test-"))
		assert.Equal(t, "merchant_test-"+GenerateSignature([]byte("merchant_secret"), body), sig)

		assert.Contains(t, string(body), `"type":"order_create"`)
		assert.Contains(t, string(body), `"checkout_session_id":"cs_123"`)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	cancel()
	<-done
	assert.Empty(t, dlq.all())
}

func TestPipelineRetriesUntilSuccess(t *testing.T) {
	var mu sync.Mutex
	var attempts int
	success := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		close(success)
	}))
	defer srv.Close()

	dlq := &recordingDLQ{}
	p := newTestPipeline(t, srv.URL, dlq)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	require.NoError(t, p.Enqueue(ctx, NewOrderUpdate("cs_retry", "https://merchant.test/orders/retry", acp.OrderStatusShipped, nil)))

	select {
	case <-success:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery never succeeded")
	}

	cancel()
	<-done

	mu.Lock()
	assert.Equal(t, 3, attempts, "two failures then one success")
	mu.Unlock()
	assert.Empty(t, dlq.all(), "a recovered event must not be dead-lettered")
}

func TestPipelineDeadLettersAfterMaxRetries(t *testing.T) {
	var mu sync.Mutex
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dlq := &recordingDLQ{}
	p := newTestPipeline(t, srv.URL, dlq)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	event := NewOrderCreate("cs_doomed", "https://merchant.test/orders/doomed", acp.OrderStatusCreated)
	require.NoError(t, p.Enqueue(ctx, event))

	deadline := time.After(5 * time.Second)
	for len(dlq.all()) == 0 {
		select {
		case <-deadline:
			t.Fatal("event was never dead-lettered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done

	entries := dlq.all()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, event.RequestID, entry.ID)
	assert.Equal(t, "cs_doomed", entry.Event.CheckoutSessionID)
	assert.Equal(t, 5, entry.Attempts)
	assert.Contains(t, entry.LastResult, "http_error")
	assert.False(t, entry.FirstFailedAt.IsZero())

	mu.Lock()
	assert.Equal(t, 5, attempts)
	mu.Unlock()
}

func TestPipelineIndependentEventsDoNotBlockEachOther(t *testing.T) {
	var mu sync.Mutex
	delivered := map[string]int{}
	allDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("Request-Id")
		mu.Lock()
		delivered[id]++
		n := len(delivered)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		if n == 4 {
			close(allDone)
		}
	}))
	defer srv.Close()

	dlq := &recordingDLQ{}
	p := newTestPipeline(t, srv.URL, dlq)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	for i := 0; i < 4; i++ {
		require.NoError(t, p.Enqueue(ctx, NewOrderCreate("cs_shared", "https://merchant.test/orders/shared", acp.OrderStatusConfirmed)))
	}

	select {
	case <-allDone:
	case <-time.After(5 * time.Second):
		t.Fatal("not all events were delivered")
	}

	cancel()
	<-done

	mu.Lock()
	assert.Len(t, delivered, 4, "each event carries its own request id")
	for id, n := range delivered {
		assert.Equal(t, 1, n, "event %s delivered exactly once", id)
	}
	mu.Unlock()
}
