package webhook

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkerPoolSize drains the queue when none is configured.
const DefaultWorkerPoolSize = 10

// DeadLetterStore receives events whose delivery exhausted all retries.
// Implementations live in the dlq package.
type DeadLetterStore interface {
	Store(ctx context.Context, entry DeadLetter) error
}

// AuditPublisher records terminal delivery outcomes on an external event
// stream. Optional; a nil publisher disables auditing.
type AuditPublisher interface {
	PublishDelivered(ctx context.Context, e Event, attempts int) error
	PublishDeadLettered(ctx context.Context, e Event, attempts int, lastResult string) error
}

// PipelineConfig holds the delivery pipeline settings.
type PipelineConfig struct {
	// Endpoint is the merchant webhook URL.
	Endpoint string
	// MerchantID prefixes the Merchant-Signature header value.
	MerchantID string
	// Secret is the HMAC signing key shared with the merchant.
	Secret []byte
	// Workers is the delivery worker pool size.
	Workers int
	// RequestTimeout bounds one HTTP attempt.
	RequestTimeout time.Duration
}

// Pipeline drains the webhook queue with a fixed pool of workers. Each
// worker signs the event body, POSTs it, and either discards the event on
// 2xx, requeues it after backoff, or hands it to the dead letter store once
// the retry budget is spent. Per-event attempts are strictly sequential;
// there is no ordering guarantee across distinct events.
type Pipeline struct {
	cfg       PipelineConfig
	queue     *Queue
	scheduler *RetryScheduler
	dlq       DeadLetterStore
	audit     AuditPublisher
	client    *http.Client
	logger    *log.Logger

	// retryTimers tracks scheduled requeues so Run only returns once no
	// event is parked on a backoff timer.
	retryTimers sync.WaitGroup
}

// NewPipeline assembles a delivery pipeline. audit may be nil.
func NewPipeline(cfg PipelineConfig, queue *Queue, scheduler *RetryScheduler, dlq DeadLetterStore, audit AuditPublisher, logger *log.Logger) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkerPoolSize
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		queue:     queue,
		scheduler: scheduler,
		dlq:       dlq,
		audit:     audit,
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Enqueue submits an event for delivery using the queue's configured mode.
func (p *Pipeline) Enqueue(ctx context.Context, e Event) error {
	return p.queue.Enqueue(ctx, e)
}

// Run drains the queue until ctx is cancelled, then waits for in-flight
// attempts and parked retries to settle.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		worker := i
		g.Go(func() error {
			p.runWorker(ctx, worker)
			return nil
		})
	}
	err := g.Wait()
	p.retryTimers.Wait()
	return err
}

func (p *Pipeline) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.queue.ch:
			p.process(ctx, id, t)
		}
	}
}

// process runs one delivery attempt and routes the outcome.
func (p *Pipeline) process(ctx context.Context, workerID int, t *task) {
	attempt := p.attempt(ctx, t)
	t.attempts = append(t.attempts, attempt)

	if attempt.Result == AttemptSuccess {
		p.logger.Printf("[Webhook] delivered request_id=%s session=%s attempts=%d",
			t.event.RequestID, t.event.CheckoutSessionID, len(t.attempts))
		if p.audit != nil {
			if err := p.audit.PublishDelivered(ctx, t.event, len(t.attempts)); err != nil {
				p.logger.Printf("[Webhook] audit publish failed for %s: %v", t.event.RequestID, err)
			}
		}
		return
	}

	if p.scheduler.ShouldRetry(len(t.attempts)) {
		delay := p.scheduler.NextDelay(len(t.attempts))
		p.logger.Printf("[Webhook] attempt %d failed for request_id=%s (%s), retrying in %s",
			len(t.attempts), t.event.RequestID, describeAttempt(attempt), delay)
		p.scheduleRetry(ctx, t, delay)
		return
	}

	p.deadLetter(ctx, t, attempt)
}

// scheduleRetry parks the task on a timer and requeues it when the timer
// fires. The worker itself returns to the queue immediately; the wait is a
// cooperative suspension, not a blocked thread.
func (p *Pipeline) scheduleRetry(ctx context.Context, t *task, delay time.Duration) {
	p.retryTimers.Add(1)
	go func() {
		defer p.retryTimers.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			if err := p.queue.requeue(ctx, t); err != nil {
				p.logger.Printf("[Webhook] requeue aborted for request_id=%s: %v", t.event.RequestID, err)
			}
		case <-ctx.Done():
		}
	}()
}

func (p *Pipeline) deadLetter(ctx context.Context, t *task, last Attempt) {
	entry := DeadLetter{
		ID:            t.event.RequestID,
		Event:         t.event,
		Attempts:      len(t.attempts),
		LastResult:    describeAttempt(last),
		FirstFailedAt: t.attempts[0].At,
		RetryAfter:    time.Now().UTC().Add(p.scheduler.NextDelay(len(t.attempts))),
	}
	p.logger.Printf("[Webhook] dead-lettering request_id=%s session=%s after %d attempts (%s)",
		entry.ID, t.event.CheckoutSessionID, entry.Attempts, entry.LastResult)

	if err := p.dlq.Store(ctx, entry); err != nil {
		p.logger.Printf("[Webhook] DLQ store failed for %s: %v", entry.ID, err)
	}
	if p.audit != nil {
		if err := p.audit.PublishDeadLettered(ctx, t.event, entry.Attempts, entry.LastResult); err != nil {
			p.logger.Printf("[Webhook] audit publish failed for %s: %v", entry.ID, err)
		}
	}
}

// attempt performs a single signed POST to the merchant endpoint.
func (p *Pipeline) attempt(ctx context.Context, t *task) Attempt {
	number := len(t.attempts) + 1
	now := time.Now().UTC()

	body, err := t.event.MarshalWire()
	if err != nil {
		// Serialization cannot be fixed by retrying, but the DLQ keeps the
		// event visible instead of dropping it.
		return Attempt{Number: number, Result: AttemptNetworkError, Error: fmt.Sprintf("marshal: %v", err), At: now}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Attempt{Number: number, Result: AttemptNetworkError, Error: err.Error(), At: now}
	}

	signature := GenerateSignature(p.cfg.Secret, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Merchant-Signature", p.cfg.MerchantID+"-"+signature)
	req.Header.Set("Request-Id", t.event.RequestID)
	req.Header.Set("Timestamp", now.Format(time.RFC3339))

	resp, err := p.client.Do(req)
	if err != nil {
		return Attempt{Number: number, Result: AttemptNetworkError, Error: err.Error(), At: now}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Attempt{Number: number, Result: AttemptSuccess, StatusCode: resp.StatusCode, At: now}
	}
	return Attempt{Number: number, Result: AttemptHTTPError, StatusCode: resp.StatusCode, At: now}
}

func describeAttempt(a Attempt) string {
	switch a.Result {
	case AttemptSuccess:
		return fmt.Sprintf("success (status %d)", a.StatusCode)
	case AttemptHTTPError:
		return fmt.Sprintf("http_error (status %d)", a.StatusCode)
	default:
		return fmt.Sprintf("network_error (%s)", a.Error)
	}
}
