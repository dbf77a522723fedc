package dlq

import (
	"context"
	"fmt"
	"log"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/webhook"
)

// Enqueuer re-submits an event into the delivery pipeline.
type Enqueuer interface {
	Enqueue(ctx context.Context, e webhook.Event) error
}

// Replayer hands dead letters back to the delivery pipeline on operator
// request.
type Replayer struct {
	store    Store
	enqueuer Enqueuer
}

func NewReplayer(store Store, enqueuer Enqueuer) *Replayer {
	return &Replayer{store: store, enqueuer: enqueuer}
}

// Retry re-enqueues the dead letter's event with a fresh attempt count and
// removes the record. The record is kept if re-enqueueing fails, so a full
// queue never loses the entry.
func (r *Replayer) Retry(ctx context.Context, id string) error {
	entry, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.enqueuer.Enqueue(ctx, entry.Event); err != nil {
		return fmt.Errorf("failed to re-enqueue dead letter %s: %w", id, err)
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove replayed dead letter %s: %w", id, err)
	}
	log.Printf("[DLQ] Replayed dead letter: %s", id)
	return nil
}
