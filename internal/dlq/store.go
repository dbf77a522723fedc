package dlq

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/webhook"
)

// ErrEntryNotFound is returned when a dead letter id does not exist.
var ErrEntryNotFound = errors.New("dead letter entry not found")

// Store persists exhausted webhook deliveries for inspection and manual
// replay. Implementations must be safe for concurrent use.
type Store interface {
	Store(ctx context.Context, entry webhook.DeadLetter) error
	Get(ctx context.Context, id string) (webhook.DeadLetter, error)
	List(ctx context.Context, limit, offset int) ([]webhook.DeadLetter, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps dead letters in memory. Suitable for tests and
// single-instance deployments without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]webhook.DeadLetter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]webhook.DeadLetter)}
}

func (s *MemoryStore) Store(_ context.Context, entry webhook.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (webhook.DeadLetter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return webhook.DeadLetter{}, ErrEntryNotFound
	}
	return entry, nil
}

// List returns entries ordered oldest failure first.
func (s *MemoryStore) List(_ context.Context, limit, offset int) ([]webhook.DeadLetter, error) {
	s.mu.RLock()
	all := make([]webhook.DeadLetter, 0, len(s.entries))
	for _, entry := range s.entries {
		all = append(all, entry)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].FirstFailedAt.Equal(all[j].FirstFailedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].FirstFailedAt.Before(all[j].FirstFailedAt)
	})

	if offset >= len(all) {
		return []webhook.DeadLetter{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(s.entries, id)
	return nil
}
