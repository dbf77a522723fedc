package dlq

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/webhook"
)

// PostgresStore persists dead letters in the dead_letters table. The event
// payload is stored as JSONB so replay reconstructs the exact notification.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) Store(ctx context.Context, entry webhook.DeadLetter) error {
	if s.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	payload, err := json.Marshal(entry.Event)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter event: %w", err)
	}
	query := `
		INSERT INTO dead_letters (id, event, attempts, last_result, first_failed_at, retry_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			event = EXCLUDED.event,
			attempts = EXCLUDED.attempts,
			last_result = EXCLUDED.last_result,
			retry_after = EXCLUDED.retry_after,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.DB.ExecContext(ctx, query, entry.ID, payload, entry.Attempts, entry.LastResult, entry.FirstFailedAt, entry.RetryAfter); err != nil {
		return fmt.Errorf("failed to insert dead letter: %w", err)
	}
	log.Printf("[DB] Stored dead letter: %s", entry.ID)
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (webhook.DeadLetter, error) {
	if s.DB == nil {
		return webhook.DeadLetter{}, fmt.Errorf("database not initialized")
	}
	query := `
		SELECT id, event, attempts, last_result, first_failed_at, retry_after
		FROM dead_letters
		WHERE id = $1
	`
	var entry webhook.DeadLetter
	var payload []byte
	err := s.DB.QueryRowContext(ctx, query, id).
		Scan(&entry.ID, &payload, &entry.Attempts, &entry.LastResult, &entry.FirstFailedAt, &entry.RetryAfter)
	if errors.Is(err, sql.ErrNoRows) {
		return webhook.DeadLetter{}, ErrEntryNotFound
	}
	if err != nil {
		return webhook.DeadLetter{}, fmt.Errorf("failed to query dead letter: %w", err)
	}
	if err := json.Unmarshal(payload, &entry.Event); err != nil {
		return webhook.DeadLetter{}, fmt.Errorf("failed to unmarshal dead letter event: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]webhook.DeadLetter, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT id, event, attempts, last_result, first_failed_at, retry_after
		FROM dead_letters
		ORDER BY first_failed_at, id
		LIMIT $1 OFFSET $2
	`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query dead letters: %w", err)
	}
	defer rows.Close()

	entries := []webhook.DeadLetter{}
	for rows.Next() {
		var entry webhook.DeadLetter
		var payload []byte
		if err := rows.Scan(&entry.ID, &payload, &entry.Attempts, &entry.LastResult, &entry.FirstFailedAt, &entry.RetryAfter); err != nil {
			return nil, fmt.Errorf("failed to scan dead letter: %w", err)
		}
		if err := json.Unmarshal(payload, &entry.Event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dead letter event: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dead letters: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if s.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	result, err := s.DB.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dead letter: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrEntryNotFound
	}
	log.Printf("[DB] Deleted dead letter: %s", id)
	return nil
}
