package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports a lookup for a message id with no stored payload.
var ErrNotFound = errors.New("payload not found")

// Receipt is one accepted delivery.
type Receipt struct {
	MessageID  string
	Endpoint   string
	SignedAt   int64 // sender-declared unix timestamp, from the validated artifact
	ReceivedAt string
	Body       []byte
}

// Store reads and writes receipts.
type Store struct {
	db *sql.DB
}

// New wraps db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save persists a receipt keyed by its message id. A redelivered id is a
// no-op; the bool reports whether the row was new.
func (s *Store) Save(ctx context.Context, rec Receipt) (bool, error) {
	if rec.MessageID == "" {
		return false, fmt.Errorf("message id is empty")
	}
	receivedAt := rec.ReceivedAt
	if receivedAt == "" {
		receivedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO webhook_payloads(message_id, endpoint, signed_at, received_at, body)
VALUES(?, ?, ?, ?, ?);
`, rec.MessageID, rec.Endpoint, rec.SignedAt, receivedAt, rec.Body)
	if err != nil {
		return false, fmt.Errorf("save payload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save payload: %w", err)
	}
	return n > 0, nil
}

// Get returns the receipt stored under id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Receipt, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT message_id, endpoint, signed_at, received_at, body
FROM webhook_payloads
WHERE message_id = ?;
`, id)

	var rec Receipt
	if err := row.Scan(&rec.MessageID, &rec.Endpoint, &rec.SignedAt, &rec.ReceivedAt, &rec.Body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payload: %w", err)
	}
	return &rec, nil
}

// Recent returns up to n receipts, newest first, bodies omitted.
func (s *Store) Recent(ctx context.Context, n int) ([]Receipt, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT message_id, endpoint, signed_at, received_at
FROM webhook_payloads
ORDER BY received_at DESC
LIMIT ?;
`, n)
	if err != nil {
		return nil, fmt.Errorf("list payloads: %w", err)
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		var rec Receipt
		if err := rows.Scan(&rec.MessageID, &rec.Endpoint, &rec.SignedAt, &rec.ReceivedAt); err != nil {
			return nil, fmt.Errorf("list payloads: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
