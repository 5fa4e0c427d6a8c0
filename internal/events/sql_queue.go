package events

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wordle/internal/database"
)

// SQLQueue stores messages in the outcome_events table
type SQLQueue struct {
	db  *database.DB
	now func() time.Time
}

func NewSQLQueue(db *database.DB) *SQLQueue {
	return &SQLQueue{db: db, now: time.Now}
}

const messageColumns = "message_id, event_key, payload, status, attempts, COALESCE(last_error, ''), created_at"

func (q *SQLQueue) Publish(ctx context.Context, key string, payload []byte) (Message, error) {
	now := q.now().UTC()
	msg := Message{
		ID:        uuid.New().String(),
		Key:       key,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: now,
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO outcome_events (message_id, event_key, payload, status, attempts, available_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)
	`, msg.ID, key, string(payload), StatusPending, now, now, now)
	if err != nil {
		return Message{}, fmt.Errorf("failed to publish message: %w", err)
	}
	return msg, nil
}

// Claim leases up to limit due messages for consumer
func (q *SQLQueue) Claim(ctx context.Context, consumer string, limit int, lease time.Duration) ([]Message, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, fmt.Errorf("consumer is required")
	}
	if limit <= 0 || lease <= 0 {
		return nil, fmt.Errorf("limit and lease must be greater than zero")
	}

	now := q.now().UTC()
	leaseExpiresAt := now.Add(lease)
	var claimed []Message

	err := q.db.WithTx(ctx, func(tx *database.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT message_id
			FROM outcome_events
			WHERE status = ? AND available_at <= ?
			AND (lease_expires_at IS NULL OR lease_expires_at <= ?)
			ORDER BY id
			LIMIT ?
		`, StatusPending, now, now, limit)
		if err != nil {
			return fmt.Errorf("select claim candidates: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan claim candidate: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, id := range ids {
			result, err := tx.ExecContext(ctx, `
				UPDATE outcome_events
				SET lease_owner = ?, lease_expires_at = ?, attempts = attempts + 1, updated_at = ?
				WHERE message_id = ? AND status = ?
				AND (lease_expires_at IS NULL OR lease_expires_at <= ?)
			`, consumer, leaseExpiresAt, now, id, StatusPending, now)
			if err != nil {
				return fmt.Errorf("claim message %s: %w", id, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				continue
			}

			msg, err := scanMessage(tx.QueryRowContext(ctx,
				"SELECT "+messageColumns+" FROM outcome_events WHERE message_id = ?", id))
			if err != nil {
				return fmt.Errorf("load claimed message %s: %w", id, err)
			}
			claimed = append(claimed, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (q *SQLQueue) Ack(ctx context.Context, id string) error {
	return q.update(ctx, id, `
		UPDATE outcome_events
		SET status = ?, lease_owner = NULL, lease_expires_at = NULL, updated_at = ?
		WHERE message_id = ?
	`, StatusDelivered, q.now().UTC(), id)
}

func (q *SQLQueue) Retry(ctx context.Context, id, cause string, at time.Time) error {
	return q.update(ctx, id, `
		UPDATE outcome_events
		SET available_at = ?, last_error = ?, lease_owner = NULL, lease_expires_at = NULL, updated_at = ?
		WHERE message_id = ?
	`, at.UTC(), cause, q.now().UTC(), id)
}

func (q *SQLQueue) DeadLetter(ctx context.Context, id, cause string) error {
	return q.update(ctx, id, `
		UPDATE outcome_events
		SET status = ?, last_error = ?, lease_owner = NULL, lease_expires_at = NULL, updated_at = ?
		WHERE message_id = ?
	`, StatusDead, cause, q.now().UTC(), id)
}

func (q *SQLQueue) ListDead(ctx context.Context, limit int) ([]Message, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM outcome_events WHERE status = ? ORDER BY id LIMIT ?",
		StatusDead, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (q *SQLQueue) Requeue(ctx context.Context, id string) (int64, error) {
	now := q.now().UTC()
	query := `
		UPDATE outcome_events
		SET status = ?, attempts = 0, available_at = ?, last_error = NULL,
			lease_owner = NULL, lease_expires_at = NULL, updated_at = ?
		WHERE status = ?
	`
	args := []any{StatusPending, now, now, StatusDead}
	if id != "" {
		query += " AND message_id = ?"
		args = append(args, id)
	}

	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue messages: %w", err)
	}
	return result.RowsAffected()
}

func (q *SQLQueue) update(ctx context.Context, id, query string, args ...any) error {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update message %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (Message, error) {
	var msg Message
	var payload string
	err := row.Scan(&msg.ID, &msg.Key, &payload, &msg.Status, &msg.Attempts, &msg.LastError, &msg.CreatedAt)
	if err == sql.ErrNoRows {
		return Message{}, ErrMessageNotFound
	}
	if err != nil {
		return Message{}, err
	}
	msg.Payload = []byte(payload)
	return msg, nil
}
