// Package events moves game outcome notifications from the game service to
// the statistics consumer with at-least-once delivery.
package events

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Message states
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusDead      = "dead"
)

var ErrMessageNotFound = errors.New("message not found")

// Message is one queued event. Attempts counts claims, including the current one.
type Message struct {
	ID        string
	Key       string
	Payload   []byte
	Status    string
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// Queue is a durable, leased message queue.
// A claimed message stays invisible to other consumers until its lease
// expires; a message that is never acknowledged is delivered again.
type Queue interface {
	Publish(ctx context.Context, key string, payload []byte) (Message, error)
	Claim(ctx context.Context, consumer string, limit int, lease time.Duration) ([]Message, error)
	Ack(ctx context.Context, id string) error
	Retry(ctx context.Context, id, cause string, at time.Time) error
	DeadLetter(ctx context.Context, id, cause string) error
	ListDead(ctx context.Context, limit int) ([]Message, error)
	// Requeue moves a dead message back to pending with its attempts reset.
	// An empty id requeues every dead message.
	Requeue(ctx context.Context, id string) (int64, error)
}

// OutcomeKey is the message key for a game's outcome. It doubles as the
// idempotency key on the consuming side, so it carries the game's creation
// time as well as its id: a reused id never matches an older game's key.
func OutcomeKey(gameID int64, createdAt time.Time) string {
	return "game:" + strconv.FormatInt(gameID, 10) + ":" + strconv.FormatInt(createdAt.Unix(), 10)
}
