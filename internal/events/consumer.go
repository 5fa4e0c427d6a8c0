package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"wordle/internal/models"
)

// ErrPermanent marks a handler failure that retrying cannot fix
var ErrPermanent = errors.New("permanent failure")

// Handler processes one message. A nil return acknowledges it.
type Handler func(ctx context.Context, msg Message) error

// ConsumerConfig controls polling, leasing and retry behaviour
type ConsumerConfig struct {
	Consumer     string
	PollInterval time.Duration
	LeaseTTL     time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
	BatchSize    int
}

const defaultConsumer = "user-service"

func (c ConsumerConfig) normalized() ConsumerConfig {
	if strings.TrimSpace(c.Consumer) == "" {
		c.Consumer = defaultConsumer
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	return c
}

// Consumer polls a Queue and dispatches messages to a Handler
type Consumer struct {
	queue   Queue
	handler Handler
	cfg     ConsumerConfig
	now     func() time.Time
}

func NewConsumer(queue Queue, handler Handler, cfg ConsumerConfig) *Consumer {
	return &Consumer{queue: queue, handler: handler, cfg: cfg.normalized(), now: time.Now}
}

// Run polls until ctx is cancelled. Errors from a single poll are logged and
// never stop the loop.
func (c *Consumer) Run(ctx context.Context) error {
	log.Printf("Outcome consumer %s started (poll %s, max attempts %d)", c.cfg.Consumer, c.cfg.PollInterval, c.cfg.MaxAttempts)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := c.Poll(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Outcome consumer poll failed: %v", err)
		}
		select {
		case <-ctx.Done():
			log.Printf("Outcome consumer %s stopped", c.cfg.Consumer)
			return nil
		case <-ticker.C:
		}
	}
}

// Poll claims one batch and processes it, returning how many messages were handled
func (c *Consumer) Poll(ctx context.Context) (int, error) {
	messages, err := c.queue.Claim(ctx, c.cfg.Consumer, c.cfg.BatchSize, c.cfg.LeaseTTL)
	if err != nil {
		return 0, err
	}
	for _, msg := range messages {
		c.process(ctx, msg)
	}
	return len(messages), nil
}

func (c *Consumer) process(ctx context.Context, msg Message) {
	err := c.handle(ctx, msg)
	if err == nil {
		if ackErr := c.queue.Ack(ctx, msg.ID); ackErr != nil {
			log.Printf("Failed to ack message %s: %v", msg.ID, ackErr)
		}
		return
	}

	if errors.Is(err, ErrPermanent) || msg.Attempts >= c.cfg.MaxAttempts {
		log.Printf("Dead-lettering message %s (%s) after %d attempts: %v", msg.ID, msg.Key, msg.Attempts, err)
		if dlErr := c.queue.DeadLetter(ctx, msg.ID, err.Error()); dlErr != nil {
			log.Printf("Failed to dead-letter message %s: %v", msg.ID, dlErr)
		}
		return
	}

	at := c.now().Add(time.Duration(msg.Attempts) * c.cfg.RetryBackoff)
	log.Printf("Retrying message %s (%s) at %s: %v", msg.ID, msg.Key, at.Format(time.RFC3339), err)
	if retryErr := c.queue.Retry(ctx, msg.ID, err.Error(), at); retryErr != nil {
		log.Printf("Failed to schedule retry for message %s: %v", msg.ID, retryErr)
	}
}

func (c *Consumer) handle(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return c.handler(ctx, msg)
}

// DecodeOutcome parses an outcome payload. Malformed payloads are permanent failures.
func DecodeOutcome(msg Message) (models.OutcomeEvent, error) {
	var event models.OutcomeEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("%w: decode outcome: %v", ErrPermanent, err)
	}
	if err := event.Validate(); err != nil {
		return event, fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	return event, nil
}

// OutcomeHandler adapts an outcome applier to a Handler
func OutcomeHandler(apply func(ctx context.Context, key string, event models.OutcomeEvent) error) Handler {
	return func(ctx context.Context, msg Message) error {
		event, err := DecodeOutcome(msg)
		if err != nil {
			return err
		}
		return apply(ctx, msg.Key, event)
	}
}
