package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"wordle/internal/models"
)

// Publisher emits game outcomes under the key built by OutcomeKey
type Publisher interface {
	PublishOutcome(ctx context.Context, key string, event models.OutcomeEvent) error
}

// QueuePublisher writes outcomes to a Queue keyed by game
type QueuePublisher struct {
	queue Queue
}

func NewQueuePublisher(queue Queue) *QueuePublisher {
	return &QueuePublisher{queue: queue}
}

func (p *QueuePublisher) PublishOutcome(ctx context.Context, key string, event models.OutcomeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}
	msg, err := p.queue.Publish(ctx, key, payload)
	if err != nil {
		return err
	}
	log.Printf("Published outcome %s for %s", event.Result, msg.Key)
	return nil
}

// AsyncPublisher hands each outcome to a background goroutine and returns at once.
// Failures are logged and never retried; Wait blocks until in-flight publishes finish.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncPublisher(next Publisher, timeout time.Duration) *AsyncPublisher {
	return &AsyncPublisher{next: next, timeout: timeout}
}

func (p *AsyncPublisher) PublishOutcome(ctx context.Context, key string, event models.OutcomeEvent) error {
	// Detached from the request so a finished response does not cancel the publish
	ctx = context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		if err := p.next.PublishOutcome(ctx, key, event); err != nil {
			log.Printf("Failed to publish outcome %s: %v", key, err)
		}
	}()
	return nil
}

// Wait blocks until every publish started so far has finished
func (p *AsyncPublisher) Wait() {
	p.wg.Wait()
}
