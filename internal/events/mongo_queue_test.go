package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs against a real server only when WORDLE_TEST_MONGO_URI is set
func TestMongoQueue(t *testing.T) {
	uri := os.Getenv("WORDLE_TEST_MONGO_URI")
	if uri == "" || testing.Short() {
		t.Skip("WORDLE_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Fatalf("ConnectMongo() error = %v", err)
	}
	db := client.Database("wordle_test_" + uuid.New().String()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	q, err := NewMongoQueue(ctx, db)
	if err != nil {
		t.Fatalf("NewMongoQueue() error = %v", err)
	}
	now := time.Now().UTC()
	q.now = func() time.Time { return now }

	msg, err := q.Publish(ctx, "game:1", []byte(`{"userId":1,"result":"WIN"}`))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	claimed, err := q.Claim(ctx, "w", 5, time.Minute)
	if err != nil || len(claimed) != 1 || claimed[0].ID != msg.ID || claimed[0].Attempts != 1 {
		t.Fatalf("Claim() = %+v, %v", claimed, err)
	}
	if again, _ := q.Claim(ctx, "w", 5, time.Minute); len(again) != 0 {
		t.Errorf("leased message claimed twice")
	}

	if err := q.DeadLetter(ctx, msg.ID, "boom"); err != nil {
		t.Fatalf("DeadLetter() error = %v", err)
	}
	dead, err := q.ListDead(ctx, 10)
	if err != nil || len(dead) != 1 {
		t.Fatalf("ListDead() = %+v, %v", dead, err)
	}
	if n, err := q.Requeue(ctx, msg.ID); err != nil || n != 1 {
		t.Fatalf("Requeue() = %d, %v", n, err)
	}
	claimed, _ = q.Claim(ctx, "w", 5, time.Minute)
	if len(claimed) != 1 {
		t.Fatalf("Claim() after requeue = %+v", claimed)
	}
	if err := q.Ack(ctx, msg.ID); err != nil {
		t.Fatalf("Ack() error = %v", err)
	}
}
