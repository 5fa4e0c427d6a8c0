package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "outcome_events"

// MongoQueue stores messages in a MongoDB collection
type MongoQueue struct {
	coll *mongo.Collection
	now  func() time.Time
}

type mongoMessage struct {
	ObjectID       primitive.ObjectID `bson:"_id,omitempty"`
	MessageID      string             `bson:"message_id"`
	Key            string             `bson:"key"`
	Payload        string             `bson:"payload"`
	Status         string             `bson:"status"`
	Attempts       int                `bson:"attempts"`
	AvailableAt    time.Time          `bson:"available_at"`
	LeaseOwner     string             `bson:"lease_owner,omitempty"`
	LeaseExpiresAt *time.Time         `bson:"lease_expires_at,omitempty"`
	LastError      string             `bson:"last_error,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (m mongoMessage) message() Message {
	return Message{
		ID:        m.MessageID,
		Key:       m.Key,
		Payload:   []byte(m.Payload),
		Status:    m.Status,
		Attempts:  m.Attempts,
		LastError: m.LastError,
		CreatedAt: m.CreatedAt,
	}
}

// ConnectMongo connects to uri and verifies the connection with a ping
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// NewMongoQueue creates the queue on db and ensures its indexes exist
func NewMongoQueue(ctx context.Context, db *mongo.Database) (*MongoQueue, error) {
	q := &MongoQueue{coll: db.Collection(mongoCollection), now: time.Now}

	_, err := q.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "available_at", Value: 1}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return q, nil
}

func (q *MongoQueue) Publish(ctx context.Context, key string, payload []byte) (Message, error) {
	now := q.now().UTC()
	doc := mongoMessage{
		MessageID:   uuid.New().String(),
		Key:         key,
		Payload:     string(payload),
		Status:      StatusPending,
		AvailableAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := q.coll.InsertOne(ctx, doc); err != nil {
		return Message{}, fmt.Errorf("failed to publish message: %w", err)
	}
	return doc.message(), nil
}

// Claim leases due messages one at a time with an atomic find-and-modify
func (q *MongoQueue) Claim(ctx context.Context, consumer string, limit int, lease time.Duration) ([]Message, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, fmt.Errorf("consumer is required")
	}
	if limit <= 0 || lease <= 0 {
		return nil, fmt.Errorf("limit and lease must be greater than zero")
	}

	now := q.now().UTC()
	leaseExpiresAt := now.Add(lease)
	filter := bson.M{
		"status":       StatusPending,
		"available_at": bson.M{"$lte": now},
		"$or": bson.A{
			bson.M{"lease_expires_at": nil},
			bson.M{"lease_expires_at": bson.M{"$lte": now}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"lease_owner":      consumer,
			"lease_expires_at": leaseExpiresAt,
			"updated_at":       now,
		},
		"$inc": bson.M{"attempts": 1},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetReturnDocument(options.After)

	var claimed []Message
	for len(claimed) < limit {
		var doc mongoMessage
		err := q.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return claimed, fmt.Errorf("failed to claim message: %w", err)
		}
		claimed = append(claimed, doc.message())
	}
	return claimed, nil
}

func (q *MongoQueue) Ack(ctx context.Context, id string) error {
	return q.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"status": StatusDelivered, "updated_at": q.now().UTC()},
		"$unset": bson.M{"lease_owner": "", "lease_expires_at": ""},
	})
}

func (q *MongoQueue) Retry(ctx context.Context, id, cause string, at time.Time) error {
	return q.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"available_at": at.UTC(), "last_error": cause, "updated_at": q.now().UTC()},
		"$unset": bson.M{"lease_owner": "", "lease_expires_at": ""},
	})
}

func (q *MongoQueue) DeadLetter(ctx context.Context, id, cause string) error {
	return q.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"status": StatusDead, "last_error": cause, "updated_at": q.now().UTC()},
		"$unset": bson.M{"lease_owner": "", "lease_expires_at": ""},
	})
}

func (q *MongoQueue) ListDead(ctx context.Context, limit int) ([]Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	cursor, err := q.coll.Find(ctx, bson.M{"status": StatusDead}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoMessage
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode dead messages: %w", err)
	}
	messages := make([]Message, 0, len(docs))
	for _, d := range docs {
		messages = append(messages, d.message())
	}
	return messages, nil
}

func (q *MongoQueue) Requeue(ctx context.Context, id string) (int64, error) {
	now := q.now().UTC()
	filter := bson.M{"status": StatusDead}
	if id != "" {
		filter["message_id"] = id
	}
	result, err := q.coll.UpdateMany(ctx, filter, bson.M{
		"$set":   bson.M{"status": StatusPending, "attempts": 0, "available_at": now, "updated_at": now},
		"$unset": bson.M{"last_error": "", "lease_owner": "", "lease_expires_at": ""},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to requeue messages: %w", err)
	}
	return result.ModifiedCount, nil
}

func (q *MongoQueue) updateOne(ctx context.Context, id string, update bson.M) error {
	result, err := q.coll.UpdateOne(ctx, bson.M{"message_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update message %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}
