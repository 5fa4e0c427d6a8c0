package events

import (
	"context"
	"fmt"
	"log"

	"wordle/internal/config"
	"wordle/internal/database"
)

// Open connects the outcome queue selected by cfg.EventsTransport and returns
// it with a function that releases its connection.
func Open(ctx context.Context, cfg *config.Config) (Queue, func(), error) {
	switch cfg.EventsTransport {
	case "mongo", "mongodb":
		client, err := ConnectMongo(ctx, cfg.EventsMongoURI)
		if err != nil {
			return nil, nil, err
		}
		queue, err := NewMongoQueue(ctx, client.Database(cfg.EventsMongoDatabase))
		if err != nil {
			client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Printf("Outcome events on MongoDB database %s", cfg.EventsMongoDatabase)
		return queue, func() { client.Disconnect(context.Background()) }, nil

	case "sql", "":
		db, err := database.Open(cfg.EventsDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open events database: %w", err)
		}
		if err := db.RunMigrations(ctx, database.SchemaEvents); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate events database: %w", err)
		}
		log.Printf("Outcome events on %s database", db.Dialect.DriverName())
		return NewSQLQueue(db), func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported events transport: %s", cfg.EventsTransport)
	}
}
