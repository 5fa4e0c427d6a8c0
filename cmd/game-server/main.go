package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"wordle/internal/client"
	"wordle/internal/config"
	"wordle/internal/database"
	"wordle/internal/events"
	"wordle/internal/handlers"
	"wordle/internal/identity"
	"wordle/internal/repository"
	"wordle/internal/service"
	"wordle/internal/wordle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireSecrets(false, true); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.GameDB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Printf("Database connection established (type: %s)", cfg.GameDB.Type)

	if err := db.RunMigrations(ctx, database.SchemaGame); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	dict, err := wordle.Load(cfg.WordsPath)
	if err != nil {
		log.Fatalf("Failed to load dictionary: %v", err)
	}
	log.Printf("Dictionary loaded with %d words", dict.Len())

	queue, closeQueue, err := events.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open outcome queue: %v", err)
	}
	defer closeQueue()

	publisher := events.NewAsyncPublisher(events.NewQueuePublisher(queue), cfg.EventsPublishTimeout)
	defer publisher.Wait()

	games := service.NewGameService(
		repository.NewGameRepository(db),
		dict,
		publisher,
		client.NewUserDirectory(cfg.UserServiceURL),
	)

	mux := http.NewServeMux()
	handlers.NewGameHandler(games).Register(mux)

	middleware := handlers.NewMiddleware(identity.NewSigner(cfg.IdentitySecret, cfg.IdentityMaxSkew))
	server := handlers.NewServer(cfg.GamePort, handlers.Logging(middleware.Identity(mux)))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return games.RunSweeper(ctx, cfg.SweepInterval, cfg.CompletedGameTTL, cfg.AbandonedGameTTL)
	})
	g.Go(func() error {
		return handlers.Serve(ctx, "Game service", server)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Game service failed: %v", err)
	}
	log.Println("Game service stopped")
}
