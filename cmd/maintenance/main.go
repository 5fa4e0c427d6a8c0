package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"wordle/internal/config"
	"wordle/internal/database"
	"wordle/internal/events"
	"wordle/internal/repository"
	"wordle/internal/service"
	"wordle/internal/wordle"
)

func main() {
	// Define subcommands
	sweepCmd := flag.NewFlagSet("sweep", flag.ExitOnError)
	requeueCmd := flag.NewFlagSet("requeue", flag.ExitOnError)
	deadCmd := flag.NewFlagSet("dead", flag.ExitOnError)

	// Sweep flags
	completedTTL := sweepCmd.Duration("completed-ttl", 0, "Age after which finished games are deleted (default: COMPLETED_GAME_TTL)")
	abandonedTTL := sweepCmd.Duration("abandoned-ttl", 0, "Idle time after which in-progress games are deleted (default: ABANDONED_GAME_TTL)")

	// Requeue flags
	requeueID := requeueCmd.String("id", "", "Message ID to requeue (default: every dead message)")

	// Dead flags
	deadLimit := deadCmd.Int("limit", 50, "Maximum number of messages to list")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "sweep":
		sweepCmd.Parse(os.Args[2:])
		if *completedTTL == 0 {
			*completedTTL = cfg.CompletedGameTTL
		}
		if *abandonedTTL == 0 {
			*abandonedTTL = cfg.AbandonedGameTTL
		}
		handleSweep(ctx, cfg, *completedTTL, *abandonedTTL)

	case "requeue":
		requeueCmd.Parse(os.Args[2:])
		handleRequeue(ctx, cfg, *requeueID)

	case "dead":
		deadCmd.Parse(os.Args[2:])
		handleDead(ctx, cfg, *deadLimit)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleSweep(ctx context.Context, cfg *config.Config, completedTTL, abandonedTTL time.Duration) {
	db, err := database.Open(cfg.GameDB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, database.SchemaGame); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	dict, err := wordle.Load(cfg.WordsPath)
	if err != nil {
		log.Fatalf("Failed to load dictionary: %v", err)
	}

	games := service.NewGameService(repository.NewGameRepository(db), dict, nil, nil)
	res, err := games.Sweep(ctx, completedTTL, abandonedTTL)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	fmt.Printf("Deleted %d finished and %d abandoned games\n", res.Finished, res.Abandoned)
}

func handleRequeue(ctx context.Context, cfg *config.Config, id string) {
	queue, closeQueue, err := events.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open outcome queue: %v", err)
	}
	defer closeQueue()

	n, err := queue.Requeue(ctx, id)
	if err != nil {
		log.Fatalf("Requeue failed: %v", err)
	}
	if id != "" && n == 0 {
		fmt.Printf("No dead message with ID %s\n", id)
		return
	}
	fmt.Printf("Requeued %d message(s)\n", n)
}

func handleDead(ctx context.Context, cfg *config.Config, limit int) {
	queue, closeQueue, err := events.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open outcome queue: %v", err)
	}
	defer closeQueue()

	messages, err := queue.ListDead(ctx, limit)
	if err != nil {
		log.Fatalf("Listing dead messages failed: %v", err)
	}
	if len(messages) == 0 {
		fmt.Println("No dead messages")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKEY\tATTEMPTS\tCREATED\tLAST ERROR")
	for _, msg := range messages {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", msg.ID, msg.Key, msg.Attempts, msg.CreatedAt.Format(time.RFC3339), msg.LastError)
	}
	w.Flush()
}

func printUsage() {
	fmt.Println("Wordle maintenance tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  maintenance sweep [-completed-ttl 168h] [-abandoned-ttl 60m]")
	fmt.Println("  maintenance dead [-limit 50]")
	fmt.Println("  maintenance requeue [-id MESSAGE_ID]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  sweep     Delete expired finished and abandoned games once")
	fmt.Println("  dead      List dead-lettered outcome events")
	fmt.Println("  requeue   Move dead-lettered outcome events back to pending")
}
