package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"

	"wordle/internal/config"
	"wordle/internal/database"
	"wordle/internal/events"
	"wordle/internal/handlers"
	"wordle/internal/identity"
	"wordle/internal/repository"
	"wordle/internal/security"
	"wordle/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireSecrets(true, true); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.UserDB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Printf("Database connection established (type: %s)", cfg.UserDB.Type)

	if err := db.RunMigrations(ctx, database.SchemaUser); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	queue, closeQueue, err := events.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open outcome queue: %v", err)
	}
	defer closeQueue()

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
		emailService = nil
	}

	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, security.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL), emailService)
	defer authService.Wait()
	statsService := service.NewStatsService(userRepo, cfg.LeaderboardSize)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			AuthParams:  map[string]string{"prompt": "select_account"},
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	mux := http.NewServeMux()
	handlers.NewUserHandler(authService, statsService, oauthProviders, cfg.OAuthRedirectBaseURL).Register(mux)

	middleware := handlers.NewMiddleware(identity.NewSigner(cfg.IdentitySecret, cfg.IdentityMaxSkew))
	server := handlers.NewServer(cfg.UserPort, handlers.Logging(middleware.Identity(mux)))

	consumer := events.NewConsumer(queue, events.OutcomeHandler(statsService.HandleOutcome), events.ConsumerConfig{
		Consumer:     cfg.EventsConsumer,
		PollInterval: cfg.EventsPollInterval,
		LeaseTTL:     cfg.EventsLeaseTTL,
		MaxAttempts:  cfg.EventsMaxAttempts,
		RetryBackoff: cfg.EventsRetryBackoff,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(ctx)
	})
	g.Go(func() error {
		return handlers.Serve(ctx, "User service", server)
	})

	if err := g.Wait(); err != nil {
		log.Printf("User service failed: %v", err)
	}
	log.Println("User service stopped")
}
