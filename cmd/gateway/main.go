package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"wordle/internal/config"
	"wordle/internal/gateway"
	"wordle/internal/handlers"
	"wordle/internal/identity"
	"wordle/internal/security"
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

	proxies, err := security.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 10 auth requests per minute per client address
	limiter := security.NewRateLimiter(10, time.Minute)

	gw, err := gateway.New(
		gateway.Config{
			GameServiceURL: cfg.GameServiceURL,
			UserServiceURL: cfg.UserServiceURL,
			TrustedProxies: proxies,
		},
		security.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		identity.NewSigner(cfg.IdentitySecret, cfg.IdentityMaxSkew),
		limiter,
	)
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}
	log.Printf("Routing games to %s and users to %s", cfg.GameServiceURL, cfg.UserServiceURL)

	server := handlers.NewServer(cfg.GatewayPort, handlers.Logging(gw))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(ctx, 5*time.Minute)
		return nil
	})
	g.Go(func() error {
		return handlers.Serve(ctx, "Gateway", server)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Gateway failed: %v", err)
	}
	log.Println("Gateway stopped")
}
