package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DatabaseConfig selects a database driver and its location.
// Type is one of sqlite, postgres or mysql. Path is used by sqlite, URL by the others.
// MySQL URLs need parseTime=true.
type DatabaseConfig struct {
	Type string `env:"TYPE" envDefault:"sqlite"`
	Path string `env:"PATH"`
	URL  string `env:"URL"`
}

// Config holds application configuration for every binary.
type Config struct {
	GatewayPort string `env:"GATEWAY_PORT" envDefault:"8080"`
	GamePort    string `env:"GAME_PORT" envDefault:"8081"`
	UserPort    string `env:"USER_PORT" envDefault:"8082"`

	GameServiceURL string `env:"GAME_SERVICE_URL" envDefault:"http://localhost:8081"`
	UserServiceURL string `env:"USER_SERVICE_URL" envDefault:"http://localhost:8082"`

	// Comma-separated CIDRs or addresses of proxies in front of the gateway
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	GameDB   DatabaseConfig `envPrefix:"GAME_DB_"`
	UserDB   DatabaseConfig `envPrefix:"USER_DB_"`
	EventsDB DatabaseConfig `envPrefix:"EVENTS_DB_"`

	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	IdentitySecret  string        `env:"IDENTITY_SECRET"`
	IdentityMaxSkew time.Duration `env:"IDENTITY_MAX_SKEW" envDefault:"2m"`

	WordsPath string `env:"WORDS_PATH"`

	EventsTransport      string        `env:"EVENTS_TRANSPORT" envDefault:"sql"`
	EventsMongoURI       string        `env:"EVENTS_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	EventsMongoDatabase  string        `env:"EVENTS_MONGO_DB" envDefault:"wordle"`
	EventsConsumer       string        `env:"EVENTS_CONSUMER" envDefault:"user-service"`
	EventsPollInterval   time.Duration `env:"EVENTS_POLL_INTERVAL" envDefault:"1s"`
	EventsLeaseTTL       time.Duration `env:"EVENTS_LEASE_TTL" envDefault:"30s"`
	EventsMaxAttempts    int           `env:"EVENTS_MAX_ATTEMPTS" envDefault:"5"`
	EventsRetryBackoff   time.Duration `env:"EVENTS_RETRY_BACKOFF" envDefault:"2s"`
	EventsPublishTimeout time.Duration `env:"EVENTS_PUBLISH_TIMEOUT" envDefault:"5s"`

	CompletedGameTTL time.Duration `env:"COMPLETED_GAME_TTL" envDefault:"168h"`
	AbandonedGameTTL time.Duration `env:"ABANDONED_GAME_TTL" envDefault:"60m"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`

	LeaderboardSize int `env:"LEADERBOARD_SIZE" envDefault:"20"`

	// Email (Amazon SES). Leave SESFromEmail empty to disable.
	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME" envDefault:"Wordle"`
	AppBaseURL   string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	EmailDebug   bool   `env:"EMAIL_DEBUG"`

	// OAuth
	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`
	OAuthRedirectBaseURL string `env:"OAUTH_REDIRECT_BASE_URL"`
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.GameDB.Path == "" {
		cfg.GameDB.Path = "./game.db"
	}
	if cfg.UserDB.Path == "" {
		cfg.UserDB.Path = "./user.db"
	}
	if cfg.EventsDB.Path == "" {
		cfg.EventsDB.Path = "./events.db"
	}
	return cfg, nil
}

// RequireSecrets reports an error when a key needed by the identity boundary is missing.
func (c *Config) RequireSecrets(jwt, identity bool) error {
	if jwt && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if identity && c.IdentitySecret == "" {
		return errors.New("IDENTITY_SECRET is required")
	}
	return nil
}
