package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"wordle/internal/identity"
	"wordle/internal/models"
	"wordle/internal/repository"
)

// StatsService applies game outcomes and answers leaderboard queries
type StatsService struct {
	users           *repository.UserRepository
	leaderboardSize int
}

func NewStatsService(users *repository.UserRepository, leaderboardSize int) *StatsService {
	if leaderboardSize <= 0 {
		leaderboardSize = 20
	}
	return &StatsService{users: users, leaderboardSize: leaderboardSize}
}

// Profile is a user together with their current rank
type Profile struct {
	User *models.User
	Rank int64
}

// HandleOutcome applies one outcome event at most once per key.
// Events without a user or for unknown users are dropped; only
// infrastructure errors are returned so the transport can retry.
func (s *StatsService) HandleOutcome(ctx context.Context, key string, event models.OutcomeEvent) error {
	if event.UserID == nil {
		log.Printf("Dropping outcome %s: no user id", key)
		return nil
	}

	applied, err := s.users.ApplyOutcome(ctx, key, *event.UserID, event.Result)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("Dropping outcome %s: user %d not found", key, *event.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply outcome %s: %w", key, err)
	}
	if !applied {
		log.Printf("Skipping duplicate outcome %s for user %d", key, *event.UserID)
		return nil
	}
	log.Printf("Applied %s to user %d (%s)", event.Result, *event.UserID, key)
	return nil
}

// TopN returns the n best players. n is clamped to the configured leaderboard size.
func (s *StatsService) TopN(ctx context.Context, n int) (models.Leaderboard, error) {
	if n <= 0 || n > s.leaderboardSize {
		n = s.leaderboardSize
	}
	return s.users.TopByWins(ctx, n)
}

// RankOf returns 1 + the number of users with strictly more wins
func (s *StatsService) RankOf(ctx context.Context, username string) (int64, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	return s.rank(ctx, user)
}

// Profile returns the caller's account and rank
func (s *StatsService) Profile(ctx context.Context, caller *identity.Identity) (*Profile, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.Lookup(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	rank, err := s.rank(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Rank: rank}, nil
}

// Lookup returns a user by ID
func (s *StatsService) Lookup(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *StatsService) rank(ctx context.Context, user *models.User) (int64, error) {
	ahead, err := s.users.CountUsersWithMoreWins(ctx, user.Wins)
	if err != nil {
		return 0, err
	}
	return ahead + 1, nil
}
