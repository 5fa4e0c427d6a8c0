package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wordle/internal/events"
	"wordle/internal/identity"
	"wordle/internal/models"
	"wordle/internal/repository"
	"wordle/internal/wordle"
)

// UserDirectory confirms that a user exists in the user service
type UserDirectory interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
}

// GameService owns the game lifecycle
type GameService struct {
	games     *repository.GameRepository
	dict      *wordle.Dictionary
	publisher events.Publisher
	users     UserDirectory
	pick      func() string
	now       func() time.Time
}

// NewGameService creates a game service. users may be nil to skip owner checks on create.
func NewGameService(games *repository.GameRepository, dict *wordle.Dictionary, publisher events.Publisher, users UserDirectory) *GameService {
	return &GameService{
		games:     games,
		dict:      dict,
		publisher: publisher,
		users:     users,
		pick:      dict.Random,
		now:       time.Now,
	}
}

// GuessResult is the outcome of one accepted guess
type GuessResult struct {
	Game    *models.Game
	Attempt models.Attempt
}

// Create starts a game with a random secret, owned by caller when present
func (s *GameService) Create(ctx context.Context, caller *identity.Identity) (*models.Game, error) {
	var ownerID *int64
	if caller != nil {
		if s.users != nil {
			exists, err := s.users.UserExists(ctx, caller.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to verify user: %w", err)
			}
			if !exists {
				return nil, ErrUserNotFound
			}
		}
		id := caller.UserID
		ownerID = &id
	}

	game, err := s.games.CreateGame(ctx, s.pick(), ownerID)
	if err != nil {
		return nil, err
	}
	log.Printf("Game %d created (owned=%t)", game.ID, game.IsOwned())
	return game, nil
}

// Get returns a game the caller may access
func (s *GameService) Get(ctx context.Context, gameID int64, caller *identity.Identity) (*models.Game, error) {
	game, err := s.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := CheckAccess(game, caller); err != nil {
		return nil, err
	}
	return game, nil
}

// ListMine returns the caller's most recent games
func (s *GameService) ListMine(ctx context.Context, caller *identity.Identity, limit int) ([]*models.Game, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.games.ListGamesByOwner(ctx, caller.UserID, limit)
}

// Guess evaluates guess against the game's secret and records it.
// Checks run in order: ownership, game state, length, dictionary.
func (s *GameService) Guess(ctx context.Context, gameID int64, guess string, caller *identity.Identity) (*GuessResult, error) {
	game, err := s.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := CheckAccess(game, caller); err != nil {
		return nil, err
	}
	if game.Status.IsFinished() {
		return nil, ErrGameAlreadyFinished
	}

	guess = wordle.Canonicalize(guess)
	if wordle.Length(guess) != wordle.WordLength {
		return nil, ErrInvalidGuessLength
	}
	if !s.dict.Contains(guess) {
		return nil, ErrUnknownWord
	}

	game.CurrentTry++
	attempt := models.Attempt{
		TryNumber: game.CurrentTry,
		Guess:     guess,
		Statuses:  wordle.Evaluate(game.SecretWord, guess),
	}
	switch {
	case guess == game.SecretWord:
		game.Status = models.GameWon
	case game.CurrentTry >= wordle.MaxTries:
		game.Status = models.GameLost
	}

	if err := s.games.SaveGuess(ctx, game, &attempt); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrConcurrentGuess
		}
		return nil, err
	}
	game.Attempts = append(game.Attempts, attempt)

	if game.Status.IsFinished() {
		log.Printf("Game %d finished: %s after %d tries", game.ID, game.Status, game.CurrentTry)
		s.emitOutcome(ctx, game)
	}
	return &GuessResult{Game: game, Attempt: attempt}, nil
}

// emitOutcome notifies the stats pipeline. The guess is already committed,
// so failures are logged and swallowed.
func (s *GameService) emitOutcome(ctx context.Context, game *models.Game) {
	if !game.IsOwned() || s.publisher == nil {
		return
	}
	result, ok := models.OutcomeFor(game.Status)
	if !ok {
		return
	}
	ownerID := *game.OwnerID
	event := models.OutcomeEvent{UserID: &ownerID, Result: result}
	if err := s.publisher.PublishOutcome(ctx, events.OutcomeKey(game.ID, game.CreatedAt), event); err != nil {
		log.Printf("Failed to publish outcome for game %d: %v", game.ID, err)
	}
}

func (s *GameService) load(ctx context.Context, gameID int64) (*models.Game, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// Sweep deletes finished games older than completedTTL and in-progress games
// idle longer than abandonedTTL
func (s *GameService) Sweep(ctx context.Context, completedTTL, abandonedTTL time.Duration) (repository.SweepResult, error) {
	now := s.now()
	res, err := s.games.DeleteExpiredGames(ctx, now.Add(-completedTTL), now.Add(-abandonedTTL))
	if err != nil {
		return res, fmt.Errorf("retention sweep failed: %w", err)
	}
	if res.Finished > 0 || res.Abandoned > 0 {
		log.Printf("Retention sweep removed %d finished and %d abandoned games", res.Finished, res.Abandoned)
	}
	return res, nil
}

// RunSweeper sweeps every interval until ctx is cancelled
func (s *GameService) RunSweeper(ctx context.Context, interval, completedTTL, abandonedTTL time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx, completedTTL, abandonedTTL); err != nil && ctx.Err() == nil {
				log.Printf("%v", err)
			}
		}
	}
}
