package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wordle/internal/database"
	"wordle/internal/models"
)

// ErrVersionConflict is returned when a game changed between read and write
var ErrVersionConflict = errors.New("game was modified concurrently")

// GameRepository handles database operations for games and attempts
type GameRepository struct {
	db  *database.DB
	now func() time.Time
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{db: db, now: time.Now}
}

// SweepResult counts games removed by a retention pass
type SweepResult struct {
	Finished  int64
	Abandoned int64
}

// CreateGame inserts a new in-progress game
func (r *GameRepository) CreateGame(ctx context.Context, secretWord string, ownerID *int64) (*models.Game, error) {
	now := r.now().UTC()
	query := `
		INSERT INTO games (secret_word, owner_id, current_try, status, version, created_at, updated_at)
		VALUES (?, ?, 0, ?, 0, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, secretWord, nullableID(ownerID), models.GameInProgress, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return &models.Game{
		ID:         id,
		SecretWord: secretWord,
		OwnerID:    ownerID,
		Attempts:   []models.Attempt{},
		Status:     models.GameInProgress,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// GetGame retrieves a game with its attempts, or nil when it does not exist
func (r *GameRepository) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	query := `
		SELECT id, secret_word, owner_id, current_try, status, version, created_at, updated_at
		FROM games
		WHERE id = ?
	`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	attempts, err := r.getAttempts(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	game.Attempts = attempts
	return game, nil
}

// ListGamesByOwner returns the owner's most recently updated games
func (r *GameRepository) ListGamesByOwner(ctx context.Context, ownerID int64, limit int) ([]*models.Game, error) {
	query := `
		SELECT id, secret_word, owner_id, current_try, status, version, created_at, updated_at
		FROM games
		WHERE owner_id = ?
		ORDER BY updated_at DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	var games []*models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, game := range games {
		attempts, err := r.getAttempts(ctx, r.db, game.ID)
		if err != nil {
			return nil, err
		}
		game.Attempts = attempts
	}
	return games, nil
}

// SaveGuess records attempt and the game's new state in one transaction.
// The write only succeeds if the stored version still equals game.Version;
// otherwise ErrVersionConflict is returned and nothing is committed.
// On success game.Version and game.UpdatedAt are advanced.
func (r *GameRepository) SaveGuess(ctx context.Context, game *models.Game, attempt *models.Attempt) error {
	now := r.now().UTC()

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE games
			SET current_try = ?, status = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?
		`, game.CurrentTry, game.Status, now, game.ID, game.Version)
		if err != nil {
			return fmt.Errorf("failed to update game: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update: %w", err)
		}
		if affected == 0 {
			return ErrVersionConflict
		}

		id, err := tx.ExecReturningID(ctx, `
			INSERT INTO attempts (game_id, try_number, guess, letter_statuses, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, game.ID, attempt.TryNumber, attempt.Guess, encodeStatuses(attempt.Statuses), now)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("failed to insert attempt: %w", err)
		}
		attempt.ID = id
		return nil
	})
	if err != nil {
		return err
	}

	attempt.GameID = game.ID
	attempt.CreatedAt = now
	game.Version++
	game.UpdatedAt = now
	return nil
}

// DeleteExpiredGames removes finished games last updated before finishedBefore
// and in-progress games last updated before abandonedBefore, with their attempts.
func (r *GameRepository) DeleteExpiredGames(ctx context.Context, finishedBefore, abandonedBefore time.Time) (SweepResult, error) {
	var res SweepResult

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		res.Finished, err = deleteGames(ctx, tx, "status <> ?", models.GameInProgress, finishedBefore.UTC())
		if err != nil {
			return fmt.Errorf("failed to delete finished games: %w", err)
		}
		res.Abandoned, err = deleteGames(ctx, tx, "status = ?", models.GameInProgress, abandonedBefore.UTC())
		if err != nil {
			return fmt.Errorf("failed to delete abandoned games: %w", err)
		}
		return nil
	})
	return res, err
}

func deleteGames(ctx context.Context, tx *database.Tx, statusClause string, status models.GameStatus, before time.Time) (int64, error) {
	where := statusClause + " AND updated_at < ?"

	// Attempts are removed explicitly; not every deployment enforces cascades.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM attempts WHERE game_id IN (SELECT id FROM games WHERE "+where+")",
		status, before); err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM games WHERE "+where, status, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *GameRepository) getAttempts(ctx context.Context, q database.DBTX, gameID int64) ([]models.Attempt, error) {
	query := `
		SELECT id, game_id, try_number, guess, letter_statuses, created_at
		FROM attempts
		WHERE game_id = ?
		ORDER BY try_number
	`
	rows, err := q.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.Attempt{}
	for rows.Next() {
		var a models.Attempt
		var statuses string
		if err := rows.Scan(&a.ID, &a.GameID, &a.TryNumber, &a.Guess, &statuses, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Statuses = decodeStatuses(statuses)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*models.Game, error) {
	game := &models.Game{}
	var owner sql.NullInt64
	var status string
	err := row.Scan(
		&game.ID,
		&game.SecretWord,
		&owner,
		&game.CurrentTry,
		&status,
		&game.Version,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if owner.Valid {
		id := owner.Int64
		game.OwnerID = &id
	}
	game.Status = models.GameStatus(status)
	return game, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func encodeStatuses(statuses []models.LetterStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func decodeStatuses(encoded string) []models.LetterStatus {
	if encoded == "" {
		return []models.LetterStatus{}
	}
	parts := strings.Split(encoded, ",")
	statuses := make([]models.LetterStatus, len(parts))
	for i, p := range parts {
		statuses[i] = models.LetterStatus(p)
	}
	return statuses
}
