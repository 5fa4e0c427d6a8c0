package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wordle/internal/database"
	"wordle/internal/models"
)

var (
	// ErrDuplicate is returned when a unique column already holds the value
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned when a row required by a write does not exist
	ErrNotFound = errors.New("record not found")
)

// UserRepository handles database operations for users and their statistics
type UserRepository struct {
	db  *database.DB
	now func() time.Time
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

const userColumns = `id, username, COALESCE(password_hash, ''), first_name, last_name, COALESCE(email, ''),
	email_verified, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), role, wins, losses, created_at, updated_at`

// CreateUser inserts a new user with zero wins and losses
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	now := r.now().UTC()
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (username, password_hash, first_name, last_name, email, email_verified, oauth_provider, oauth_subject, role, wins, losses, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		user.Username,
		nullString(user.PasswordHash),
		user.FirstName,
		user.LastName,
		nullString(user.Email),
		user.EmailVerified && user.Email != "",
		nullString(user.OAuthProvider),
		nullString(user.OAuthSubject),
		user.Role,
		now, now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created := *user
	created.ID = id
	created.EmailVerified = user.EmailVerified && user.Email != ""
	created.Wins = 0
	created.Losses = 0
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// GetUserByUsername retrieves a user by username, or nil when absent
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, "username = ?", username)
}

// GetUserByID retrieves a user by ID, or nil when absent
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

// GetUserByOAuth retrieves the user linked to a provider subject, or nil when absent
func (r *UserRepository) GetUserByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	return r.getUser(ctx, "oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

// GetVerifiedUserByEmail retrieves the oldest user whose e-mail address has
// been verified, or nil when absent. Unverified addresses are never matched.
func (r *UserRepository) GetVerifiedUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "email = ? AND email_verified = ? ORDER BY id LIMIT 1", email, true)
}

func (r *UserRepository) getUser(ctx context.Context, where string, args ...any) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.EmailVerified,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.Role,
		&user.Wins,
		&user.Losses,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UsernameExists reports whether username is taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// LinkOAuth attaches a provider subject to an existing user
func (r *UserRepository) LinkOAuth(ctx context.Context, userID int64, provider, subject string) error {
	query := `
		UPDATE users
		SET oauth_provider = ?, oauth_subject = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, provider, subject, r.now().UTC(), userID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to link oauth account: %w", err)
	}
	return nil
}

// TopByWins returns up to limit users ordered by wins, highest first.
// Ties are broken by user ID so the order is stable.
func (r *UserRepository) TopByWins(ctx context.Context, limit int) (models.Leaderboard, error) {
	query := `
		SELECT username, wins
		FROM users
		ORDER BY wins DESC, id ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	board := models.Leaderboard{}
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.Username, &entry.Wins); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		board = append(board, entry)
	}
	return board, rows.Err()
}

// CountUsersWithMoreWins counts users with strictly more than wins
func (r *UserRepository) CountUsersWithMoreWins(ctx context.Context, wins int) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE wins > ?", wins).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// ApplyOutcome increments the user's wins or losses once per eventKey.
// It returns applied=false when eventKey was already processed, and
// ErrNotFound when the user does not exist; neither case changes any row.
func (r *UserRepository) ApplyOutcome(ctx context.Context, eventKey string, userID int64, result models.OutcomeResult) (applied bool, err error) {
	var column string
	switch result {
	case models.ResultWin:
		column = "wins"
	case models.ResultLose:
		column = "losses"
	default:
		return false, fmt.Errorf("%w: %q", models.ErrInvalidOutcome, result)
	}

	now := r.now().UTC()
	err = r.db.WithTx(ctx, func(tx *database.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		insert := tx.GetDialect().InsertIgnoreQuery("processed_events", "event_key", "user_id", "result", "processed_at")
		res, err := tx.ExecContext(ctx, insert, eventKey, userID, result, now)
		if err != nil {
			return fmt.Errorf("failed to record event: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check event record: %w", err)
		}
		if inserted == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE users SET "+column+" = "+column+" + 1, updated_at = ? WHERE id = ?",
			now, userID)
		if err != nil {
			return fmt.Errorf("failed to update stats: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
