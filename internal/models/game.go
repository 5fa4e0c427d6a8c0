package models

import "time"

// GameStatus is the lifecycle state of a game
type GameStatus string

const (
	GameInProgress GameStatus = "IN_PROGRESS"
	GameWon        GameStatus = "WON"
	GameLost       GameStatus = "LOST"
)

// IsFinished reports whether the status is terminal
func (s GameStatus) IsFinished() bool {
	return s == GameWon || s == GameLost
}

// LetterStatus is the verdict for one position of a guess
type LetterStatus string

const (
	LetterCorrect   LetterStatus = "CORRECT"
	LetterMisplaced LetterStatus = "MISPLACED"
	LetterIncorrect LetterStatus = "INCORRECT"
)

// Game represents a single word-guessing session.
// OwnerID is nil for anonymous games.
type Game struct {
	ID         int64
	SecretWord string
	OwnerID    *int64
	Attempts   []Attempt
	CurrentTry int
	Status     GameStatus
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsOwned reports whether the game belongs to a user
func (g *Game) IsOwned() bool {
	return g.OwnerID != nil
}

// LastAttempt returns the most recent attempt, or nil before the first guess
func (g *Game) LastAttempt() *Attempt {
	if len(g.Attempts) == 0 {
		return nil
	}
	return &g.Attempts[len(g.Attempts)-1]
}

// Attempt is one accepted guess and its evaluation
type Attempt struct {
	ID        int64
	GameID    int64
	TryNumber int
	Guess     string
	Statuses  []LetterStatus
	CreatedAt time.Time
}
