package handlers

import "wordle/internal/models"

// AttemptView is one row of the board
type AttemptView struct {
	Guess          string                `json:"guess"`
	LetterStatuses []models.LetterStatus `json:"letterStatuses"`
}

// GameView is the public representation of a game. Word is only set once the game is finished.
type GameView struct {
	ID         int64             `json:"id"`
	Word       *string           `json:"word"`
	Attempts   []AttemptView     `json:"attempts"`
	CurrentTry int               `json:"currentTry"`
	GameStatus models.GameStatus `json:"gameStatus"`
}

// GuessRequest is the body of a guess submission.
// Clients may send the word as either guess or guessText.
type GuessRequest struct {
	GameID    int64  `json:"gameId"`
	Guess     string `json:"guess"`
	GuessText string `json:"guessText,omitempty"`
}

func (r GuessRequest) word() string {
	if r.Guess == "" {
		return r.GuessText
	}
	return r.Guess
}

// GuessView is the response to an accepted guess
type GuessView struct {
	GameID         int64                 `json:"gameId"`
	Guess          string                `json:"guess"`
	LetterStatuses []models.LetterStatus `json:"letterStatuses"`
	GameStatus     models.GameStatus     `json:"gameStatus"`
	CurrentTry     int                   `json:"currentTry"`
	Word           string                `json:"word,omitempty"`
}

// TokenView carries an access token
type TokenView struct {
	Token string `json:"token"`
}

// RankView carries a leaderboard rank
type RankView struct {
	Rank int64 `json:"rank"`
}

// ProfileView is the signed-in user's account summary
type ProfileView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
	Rank      int64  `json:"rank"`
}

// UserRefView is returned by the internal user lookup
type UserRefView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func newGameView(game *models.Game) GameView {
	view := GameView{
		ID:         game.ID,
		Attempts:   make([]AttemptView, 0, len(game.Attempts)),
		CurrentTry: game.CurrentTry,
		GameStatus: game.Status,
	}
	if game.Status.IsFinished() {
		word := game.SecretWord
		view.Word = &word
	}
	for _, a := range game.Attempts {
		view.Attempts = append(view.Attempts, AttemptView{Guess: a.Guess, LetterStatuses: a.Statuses})
	}
	return view
}

func newGuessView(game *models.Game, attempt models.Attempt) GuessView {
	view := GuessView{
		GameID:         game.ID,
		Guess:          attempt.Guess,
		LetterStatuses: attempt.Statuses,
		GameStatus:     game.Status,
		CurrentTry:     game.CurrentTry,
	}
	if game.Status.IsFinished() {
		view.Word = game.SecretWord
	}
	return view
}
