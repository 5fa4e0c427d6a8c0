package models

import (
	"errors"
	"fmt"
)

// OutcomeResult is the terminal result carried by an outcome event
type OutcomeResult string

const (
	ResultWin  OutcomeResult = "WIN"
	ResultLose OutcomeResult = "LOSE"
)

// OutcomeEvent notifies the statistics store that an owned game finished.
// UserID is a pointer so a null userId on the wire survives decoding.
type OutcomeEvent struct {
	UserID *int64        `json:"userId"`
	Result OutcomeResult `json:"result"`
}

var ErrInvalidOutcome = errors.New("invalid outcome result")

// Validate checks the result value. A nil UserID is valid on the wire and is
// handled by the consumer.
func (e OutcomeEvent) Validate() error {
	switch e.Result {
	case ResultWin, ResultLose:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, e.Result)
	}
}

// OutcomeFor maps a terminal game status to its event result
func OutcomeFor(status GameStatus) (OutcomeResult, bool) {
	switch status {
	case GameWon:
		return ResultWin, true
	case GameLost:
		return ResultLose, true
	default:
		return "", false
	}
}
