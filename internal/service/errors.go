package service

import (
	"errors"

	"wordle/internal/validation"
)

// Kind classifies a domain error for the transport layer
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindState
	KindAccess
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindAccess:
		return "access"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a domain error with a user-facing message
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidGuessLength  = &Error{Kind: KindValidation, Message: "guess must be exactly 5 letters"}
	ErrUnknownWord         = &Error{Kind: KindValidation, Message: "not in word list"}
	ErrGameAlreadyFinished = &Error{Kind: KindState, Message: "game is already finished"}
	ErrConcurrentGuess     = &Error{Kind: KindState, Message: "another guess was accepted first, reload the game"}
	ErrAccessDenied        = &Error{Kind: KindAccess, Message: "access denied"}
	ErrUnauthenticated     = &Error{Kind: KindAccess, Message: "authentication required"}
	ErrInvalidCredentials  = &Error{Kind: KindAccess, Message: "invalid username or password"}
	ErrGameNotFound        = &Error{Kind: KindNotFound, Message: "game not found"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrUsernameTaken       = &Error{Kind: KindConflict, Message: "username already taken"}
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func invalid(err error) error {
	var ve validation.ValidationError
	if errors.As(err, &ve) {
		return &Error{Kind: KindValidation, Message: ve.Error()}
	}
	return &Error{Kind: KindValidation, Message: err.Error()}
}
