package service

import (
	"wordle/internal/identity"
	"wordle/internal/models"
)

// CheckAccess enforces game ownership. An owned game is reachable only by its
// owner; an anonymous game only by callers with no identity at all.
func CheckAccess(game *models.Game, caller *identity.Identity) error {
	if game.OwnerID == nil {
		if caller == nil {
			return nil
		}
		return ErrAccessDenied
	}
	if caller != nil && caller.UserID == *game.OwnerID {
		return nil
	}
	return ErrAccessDenied
}
