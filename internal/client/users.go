package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// UserDirectory asks the user service whether an account exists. The game
// service uses it to confirm the owner of a new game.
type UserDirectory struct {
	baseURL    string
	httpClient *http.Client
}

// NewUserDirectory creates a directory client for the user service at baseURL.
func NewUserDirectory(baseURL string) *UserDirectory {
	return &UserDirectory{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// UserExists reports whether userID is a registered user.
func (d *UserDirectory) UserExists(ctx context.Context, userID int64) (bool, error) {
	target := d.baseURL + "/internal/users/" + strconv.FormatInt(userID, 10)
	err := doJSON(ctx, d.httpClient, http.MethodGet, target, nil, nil, nil)
	if IsStatus(err, http.StatusNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("client.UserExists: %w", err)
	}
	return true, nil
}
