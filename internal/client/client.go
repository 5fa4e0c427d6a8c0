package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wordle/internal/models"
)

// Attempt is one guessed row of a game.
type Attempt struct {
	Guess          string                `json:"guess"`
	LetterStatuses []models.LetterStatus `json:"letterStatuses"`
}

// Game is a game as returned by the API. Word is nil until the game is finished.
type Game struct {
	ID         int64             `json:"id"`
	Word       *string           `json:"word"`
	Attempts   []Attempt         `json:"attempts"`
	CurrentTry int               `json:"currentTry"`
	GameStatus models.GameStatus `json:"gameStatus"`
}

// GuessResult is the response to an accepted guess.
type GuessResult struct {
	GameID         int64                 `json:"gameId"`
	Guess          string                `json:"guess"`
	LetterStatuses []models.LetterStatus `json:"letterStatuses"`
	GameStatus     models.GameStatus     `json:"gameStatus"`
	CurrentTry     int                   `json:"currentTry"`
	Word           string                `json:"word,omitempty"`
}

// Profile is the signed-in user's account summary.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Wins      int    `json:"wins"`
	Losses    int    `json:"losses"`
	Rank      int64  `json:"rank"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type rankResponse struct {
	Rank int64 `json:"rank"`
}

// Client is the Wordle API client. It talks to the gateway.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken replaces the bearer token used for later requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	return c.token
}

// Register creates an account, stores its token on the client and returns it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var resp tokenResponse
	if err := c.post(ctx, "/api/auth/register", req, &resp); err != nil {
		return "", fmt.Errorf("client.Register: %w", err)
	}
	c.token = resp.Token
	return resp.Token, nil
}

// Authenticate signs in, stores the token on the client and returns it.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var resp tokenResponse
	if err := c.post(ctx, "/api/auth/authenticate", body, &resp); err != nil {
		return "", fmt.Errorf("client.Authenticate: %w", err)
	}
	c.token = resp.Token
	return resp.Token, nil
}

// CreateGame starts a new game, owned by the signed-in user if any.
func (c *Client) CreateGame(ctx context.Context) (*Game, error) {
	var game Game
	if err := c.post(ctx, "/api/games/create", nil, &game); err != nil {
		return nil, fmt.Errorf("client.CreateGame: %w", err)
	}
	return &game, nil
}

// GetGame fetches a game by ID.
func (c *Client) GetGame(ctx context.Context, id int64) (*Game, error) {
	var game Game
	if err := c.get(ctx, "/api/games/"+strconv.FormatInt(id, 10), &game); err != nil {
		return nil, fmt.Errorf("client.GetGame: %w", err)
	}
	return &game, nil
}

// Guess submits a guess for a game.
func (c *Client) Guess(ctx context.Context, gameID int64, guess string) (*GuessResult, error) {
	body := map[string]any{"gameId": gameID, "guess": guess}
	var res GuessResult
	if err := c.post(ctx, "/api/games/guess", body, &res); err != nil {
		return nil, fmt.Errorf("client.Guess: %w", err)
	}
	return &res, nil
}

// MyGames lists the signed-in user's recent games.
func (c *Client) MyGames(ctx context.Context, limit int) ([]Game, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var games []Game
	if err := c.get(ctx, "/api/games/mine?"+params.Encode(), &games); err != nil {
		return nil, fmt.Errorf("client.MyGames: %w", err)
	}
	return games, nil
}

// Profile returns the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/api/users/profile", &p); err != nil {
		return nil, fmt.Errorf("client.Profile: %w", err)
	}
	return &p, nil
}

// MyRank returns the signed-in user's rank.
func (c *Client) MyRank(ctx context.Context) (int64, error) {
	var resp rankResponse
	if err := c.get(ctx, "/api/users/me/rank", &resp); err != nil {
		return 0, fmt.Errorf("client.MyRank: %w", err)
	}
	return resp.Rank, nil
}

// Rank returns the rank of a named user.
func (c *Client) Rank(ctx context.Context, username string) (int64, error) {
	var resp rankResponse
	if err := c.get(ctx, "/api/users/"+url.PathEscape(username)+"/rank", &resp); err != nil {
		return 0, fmt.Errorf("client.Rank: %w", err)
	}
	return resp.Rank, nil
}

// Top returns the leaderboard, highest wins first. limit <= 0 uses the server default.
func (c *Client) Top(ctx context.Context, limit int) (models.Leaderboard, error) {
	path := "/api/users/top"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var board models.Leaderboard
	if err := c.get(ctx, path, &board); err != nil {
		return nil, fmt.Errorf("client.Top: %w", err)
	}
	return board, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	return doJSON(ctx, c.httpClient, method, c.baseURL+path, body, out, func(h http.Header) {
		if c.token != "" {
			h.Set("Authorization", "Bearer "+c.token)
		}
	})
}

func doJSON(ctx context.Context, httpClient *http.Client, method, target string, body any, out any, decorate func(http.Header)) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if decorate != nil {
		decorate(req.Header)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
