package handlers

import (
	"net/http"
	"strconv"

	"wordle/internal/identity"
	"wordle/internal/service"
)

// GameHandler serves the game API
type GameHandler struct {
	games *service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

// Register adds the game routes to mux
func (h *GameHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/games/create", h.Create)
	mux.HandleFunc("POST /api/games/guess", h.Guess)
	mux.HandleFunc("GET /api/games/mine", RequireIdentity(h.ListMine))
	mux.HandleFunc("GET /api/games/{id}", h.Get)
}

// Create starts a new game for the caller
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.Create(r.Context(), identity.Optional(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Error creating game", err)
		return
	}
	writeJSON(w, http.StatusCreated, newGameView(game))
}

// Get returns one game
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid game ID", "", nil)
		return
	}

	game, err := h.games.Get(r.Context(), gameID, identity.Optional(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Error loading game", err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(game))
}

// Guess submits one guess
func (h *GameHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var req GuessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.GameID <= 0 {
		respondWithError(w, http.StatusBadRequest, "gameId is required", "", nil)
		return
	}

	res, err := h.games.Guess(r.Context(), req.GameID, req.word(), identity.Optional(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Error processing guess", err)
		return
	}
	writeJSON(w, http.StatusOK, newGuessView(res.Game, res.Attempt))
}

// ListMine returns the caller's recent games
func (h *GameHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	games, err := h.games.ListMine(r.Context(), identity.Optional(r.Context()), limit)
	if err != nil {
		respondWithServiceError(w, "Error listing games", err)
		return
	}

	views := make([]GameView, 0, len(games))
	for _, g := range games {
		views = append(views, newGameView(g))
	}
	writeJSON(w, http.StatusOK, views)
}
