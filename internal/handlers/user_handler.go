package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"wordle/internal/identity"
	"wordle/internal/service"
)

// UserHandler serves accounts, profiles and the leaderboard
type UserHandler struct {
	auth                 *service.AuthService
	stats                *service.StatsService
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewUserHandler creates a new user handler. oauthProviders may be nil.
func NewUserHandler(auth *service.AuthService, stats *service.StatsService, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *UserHandler {
	return &UserHandler{
		auth:                 auth,
		stats:                stats,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

// Register adds the user routes to mux
func (h *UserHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.RegisterUser)
	mux.HandleFunc("POST /api/auth/authenticate", h.Authenticate)
	mux.HandleFunc("GET /api/auth/{provider}/start", h.StartOAuth)
	mux.HandleFunc("GET /api/auth/{provider}/callback", h.OAuthCallback)

	mux.HandleFunc("GET /api/users/profile", RequireIdentity(h.Profile))
	mux.HandleFunc("GET /api/users/me/rank", RequireIdentity(h.MyRank))
	mux.HandleFunc("GET /api/users/top", h.Top)
	mux.HandleFunc("GET /api/users/{username}/rank", h.Rank)

	mux.HandleFunc("GET /internal/users/{id}", h.Lookup)
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type authenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterUser creates an account and returns its token
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, _, err := h.auth.Register(r.Context(), service.RegisterRequest{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		respondWithServiceError(w, "Error registering user", err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenView{Token: token})
}

// Authenticate exchanges credentials for a token
func (h *UserHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, _, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, "Error authenticating user", err)
		return
	}
	writeJSON(w, http.StatusOK, TokenView{Token: token})
}

// Profile returns the caller's account and rank
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.stats.Profile(r.Context(), identity.Optional(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Error loading profile", err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileView{
		ID:        profile.User.ID,
		Username:  profile.User.Username,
		FirstName: profile.User.FirstName,
		LastName:  profile.User.LastName,
		Wins:      profile.User.Wins,
		Losses:    profile.User.Losses,
		Rank:      profile.Rank,
	})
}

// MyRank returns the caller's rank
func (h *UserHandler) MyRank(w http.ResponseWriter, r *http.Request) {
	profile, err := h.stats.Profile(r.Context(), identity.Optional(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Error loading rank", err)
		return
	}
	writeJSON(w, http.StatusOK, RankView{Rank: profile.Rank})
}

// Rank returns the rank of a named user
func (h *UserHandler) Rank(w http.ResponseWriter, r *http.Request) {
	rank, err := h.stats.RankOf(r.Context(), strings.TrimSpace(r.PathValue("username")))
	if err != nil {
		respondWithServiceError(w, "Error loading rank", err)
		return
	}
	writeJSON(w, http.StatusOK, RankView{Rank: rank})
}

// Top returns the leaderboard as an ordered username to wins object
func (h *UserHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer", "", nil)
			return
		}
		limit = n
	}

	board, err := h.stats.TopN(r.Context(), limit)
	if err != nil {
		respondWithServiceError(w, "Error loading leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// Lookup resolves a user by ID for other services
func (h *UserHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID", "", nil)
		return
	}

	user, err := h.stats.Lookup(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, "Error looking up user", err)
		return
	}
	writeJSON(w, http.StatusOK, UserRefView{ID: user.ID, Username: user.Username})
}
