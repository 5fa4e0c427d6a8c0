package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"wordle/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	writeJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps a domain error to its HTTP status.
// Unclassified errors are logged and reported as a generic 500.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var domainErr *service.Error
	if !errors.As(err, &domainErr) {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", logMsg, err)
		return
	}
	respondWithError(w, statusFor(err, domainErr.Kind), domainErr.Message, "", nil)
}

func statusFor(err error, kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindState, service.KindConflict:
		return http.StatusConflict
	case service.KindAccess:
		if errors.Is(err, service.ErrUnauthenticated) || errors.Is(err, service.ErrInvalidCredentials) {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

const maxBodyBytes = 1 << 16

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return false
	}
	return true
}
