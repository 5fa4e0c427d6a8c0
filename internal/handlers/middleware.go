package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"wordle/internal/identity"
)

// RequestIDHeader carries a per-request correlation id across services
const RequestIDHeader = "X-Request-Id"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	signer *identity.Signer
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(signer *identity.Signer) *Middleware {
	return &Middleware{signer: signer}
}

// Identity verifies the signed identity fields set by the gateway and stores
// the caller in the request context. Requests without the fields are anonymous.
func (m *Middleware) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok, err := m.signer.Extract(r.Header)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid identity", "Rejected identity headers", err)
			return
		}
		if ok {
			r = r.WithContext(identity.WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentity rejects anonymous callers with 401
func RequireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity.FromContext(r.Context()); !ok {
			respondWithError(w, http.StatusUnauthorized, "Authentication required", "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(RequestIDHeader, requestID)
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s [%s]", r.Method, r.URL.Path, rec.status, time.Since(start), requestID)
	})
}
