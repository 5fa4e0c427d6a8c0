package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"wordle/internal/identity"
	"wordle/internal/security"
)

type seenRequest struct {
	Service       string
	Path          string
	UserID        string
	Username      string
	Authorization string
	Identity      *identity.Identity
}

type fixture struct {
	gateway *Gateway
	tokens  *security.TokenManager
	seen    chan seenRequest
}

func newFixture(t *testing.T, limiter *security.RateLimiter) *fixture {
	t.Helper()
	return newFixtureWithProxies(t, limiter, nil)
}

func newFixtureWithProxies(t *testing.T, limiter *security.RateLimiter, proxies security.TrustedProxies) *fixture {
	t.Helper()
	signer := identity.NewSigner("identity-secret", time.Minute)
	seen := make(chan seenRequest, 1)

	backend := func(name string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := seenRequest{
				Service:       name,
				Path:          r.URL.Path,
				UserID:        r.Header.Get(identity.HeaderUserID),
				Username:      r.Header.Get(identity.HeaderUsername),
				Authorization: r.Header.Get("Authorization"),
			}
			if id, ok, err := signer.Extract(r.Header); err == nil && ok {
				req.Identity = &id
			}
			seen <- req
			w.WriteHeader(http.StatusNoContent)
		}))
	}
	games := backend("game")
	users := backend("user")
	t.Cleanup(games.Close)
	t.Cleanup(users.Close)

	tokens := security.NewTokenManager("jwt-secret", time.Hour)
	cfg := Config{GameServiceURL: games.URL, UserServiceURL: users.URL, TrustedProxies: proxies}
	gw, err := New(cfg, tokens, signer, limiter)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{gateway: gw, tokens: tokens, seen: seen}
}

func (f *fixture) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	return f.doFrom("192.0.2.1:1234", method, path, headers)
}

func (f *fixture) doFrom(remoteAddr, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.gateway.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) received(t *testing.T) seenRequest {
	t.Helper()
	select {
	case req := <-f.seen:
		return req
	default:
		t.Fatal("request was not forwarded")
		return seenRequest{}
	}
}

func TestRouting(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		path        string
		wantService string
	}{
		{"/api/games/create", "game"},
		{"/api/games/12", "game"},
		{"/api/auth/register", "user"},
		{"/api/users/top", "user"},
		{"/api/users/alice/rank", "user"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path, nil)
			if rec.Code != http.StatusNoContent {
				t.Fatalf("status = %d", rec.Code)
			}
			got := f.received(t)
			if got.Service != tt.wantService || got.Path != tt.path {
				t.Errorf("forwarded to %s %s, want %s %s", got.Service, got.Path, tt.wantService, tt.path)
			}
		})
	}
}

func TestUnroutedPathsAreNotExposed(t *testing.T) {
	f := newFixture(t, nil)

	for _, path := range []string{"/internal/users/1", "/", "/api/gamesx", "/admin"} {
		rec := f.do(http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
	if len(f.seen) != 0 {
		t.Error("unrouted request reached a backend")
	}
}

func TestAnonymousRequestHasNoIdentity(t *testing.T) {
	f := newFixture(t, nil)

	f.do(http.MethodPost, "/api/games/create", map[string]string{
		identity.HeaderUserID:   "1",
		identity.HeaderUsername: "admin",
	})
	got := f.received(t)
	if got.UserID != "" || got.Username != "" || got.Identity != nil {
		t.Errorf("spoofed identity forwarded: %+v", got)
	}
}

func TestValidTokenForwardsSignedIdentity(t *testing.T) {
	f := newFixture(t, nil)
	token, _ := f.tokens.Issue(7, "alice")

	f.do(http.MethodPost, "/api/games/guess", map[string]string{
		"Authorization":         "Bearer " + token,
		identity.HeaderUserID:   "1",
		identity.HeaderUsername: "admin",
	})
	got := f.received(t)
	if got.Identity == nil || got.Identity.UserID != 7 || got.Identity.Username != "alice" {
		t.Errorf("forwarded identity = %+v", got.Identity)
	}
	if got.Authorization != "" {
		t.Error("Authorization header should not be forwarded")
	}
}

func TestInvalidTokenIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	expired := security.NewTokenManager("jwt-secret", -time.Minute)
	expiredToken, _ := expired.Issue(7, "alice")
	foreign, _ := security.NewTokenManager("other-secret", time.Hour).Issue(7, "alice")

	tests := []struct {
		name   string
		header string
	}{
		{"garbage", "Bearer not-a-jwt"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"expired", "Bearer " + expiredToken},
		{"wrong key", "Bearer " + foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/api/users/profile", map[string]string{"Authorization": tt.header})
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			var body map[string]string
			json.NewDecoder(rec.Body).Decode(&body)
			if body["error"] == "" {
				t.Error("expected JSON error body")
			}
			if len(f.seen) != 0 {
				<-f.seen
				t.Error("rejected request reached a backend")
			}
		})
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	f := newFixture(t, security.NewRateLimiter(2, time.Minute))
	headers := map[string]string{"X-Forwarded-For": "203.0.113.9"}

	for i := 0; i < 2; i++ {
		if rec := f.do(http.MethodPost, "/api/auth/authenticate", headers); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
		f.received(t)
	}
	if rec := f.do(http.MethodPost, "/api/auth/authenticate", headers); rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}

	// Game routes are not limited
	if rec := f.do(http.MethodGet, "/api/games/1", headers); rec.Code != http.StatusNoContent {
		t.Errorf("game route status = %d", rec.Code)
	}
	f.received(t)
}

func TestSpoofedForwardingHeadersShareOneBucket(t *testing.T) {
	f := newFixture(t, security.NewRateLimiter(2, time.Hour))

	allowed := 0
	for i := 0; i < 20; i++ {
		headers := map[string]string{
			"X-Forwarded-For": "10.0.0." + strconv.Itoa(i),
			"X-Real-IP":       "10.1.0." + strconv.Itoa(i),
		}
		if rec := f.doFrom("203.0.113.7:40000", http.MethodPost, "/api/auth/authenticate", headers); rec.Code == http.StatusNoContent {
			allowed++
			f.received(t)
		}
	}
	if allowed != 2 {
		t.Errorf("%d of 20 requests allowed, want 2", allowed)
	}
}

func TestTrustedProxyForwardsClientAddress(t *testing.T) {
	proxies, err := security.ParseTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}
	f := newFixtureWithProxies(t, security.NewRateLimiter(1, time.Hour), proxies)

	for _, client := range []string{"203.0.113.1", "203.0.113.2"} {
		headers := map[string]string{"X-Forwarded-For": client}
		if rec := f.doFrom("10.0.0.5:8000", http.MethodPost, "/api/auth/authenticate", headers); rec.Code != http.StatusNoContent {
			t.Fatalf("first request from %s status = %d", client, rec.Code)
		}
		f.received(t)
	}
	headers := map[string]string{"X-Forwarded-For": "203.0.113.1"}
	if rec := f.doFrom("10.0.0.5:8000", http.MethodPost, "/api/auth/authenticate", headers); rec.Code != http.StatusTooManyRequests {
		t.Errorf("repeat request status = %d, want 429", rec.Code)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	tokens := security.NewTokenManager("s", time.Hour)
	signer := identity.NewSigner("s", time.Minute)
	if _, err := New(Config{GameServiceURL: "not a url", UserServiceURL: "http://localhost:1"}, tokens, signer, nil); err == nil {
		t.Error("expected error for invalid game service URL")
	}
}
