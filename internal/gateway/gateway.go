package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"wordle/internal/identity"
	"wordle/internal/security"
)

// Gateway is the public entry point. It verifies bearer tokens, replaces any
// inbound identity fields with signed ones and proxies to the backing services.
type Gateway struct {
	tokens  *security.TokenManager
	signer  *identity.Signer
	limiter *security.RateLimiter
	proxies security.TrustedProxies
	games   *httputil.ReverseProxy
	users   *httputil.ReverseProxy
}

// Config names the backing services and the proxies allowed to report a
// client address in X-Forwarded-For or X-Real-IP.
type Config struct {
	GameServiceURL string
	UserServiceURL string
	TrustedProxies security.TrustedProxies
}

// New creates a gateway. limiter may be nil to disable rate limiting on /api/auth/.
func New(cfg Config, tokens *security.TokenManager, signer *identity.Signer, limiter *security.RateLimiter) (*Gateway, error) {
	games, err := newProxy("game", cfg.GameServiceURL)
	if err != nil {
		return nil, err
	}
	users, err := newProxy("user", cfg.UserServiceURL)
	if err != nil {
		return nil, err
	}
	return &Gateway{tokens: tokens, signer: signer, limiter: limiter, proxies: cfg.TrustedProxies, games: games, users: users}, nil
}

func newProxy(name, rawURL string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid %s service URL %q", name, rawURL)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("Proxy to %s service failed for %s %s: %v", name, r.Method, r.URL.Path, err)
			writeError(w, http.StatusBadGateway, name+" service unavailable")
		},
	}
	return proxy, nil
}

func (g *Gateway) route(path string) *httputil.ReverseProxy {
	switch {
	case path == "/api/games" || strings.HasPrefix(path, "/api/games/"):
		return g.games
	case strings.HasPrefix(path, "/api/auth/"), path == "/api/users" || strings.HasPrefix(path, "/api/users/"):
		return g.users
	default:
		return nil
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	proxy := g.route(r.URL.Path)
	if proxy == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if g.limiter != nil && strings.HasPrefix(r.URL.Path, "/api/auth/") && !g.limiter.Allow(g.proxies.ClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
		return
	}

	outbound := r.Clone(r.Context())
	identity.Strip(outbound.Header)

	id, ok, err := g.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	if ok {
		g.signer.Forward(outbound.Header, id)
	}
	outbound.Header.Del("Authorization")

	proxy.ServeHTTP(w, outbound)
}

// authenticate verifies the bearer token. A request without an Authorization
// header is anonymous.
func (g *Gateway) authenticate(r *http.Request) (identity.Identity, bool, error) {
	token, err := security.BearerToken(r.Header.Get("Authorization"))
	if errors.Is(err, security.ErrMissingToken) {
		return identity.Identity{}, false, nil
	}
	if err != nil {
		return identity.Identity{}, false, err
	}

	claims, err := g.tokens.Parse(token)
	if err != nil {
		return identity.Identity{}, false, err
	}
	return identity.Identity{UserID: claims.UserID, Username: claims.Subject}, true, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
