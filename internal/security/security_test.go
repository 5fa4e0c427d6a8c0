package security

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	password := "testPassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == password {
		t.Fatalf("HashPassword() returned %q", hash)
	}

	// Salted: the same password produces different hashes
	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == hash2 {
		t.Error("HashPassword() should produce different hashes due to salt")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "mySecurePassword"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"correct password", password, hash, true},
		{"incorrect password", "wrongPassword", hash, false},
		{"empty password", "", hash, false},
		{"no hash on account", password, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenManager(t *testing.T) {
	now := time.Now()
	m := NewTokenManager("secret", time.Hour)
	m.now = func() time.Time { return now }

	token, err := m.Issue(12, "alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != 12 || claims.Subject != "alice" {
		t.Errorf("Parse() = %+v", claims)
	}

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", time.Hour)
		later.now = func() time.Time { return now.Add(2 * time.Hour) }
		if _, err := later.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", time.Hour)
		if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
		}
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"valid", "Bearer abc.def", "abc.def", nil},
		{"lower case scheme", "bearer abc", "abc", nil},
		{"missing", "", "", ErrMissingToken},
		{"wrong scheme", "Basic abc", "", ErrInvalidToken},
		{"no token", "Bearer ", "", ErrInvalidToken},
		{"no separator", "Bearer", "", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if !errors.Is(err, tt.wantErr) || got != tt.want {
				t.Errorf("BearerToken(%q) = %q, %v, want %q, %v", tt.header, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Error("bucket should refill after the window")
	}

	now = now.Add(5 * time.Minute)
	rl.cleanup()
	if len(rl.visitors) != 0 {
		t.Errorf("cleanup left %d visitors", len(rl.visitors))
	}
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.5"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		proxies    TrustedProxies
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"direct peer", nil, "203.0.113.7:5555", "", "", "203.0.113.7"},
		{"untrusted peer ignores forwarded", nil, "203.0.113.7:5555", "10.0.0.9", "", "203.0.113.7"},
		{"untrusted peer ignores real ip", trusted, "203.0.113.7:5555", "", "198.51.100.1", "203.0.113.7"},
		{"trusted peer uses forwarded", trusted, "10.0.0.1:5555", "203.0.113.9", "", "203.0.113.9"},
		{"rightmost untrusted hop wins", trusted, "10.0.0.1:5555", "1.2.3.4, 203.0.113.9, 10.0.0.2", "", "203.0.113.9"},
		{"trusted peer uses real ip", trusted, "192.168.1.5:80", "", "198.51.100.1", "198.51.100.1"},
		{"all hops trusted", trusted, "10.0.0.1:5555", "10.0.0.3", "", "10.0.0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := tt.proxies.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "", "::1"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies() error = %v", err)
	}
	if len(proxies) != 2 {
		t.Errorf("len = %d, want 2", len(proxies))
	}
	if _, err := ParseTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Error("ParseTrustedProxies() accepted an invalid entry")
	}
}

func TestNewState(t *testing.T) {
	a, b := NewState(), NewState()
	if a == b || !strings.Contains(a, "-") {
		t.Errorf("NewState() = %q, %q", a, b)
	}
}
