package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	ErrInvalidIdentity = errors.New("invalid identity fields")
	ErrStaleIdentity   = errors.New("identity fields expired")
)

// Signer signs and verifies the trusted identity fields with HMAC-SHA256.
// The gateway and downstream services share the secret; nothing else is stored.
type Signer struct {
	secret  []byte
	maxSkew time.Duration
	now     func() time.Time
}

// NewSigner creates a signer. Signatures older or newer than maxSkew are rejected.
func NewSigner(secret string, maxSkew time.Duration) *Signer {
	return &Signer{secret: []byte(secret), maxSkew: maxSkew, now: time.Now}
}

// Sign returns the hex signature of id at ts
func (s *Signer) Sign(id Identity, ts int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d|%s|%d", id.UserID, id.Username, ts)
	return hex.EncodeToString(mac.Sum(nil))
}

// Forward replaces the trusted fields in h with signed fields for id
func (s *Signer) Forward(h http.Header, id Identity) {
	Strip(h)
	ts := s.now().Unix()
	h.Set(HeaderUserID, strconv.FormatInt(id.UserID, 10))
	h.Set(HeaderUsername, id.Username)
	h.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	h.Set(HeaderSignature, s.Sign(id, ts))
}

// Extract verifies the trusted fields in h.
// It returns ok=false with a nil error when no field is present (anonymous).
// Any present field that fails verification is an error.
func (s *Signer) Extract(h http.Header) (id Identity, ok bool, err error) {
	present := false
	for _, name := range trustedHeaders {
		if h.Get(name) != "" {
			present = true
			break
		}
	}
	if !present {
		return Identity{}, false, nil
	}

	userID, err := strconv.ParseInt(h.Get(HeaderUserID), 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, false, fmt.Errorf("%w: user id", ErrInvalidIdentity)
	}
	ts, err := strconv.ParseInt(h.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return Identity{}, false, fmt.Errorf("%w: timestamp", ErrInvalidIdentity)
	}
	id = Identity{UserID: userID, Username: h.Get(HeaderUsername)}
	if id.Username == "" {
		return Identity{}, false, fmt.Errorf("%w: username", ErrInvalidIdentity)
	}

	expected := s.Sign(id, ts)
	if !hmac.Equal([]byte(expected), []byte(h.Get(HeaderSignature))) {
		return Identity{}, false, fmt.Errorf("%w: signature", ErrInvalidIdentity)
	}

	skew := s.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if s.maxSkew > 0 && skew > s.maxSkew {
		return Identity{}, false, ErrStaleIdentity
	}
	return id, true, nil
}
