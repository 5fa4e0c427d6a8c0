// Package identity carries the caller verified at the gateway through
// downstream services.
package identity

import (
	"context"
	"net/http"
)

// Identity is a caller verified at the gateway
type Identity struct {
	UserID   int64
	Username string
}

// Trusted transport fields set by the gateway
const (
	HeaderUserID    = "X-User-Id"
	HeaderUsername  = "X-Username"
	HeaderTimestamp = "X-Identity-Timestamp"
	HeaderSignature = "X-Identity-Signature"
)

var trustedHeaders = []string{HeaderUserID, HeaderUsername, HeaderTimestamp, HeaderSignature}

// Strip removes every trusted field from h
func Strip(h http.Header) {
	for _, name := range trustedHeaders {
		h.Del(name)
	}
}

type identityContextKey struct{}

// WithIdentity stores id in ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext returns the identity in ctx. ok is false for anonymous requests.
func FromContext(ctx context.Context) (id Identity, ok bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok = ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// Optional returns a pointer to the identity in ctx, or nil when anonymous
func Optional(ctx context.Context) *Identity {
	id, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return &id
}
