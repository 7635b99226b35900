// Package auth manages the upstream bearer token and the OTP login exchange
// that refreshes it.
package auth

import (
	"sync"

	"darshan-notifier/pkg/booking"
)

// Resolver holds the single active bearer token and resolves which token a
// request should use. Precedence is fixed: explicit per-request value, then
// the cookie value the client sent, then the token stored by a successful
// OTP login, then the configured fallback. An empty result is an error, not
// an empty header silently sent upstream.
type Resolver struct {
	mu       sync.RWMutex
	stored   string // set by OTP validation; not proactively expired
	fallback string // from configuration
}

// NewResolver creates a resolver with the configured fallback token.
func NewResolver(fallback string) *Resolver {
	return &Resolver{fallback: fallback}
}

// Store records a token obtained from a successful OTP login.
func (r *Resolver) Store(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = token
}

// Resolve picks the active token for one request.
func (r *Resolver) Resolve(explicit, cookie string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if cookie != "" {
		return cookie, nil
	}

	r.mu.RLock()
	stored := r.stored
	r.mu.RUnlock()
	if stored != "" {
		return stored, nil
	}

	if r.fallback != "" {
		return r.fallback, nil
	}
	return "", booking.NewUnauthorized("no auth token available")
}
