package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// NonceHeader carries the per-request anti-replay token
const NonceHeader = "X-Request-Nonce"

var (
	ErrMissingNonce = errors.New("missing request nonce")
	ErrReusedNonce  = errors.New("request nonce was already used")
)

// NonceVerifier decides whether a request nonce is acceptable for a user
type NonceVerifier interface {
	VerifyNonce(ctx context.Context, userID, nonce string) error
}

// AcceptAllNonces only requires the nonce to be present
type AcceptAllNonces struct{}

// VerifyNonce implements NonceVerifier
func (AcceptAllNonces) VerifyNonce(ctx context.Context, userID, nonce string) error {
	if nonce == "" {
		return ErrMissingNonce
	}
	return nil
}

// ReplayGuard rejects a nonce seen for the same user within the window.
// It only covers one process; expired entries are swept at most once per
// window.
type ReplayGuard struct {
	mu        sync.Mutex
	window    time.Duration
	seen      map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewReplayGuard creates a ReplayGuard remembering nonces for window
func NewReplayGuard(window time.Duration) *ReplayGuard {
	return &ReplayGuard{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// VerifyNonce implements NonceVerifier
func (g *ReplayGuard) VerifyNonce(ctx context.Context, userID, nonce string) error {
	if nonce == "" {
		return ErrMissingNonce
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Sub(g.lastSweep) > g.window {
		for key, at := range g.seen {
			if now.Sub(at) > g.window {
				delete(g.seen, key)
			}
		}
		g.lastSweep = now
	}

	key := userID + "\x00" + nonce
	if at, ok := g.seen[key]; ok && now.Sub(at) <= g.window {
		return ErrReusedNonce
	}
	g.seen[key] = now
	return nil
}
