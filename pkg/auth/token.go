package auth

import (
	"context"
	"sync"
	"time"

	"github.com/milan604/fluenthttp/pkg/logger"
)

// Token is an access token and the moment it stops being valid.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// validFor reports whether t is usable for at least buffer longer.
func (t Token) validFor(now time.Time, buffer time.Duration) bool {
	return t.Value != "" && now.Before(t.ExpiresAt.Add(-buffer))
}

// TokenProvider defines the interface for fetching access tokens.
type TokenProvider interface {
	// FetchToken retrieves a new token from the authentication service.
	// It should return the token string and its expiration time.
	// If the token doesn't have an explicit expiration, return a reasonable TTL.
	FetchToken(ctx context.Context) (token string, expiresAt time.Time, err error)
}

// TokenCache keeps the current token in memory, backed by a TokenStore so
// several processes can share one token.
type TokenCache struct {
	mu       sync.RWMutex
	token    Token
	provider TokenProvider
	store    TokenStore
	// refreshBuffer is the time before expiration to refresh the token
	refreshBuffer time.Duration
	now           func() time.Time
	log           logger.LogManager
}

// CacheOption configures a TokenCache.
type CacheOption func(*TokenCache)

// WithStore shares tokens through s.
func WithStore(s TokenStore) CacheOption {
	return func(tc *TokenCache) {
		if s != nil {
			tc.store = s
		}
	}
}

// WithCacheLogger reports shared store failures to l at warn level.
func WithCacheLogger(l logger.LogManager) CacheOption {
	return func(tc *TokenCache) {
		if l != nil {
			tc.log = l
		}
	}
}

// NewTokenCache creates a new token cache with the given provider.
func NewTokenCache(provider TokenProvider, refreshBuffer time.Duration, opts ...CacheOption) *TokenCache {
	if refreshBuffer <= 0 {
		refreshBuffer = 30 * time.Second
	}
	tc := &TokenCache{
		provider:      provider,
		store:         NewMemoryStore(),
		refreshBuffer: refreshBuffer,
		now:           time.Now,
		log:           logger.NewNop(),
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

// GetToken returns a token that is valid for longer than the refresh buffer,
// fetching a new one when needed. It is safe for concurrent use.
func (tc *TokenCache) GetToken(ctx context.Context) (string, error) {
	tc.mu.RLock()
	if tc.token.validFor(tc.now(), tc.refreshBuffer) {
		token := tc.token.Value
		tc.mu.RUnlock()
		return token, nil
	}
	tc.mu.RUnlock()

	return tc.refreshToken(ctx)
}

// refreshToken fetches a new token and updates the cache.
func (tc *TokenCache) refreshToken(ctx context.Context) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	// Another goroutine might have refreshed it
	now := tc.now()
	if tc.token.validFor(now, tc.refreshBuffer) {
		return tc.token.Value, nil
	}

	// or another process
	stored, ok, err := tc.store.Load(ctx)
	if err != nil {
		tc.log.WarnFCtx(ctx, "loading shared token: %v", err)
	} else if ok && stored.validFor(now, tc.refreshBuffer) {
		tc.token = stored
		return stored.Value, nil
	}

	value, expiresAt, err := tc.provider.FetchToken(ctx)
	if err != nil {
		return "", err
	}

	tc.token = Token{Value: value, ExpiresAt: expiresAt}
	// The token is still usable locally when the store is down.
	if err := tc.store.Save(ctx, tc.token); err != nil {
		tc.log.WarnFCtx(ctx, "saving shared token: %v", err)
	}
	return value, nil
}

// Invalidate clears the cached token, forcing a refresh on next GetToken call.
// The shared copy is removed only if it is the token that was rejected.
func (tc *TokenCache) Invalidate(ctx context.Context) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	rejected := tc.token.Value
	tc.token = Token{}
	stored, ok, err := tc.store.Load(ctx)
	if err != nil {
		tc.log.WarnFCtx(ctx, "loading shared token: %v", err)
		return
	}
	if ok && stored.Value == rejected {
		if err := tc.store.Clear(ctx); err != nil {
			tc.log.WarnFCtx(ctx, "clearing shared token: %v", err)
		}
	}
}

// IsValid checks if the current cached token is still valid.
func (tc *TokenCache) IsValid() bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.token.validFor(tc.now(), tc.refreshBuffer)
}
