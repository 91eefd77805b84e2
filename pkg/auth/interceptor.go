package auth

import (
	"context"
	"net/http"
	"slices"
	"sync"

	fhttp "github.com/milan604/fluenthttp/pkg/http"
	"github.com/milan604/fluenthttp/pkg/logger"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "

	// maxInjected bounds how many past bearer values are recognised as ours.
	maxInjected = 16
)

// TokenInterceptor adds a bearer token to requests that carry no
// Authorization header and retries once with a fresh token on 401.
//
// Install it as both the request and the response interceptor of a Config.
// A request is intercepted at most once, so the retry of a request that was
// taken over before sending is handled inside the request stage.
//
// A header the interceptor set itself is replaced when a reset request is
// sent again. Any other Authorization header is left to the caller.
type TokenInterceptor struct {
	cache *TokenCache
	log   logger.LogManager

	mu       sync.Mutex
	injected []string
}

// NewTokenInterceptor creates an interceptor backed by cache.
func NewTokenInterceptor(cache *TokenCache, log logger.LogManager) *TokenInterceptor {
	if log == nil {
		log = logger.NewNop()
	}
	return &TokenInterceptor{cache: cache, log: log}
}

// Install registers t on cfg for both stages.
func (t *TokenInterceptor) Install(cfg *fhttp.Config) {
	cfg.SetRequestInterceptor(t)
	cfg.SetResponseInterceptor(t)
}

func (t *TokenInterceptor) ShouldInterceptRequest(r *fhttp.Request) bool {
	for k, v := range r.Headers() {
		if http.CanonicalHeaderKey(k) == headerAuthorization {
			return t.wasInjected(v)
		}
	}
	return true
}

// authorize sets the bearer header on r and remembers it as ours.
func (t *TokenInterceptor) authorize(r *fhttp.Request, token string) *fhttp.Request {
	value := bearerPrefix + token
	t.mu.Lock()
	if !slices.Contains(t.injected, value) {
		t.injected = append(t.injected, value)
		if len(t.injected) > maxInjected {
			t.injected = slices.Delete(t.injected, 0, len(t.injected)-maxInjected)
		}
	}
	t.mu.Unlock()
	return r.RemoveHeader(headerAuthorization).AddHeader(headerAuthorization, value)
}

func (t *TokenInterceptor) wasInjected(value string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Contains(t.injected, value)
}

func (t *TokenInterceptor) InterceptRequest(ctx context.Context, r *fhttp.Request, done fhttp.Completion) {
	go func() {
		token, err := t.cache.GetToken(ctx)
		if err != nil {
			t.log.ErrorFCtx(ctx, "fetching token for %s: %v", r.URL(), err)
			done(nil, nil, err)
			return
		}
		t.authorize(r, token).Resend(ctx, func(body []byte, reply *fhttp.Reply, err error) {
			if reply == nil || reply.StatusCode != http.StatusUnauthorized {
				done(body, reply, err)
				return
			}
			t.retry(ctx, r, done)
		})
	}()
}

func (t *TokenInterceptor) ShouldInterceptResponse(reply *fhttp.Reply) bool {
	return reply.StatusCode == http.StatusUnauthorized
}

func (t *TokenInterceptor) InterceptResponse(ctx context.Context, r *fhttp.Request, done fhttp.Completion) {
	go t.retry(ctx, r, done)
}

// retry drops the rejected token, fetches another and resends r once. The
// interception guard is already spent, so the resend reaches the caller.
func (t *TokenInterceptor) retry(ctx context.Context, r *fhttp.Request, done fhttp.Completion) {
	t.log.WarnFCtx(ctx, "%s %s was unauthorized, refreshing token", r.Method(), r.URL())
	t.cache.Invalidate(ctx)
	token, err := t.cache.GetToken(ctx)
	if err != nil {
		t.log.ErrorFCtx(ctx, "refreshing token for %s: %v", r.URL(), err)
		done(nil, nil, err)
		return
	}
	t.authorize(r, token).Resend(ctx, done)
}

var (
	_ fhttp.RequestInterceptor  = (*TokenInterceptor)(nil)
	_ fhttp.ResponseInterceptor = (*TokenInterceptor)(nil)
)
