package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/milan604/fluenthttp/pkg/apperr"
	"github.com/milan604/fluenthttp/pkg/convert"
	fhttp "github.com/milan604/fluenthttp/pkg/http"
)

const defaultTokenTTL = time.Hour

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	ExpiresAt   string `json:"expires_at"`
	Scope       string `json:"scope"`
}

// expiry prefers expires_at, then expires_in, then the JWT exp claim.
func (t tokenResponse) expiry(now time.Time) time.Time {
	if t.ExpiresAt != "" {
		if parsed, err := time.Parse(time.RFC3339, t.ExpiresAt); err == nil {
			return parsed
		}
	}
	if t.ExpiresIn > 0 {
		return now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return expiryOr(t.AccessToken, now, defaultTokenTTL)
}

// tokenRequest prepares a request to a token endpoint. It bypasses the
// interceptors so a token interceptor on the same client cannot recurse.
func tokenRequest(c *fhttp.Client, url string) *fhttp.Request {
	return c.Post(url).
		SetAvoidRequestInterceptor(true).
		SetAvoidResponseInterceptor(true).
		SetResponseThread(fhttp.ThreadBackground)
}

func fetchTokenResponse(ctx context.Context, r *fhttp.Request) (string, time.Time, error) {
	resp, err := fhttp.Fetch[tokenResponse](ctx, r, convert.JSON[tokenResponse]{})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to fetch token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", time.Time{}, apperr.New(apperr.ErrorCodeDecode).WithMessage("empty access token in response")
	}
	return resp.AccessToken, resp.expiry(time.Now()), nil
}

// OAuth2ClientCredentialsProvider implements TokenProvider for the OAuth2
// client credentials flow, posting a form-encoded grant.
type OAuth2ClientCredentialsProvider struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	Client       *fhttp.Client
}

// NewOAuth2ClientCredentialsProvider creates a provider that calls tokenURL
// through c.
func NewOAuth2ClientCredentialsProvider(c *fhttp.Client, tokenURL, clientID, clientSecret, scope string) *OAuth2ClientCredentialsProvider {
	return &OAuth2ClientCredentialsProvider{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scope:        scope,
		Client:       c,
	}
}

// FetchToken retrieves a token using OAuth2 client credentials flow.
func (p *OAuth2ClientCredentialsProvider) FetchToken(ctx context.Context) (string, time.Time, error) {
	form := map[string]any{
		"grant_type":    "client_credentials",
		"client_id":     p.ClientID,
		"client_secret": p.ClientSecret,
	}
	if p.Scope != "" {
		form["scope"] = p.Scope
	}
	r := tokenRequest(p.Client, p.TokenURL).
		SetEncoding(fhttp.EncodingForm).
		AddParams(form)
	return fetchTokenResponse(ctx, r)
}

// ServiceTokenProvider fetches tokens from a JSON service-token API, posting
// the service ID and API key.
type ServiceTokenProvider struct {
	TokenURL  string
	ServiceID string
	APIKey    string
	Scope     string
	Audience  []string
	Client    *fhttp.Client
}

// FetchToken posts the service credentials as JSON.
func (p *ServiceTokenProvider) FetchToken(ctx context.Context) (string, time.Time, error) {
	if p.ServiceID == "" || p.APIKey == "" {
		return "", time.Time{}, apperr.New(apperr.ErrorCodeInvalidConfig).WithMessage("service ID and API key are required")
	}
	r := tokenRequest(p.Client, p.TokenURL).
		SetEncoding(fhttp.EncodingJSON).
		AddParams(map[string]any{
			"service_id": p.ServiceID,
			"api_key":    p.APIKey,
			"scope":      p.Scope,
			"audience":   p.Audience,
		})
	return fetchTokenResponse(ctx, r)
}

// StaticTokenProvider provides a fixed token. A JWT expires at its exp claim,
// anything else never does.
type StaticTokenProvider struct {
	Token string
}

// NewStaticTokenProvider creates a new static token provider.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{Token: token}
}

// FetchToken returns the static token.
func (p *StaticTokenProvider) FetchToken(ctx context.Context) (string, time.Time, error) {
	return p.Token, expiryOr(p.Token, time.Now(), 24*365*time.Hour), nil
}

// TokenProviderFunc adapts a function to TokenProvider.
type TokenProviderFunc func(ctx context.Context) (token string, expiresAt time.Time, err error)

// FetchToken calls f.
func (f TokenProviderFunc) FetchToken(ctx context.Context) (string, time.Time, error) {
	if f == nil {
		return "", time.Time{}, fmt.Errorf("fetch function is nil")
	}
	return f(ctx)
}

var (
	_ TokenProvider = (*OAuth2ClientCredentialsProvider)(nil)
	_ TokenProvider = (*ServiceTokenProvider)(nil)
	_ TokenProvider = (*StaticTokenProvider)(nil)
	_ TokenProvider = TokenProviderFunc(nil)
)
