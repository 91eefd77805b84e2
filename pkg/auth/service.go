package auth

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/milan604/fluenthttp/pkg/config"
	fhttp "github.com/milan604/fluenthttp/pkg/http"
	"github.com/milan604/fluenthttp/pkg/logger"
	"github.com/milan604/fluenthttp/pkg/utils"
)

// ProviderFromConfig picks a TokenProvider from the auth section: a static
// token, service credentials, or OAuth2 client credentials, in that order.
// tokenClient is the client used to reach the token endpoint.
func ProviderFromConfig(cfg *config.Config, tokenClient *fhttp.Client) (TokenProvider, error) {
	if token := cfg.GetString(config.KeyAuthStaticToken); token != "" {
		return NewStaticTokenProvider(token), nil
	}
	if err := cfg.ValidateRequired(config.KeyAuthTokenURL); err != nil {
		return nil, fmt.Errorf("token provider configuration: %w", err)
	}
	if cfg.GetString(config.KeyAuthServiceID) != "" {
		if err := cfg.ValidateRequired(config.KeyAuthAPIKey); err != nil {
			return nil, fmt.Errorf("service token configuration: %w", err)
		}
		return &ServiceTokenProvider{
			TokenURL:  cfg.GetString(config.KeyAuthTokenURL),
			ServiceID: cfg.GetString(config.KeyAuthServiceID),
			APIKey:    cfg.GetString(config.KeyAuthAPIKey),
			Scope:     utils.Coalesce(cfg.GetString(config.KeyAuthScope), "service"),
			Audience:  utils.SplitAndTrim(cfg.GetString(config.KeyAuthAudience), ",", true),
			Client:    tokenClient,
		}, nil
	}
	if err := cfg.ValidateRequired(config.KeyAuthClientID, config.KeyAuthClientSecret); err != nil {
		return nil, fmt.Errorf("client credentials configuration: %w", err)
	}
	return NewOAuth2ClientCredentialsProvider(
		tokenClient,
		cfg.GetString(config.KeyAuthTokenURL),
		cfg.GetString(config.KeyAuthClientID),
		cfg.GetString(config.KeyAuthClientSecret),
		cfg.GetString(config.KeyAuthScope),
	), nil
}

// StoreFromConfig returns a RedisStore when auth.redis.addr is set and a
// MemoryStore otherwise.
func StoreFromConfig(cfg *config.Config) TokenStore {
	addr := cfg.GetString(config.KeyAuthRedisAddr)
	if addr == "" {
		return NewMemoryStore()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.GetString(config.KeyAuthRedisPass),
		DB:       cfg.GetInt(config.KeyAuthRedisDB),
	})
	return NewRedisStore(rdb, cfg.GetString(config.KeyAuthRedisKey))
}

// ClientOptions translates the rate limit and breaker settings into client
// options.
func ClientOptions(s config.ClientSettings, log logger.LogManager) []fhttp.ClientOption {
	opts := []fhttp.ClientOption{fhttp.WithLogger(log)}
	if s.RateLimit > 0 {
		opts = append(opts, fhttp.WithRateLimit(s.RateLimit, s.RateBurst))
	}
	if s.Breaker.Enabled {
		opts = append(opts, fhttp.WithBreaker(fhttp.BreakerSettings{
			Name:                "fluenthttp",
			Timeout:             s.Breaker.Timeout,
			ConsecutiveFailures: s.Breaker.Failures,
		}))
	}
	return opts
}

// NewClientWithToken builds a client from cfg whose requests carry a bearer
// token from the configured provider. Token endpoint calls go through a
// separate client without the interceptor.
//
// Extra ClientOptions are applied to the returned client only. Call
// Config().Close on the returned client to stop its main queue.
func NewClientWithToken(log logger.LogManager, cfg *config.Config, opts ...fhttp.ClientOption) (*fhttp.Client, error) {
	if log == nil {
		log = logger.NewNop()
	}
	settings, err := cfg.ClientSettings()
	if err != nil {
		return nil, err
	}
	base := ClientOptions(settings, log)

	tokenCfg, err := fhttp.ConfigFromSettings(settings, fhttp.WithMainExecutor(fhttp.Inline))
	if err != nil {
		return nil, err
	}
	tokenClient := fhttp.NewClient(tokenCfg, base...)

	provider, err := ProviderFromConfig(cfg, tokenClient)
	if err != nil {
		return nil, err
	}
	cache := NewTokenCache(provider,
		utils.ClampDuration(cfg.GetDuration(config.KeyAuthRefreshBuffer), time.Second, 10*time.Minute),
		WithStore(StoreFromConfig(cfg)),
		WithCacheLogger(log),
	)

	clientCfg, err := fhttp.ConfigFromSettings(settings)
	if err != nil {
		return nil, err
	}
	NewTokenInterceptor(cache, log).Install(clientCfg)
	return fhttp.NewClient(clientCfg, append(base, opts...)...), nil
}
