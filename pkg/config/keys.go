package config

import "time"

// Keys read by the client packages.
const (
	KeyTimeout         = "http.timeout"
	KeyCachePolicy     = "http.cache_policy"
	KeyEncoding        = "http.encoding"
	KeyLoadingTitle    = "http.loading_title"
	KeyResponseThread  = "http.response_thread"
	KeyLoggingLevel    = "http.logging_level"
	KeyStandardHeaders = "http.standard_headers"
	KeyRequestIDHeader = "http.request_id_header"
	KeyRateLimit       = "http.rate_limit"
	KeyRateBurst       = "http.rate_burst"

	KeyBreakerEnabled  = "http.breaker.enabled"
	KeyBreakerFailures = "http.breaker.failures"
	KeyBreakerTimeout  = "http.breaker.timeout"

	KeyLogLevel = "log.level"

	KeyAuthTokenURL      = "auth.token_url"
	KeyAuthClientID      = "auth.client_id"
	KeyAuthClientSecret  = "auth.client_secret"
	KeyAuthScope         = "auth.scope"
	KeyAuthServiceID     = "auth.service_id"
	KeyAuthAPIKey        = "auth.api_key"
	KeyAuthAudience      = "auth.audience"
	KeyAuthStaticToken   = "auth.static_token"
	KeyAuthRefreshBuffer = "auth.refresh_buffer"
	KeyAuthRedisAddr     = "auth.redis.addr"
	KeyAuthRedisPass     = "auth.redis.password"
	KeyAuthRedisDB       = "auth.redis.db"
	KeyAuthRedisKey      = "auth.redis.key"

	KeyServiceName    = "observability.service_name"
	KeyServiceVersion = "observability.service_version"
	KeyOTLPEndpoint   = "observability.endpoint"
	KeyOTLPInsecure   = "observability.insecure"
	KeySampleRatio    = "observability.sample_ratio"
)

// Defaults returns the values New seeds before any option runs.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		KeyTimeout:        40 * time.Second,
		KeyCachePolicy:    "reload",
		KeyEncoding:       "json",
		KeyResponseThread: "main",
		KeyLoggingLevel:   "errors",
		KeyRateBurst:      1,

		KeyBreakerFailures: 5,
		KeyBreakerTimeout:  30 * time.Second,

		KeyLogLevel: "info",

		KeyAuthRefreshBuffer: 30 * time.Second,
		KeyAuthRedisKey:      "fluenthttp:token",

		KeyServiceName:  "fluenthttp",
		KeyOTLPEndpoint: "localhost:4318",
		KeyOTLPInsecure: true,
		KeySampleRatio:  1.0,
	}
}
