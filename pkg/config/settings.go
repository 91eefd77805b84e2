package config

import (
	"time"

	"github.com/milan604/fluenthttp/pkg/validator"
)

// ClientSettings is the file/env form of the HTTP client defaults, read from
// the "http" section.
//
// Viper lower-cases map keys, so standard header names loaded from files or
// the environment arrive lower-case. HTTP header names are case-insensitive on
// the wire.
type ClientSettings struct {
	Timeout         time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	CachePolicy     string            `mapstructure:"cache_policy" validate:"omitempty,oneof=protocol reload return-else-load return-dont-load"`
	Encoding        string            `mapstructure:"encoding" validate:"omitempty,oneof=json form"`
	LoadingTitle    string            `mapstructure:"loading_title"`
	ResponseThread  string            `mapstructure:"response_thread" validate:"omitempty,oneof=main background"`
	LoggingLevel    string            `mapstructure:"logging_level" validate:"omitempty,oneof=none errors requests debug"`
	StandardHeaders map[string]string `mapstructure:"standard_headers" validate:"dive,keys,header_name,endkeys"`
	RequestIDHeader string            `mapstructure:"request_id_header" validate:"omitempty,header_name"`
	RateLimit       float64           `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst       int               `mapstructure:"rate_burst" validate:"gte=0"`
	Breaker         BreakerSettings   `mapstructure:"breaker"`
}

// BreakerSettings enables the transport circuit breaker.
type BreakerSettings struct {
	Enabled  bool          `mapstructure:"enabled"`
	Failures uint32        `mapstructure:"failures" validate:"required_if=Enabled true"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ClientSettings decodes and validates the "http" section.
func (c *Config) ClientSettings() (ClientSettings, error) {
	// Unmarshal merges every layer; UnmarshalKey on a section would only
	// see the highest-priority layer that defines it.
	var wrapper struct {
		HTTP ClientSettings `mapstructure:"http"`
	}
	if err := c.Unmarshal(&wrapper); err != nil {
		return wrapper.HTTP, err
	}
	s := wrapper.HTTP
	if appErr := validator.Default().Struct(s); appErr != nil {
		return s, appErr
	}
	return s, nil
}
