package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the wrapper around viper with extra helpers.
type Config struct {
	*viper.Viper

	// private
	sensitiveKeys map[string]struct{}
	onChange      func(ClientSettings, error)
	hasSource     bool
}

// Option is a functional option for New.
type Option func(*Config) error

// New creates a Config instance seeded with the client defaults. Use options
// to layer files, environment and flags on top.
// Example:
//
//	cfg := config.New(
//	  config.WithFile("fluenthttp.yaml"),
//	  config.WithEnv("FLUENTHTTP"),
//	  config.WithPFlags(pflag.CommandLine),
//	  config.WithWatch(func(s config.ClientSettings, err error) { ... }),
//	)
func New(opts ...Option) *Config {
	v := viper.New()
	cfg := &Config{
		Viper: v,
		sensitiveKeys: map[string]struct{}{
			KeyAuthClientSecret: {},
			KeyAuthAPIKey:       {},
			KeyAuthStaticToken:  {},
			KeyAuthRedisPass:    {},
		},
	}
	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	// apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			log.Fatalf("config: applying option failed: %v", err)
		}
	}

	// try to read config (if file was set via options)
	if err := cfg.readConfigIfPossible(); err != nil {
		// non-fatal; user might only want env/flags/defaults
		log.Printf("config: read config warning: %v", err)
	}

	return cfg
}

func (c *Config) readConfigIfPossible() error {
	if !c.hasSource {
		return nil
	}
	return c.ReadInConfig()
}

/* ---------------------------
   Options
----------------------------*/

// WithDefaults sets default values (applied first)
func WithDefaults(defaults map[string]interface{}) Option {
	return func(c *Config) error {
		for k, v := range defaults {
			c.SetDefault(k, v)
		}
		return nil
	}
}

// WithFile sets an exact config file (absolute or relative).
// viper will use SetConfigFile(path) so the extension determines type.
func WithFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		c.SetConfigFile(path)
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext != "" {
			c.SetConfigType(ext)
		}
		c.hasSource = true
		return nil
	}
}

// WithConfigNamePaths sets config name (without ext) and search paths.
// format may be empty (viper will infer from file names/extensions).
func WithConfigNamePaths(name string, paths ...string) Option {
	return func(c *Config) error {
		if name != "" {
			c.SetConfigName(name)
		}
		if len(paths) == 0 {
			paths = []string{".", "./config", "/etc/fluenthttp"}
		}
		for _, p := range paths {
			c.AddConfigPath(p)
		}
		c.hasSource = true
		return nil
	}
}

// WithEnv enables environment variable overrides.
// prefix = "APP" means APP_FOO will override foo.
// replacer maps dots/hyphens in keys to underscores in envs.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		if prefix != "" {
			c.SetEnvPrefix(prefix)
		}
		c.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.AutomaticEnv()
		return nil
	}
}

// WithPFlags binds a pflag.FlagSet to viper. If flags are nil, we bind the default command line.
func WithPFlags(flags *pflag.FlagSet) Option {
	return func(c *Config) error {
		if flags == nil {
			flags = pflag.CommandLine
		}
		// NOTE: do not define flags here; the application should define them.
		// Here we just bind whatever flags are present.
		if err := c.BindPFlags(flags); err != nil {
			return err
		}
		return nil
	}
}

// WithAutoPFlags registers flags for the client settings on the command line
// flag set, parses it and binds it. Use WithPFlags for full control.
func WithAutoPFlags() Option {
	return func(c *Config) error {
		RegisterFlags(pflag.CommandLine)
		pflag.Parse()
		return WithPFlags(pflag.CommandLine)(c)
	}
}

// RegisterFlags defines flags for the most commonly tuned client settings.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Duration(KeyTimeout, 0, "default request timeout")
	fs.String(KeyLoggingLevel, "", "request logging: none, errors, requests or debug")
	fs.String(KeyResponseThread, "", "where handlers run: main or background")
	fs.Float64(KeyRateLimit, 0, "requests per second, 0 disables limiting")
	fs.String(KeyLogLevel, "", "log level")
}

// WithDotEnv reads key=val lines from a .env file (path) and merges into viper.
// If path is empty, attempts ".env" in working directory.
func WithDotEnv(path string) Option {
	return func(c *Config) error {
		if path == "" {
			path = ".env"
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
		envV := viper.New()
		envV.SetConfigFile(path)
		envV.SetConfigType("env")
		if err := envV.ReadInConfig(); err != nil {
			return err
		}
		for _, k := range envV.AllKeys() {
			c.Set(k, envV.Get(k))
		}
		return nil
	}
}

// WithWatch reloads the config file when it changes and hands the freshly
// decoded client settings to onChange. A reload that fails validation is
// reported through err and the previous settings stay in effect. Place it
// after WithFile or WithConfigNamePaths.
func WithWatch(onChange func(s ClientSettings, err error)) Option {
	return func(c *Config) error {
		c.onChange = onChange
		c.OnConfigChange(func(e fsnotify.Event) {
			log.Printf("config: file changed: %s", e.Name)
			if c.onChange != nil {
				c.onChange(c.ClientSettings())
			}
		})
		c.WatchConfig()
		return nil
	}
}

// WithSensitiveKeys registers keys which should be redacted when printing/logging.
func WithSensitiveKeys(keys ...string) Option {
	return func(c *Config) error {
		for _, k := range keys {
			c.sensitiveKeys[k] = struct{}{}
		}
		return nil
	}
}

/* ---------------------------
   Helpers / Actions
----------------------------*/

// MergeInFile merges another config file into the current config (keeps overrides)
func (c *Config) MergeInFile(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	// create a temporary viper to read that file
	tmp := viper.New()
	tmp.SetConfigFile(path)
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext != "" {
		tmp.SetConfigType(ext)
	}
	if err := tmp.ReadInConfig(); err != nil {
		return err
	}
	return c.MergeConfigMap(tmp.AllSettings())
}

/* ---------------------------
   Typed getters with defaults
----------------------------*/

// GetStringD returns string or def
func (c *Config) GetStringD(key, def string) string {
	if val := c.GetString(key); val != "" {
		return val
	}
	return def
}

// GetIntD returns int or def
func (c *Config) GetIntD(key string, def int) int {
	if c.IsSet(key) {
		return c.GetInt(key)
	}
	return def
}

// GetBoolD returns bool or def
func (c *Config) GetBoolD(key string, def bool) bool {
	if c.IsSet(key) {
		return c.GetBool(key)
	}
	return def
}

// GetFloat64D returns float64 or def
func (c *Config) GetFloat64D(key string, def float64) float64 {
	if c.IsSet(key) {
		return c.GetFloat64(key)
	}
	return def
}

// GetDurationD returns time.Duration or def
func (c *Config) GetDurationD(key string, def time.Duration) time.Duration {
	if c.IsSet(key) {
		return c.GetDuration(key)
	}
	return def
}

/* ---------------------------
   Validation & Utilities
----------------------------*/

// ValidateRequired ensures keys exist and are non-empty.
func (c *Config) ValidateRequired(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !c.IsSet(k) || c.GetString(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %v", strings.Join(missing, ", "))
	}
	return nil
}

// MaskedSettings returns every key with its effective value, sensitive keys
// redacted. Keys are flattened with dots.
func (c *Config) MaskedSettings() map[string]interface{} {
	redacted := map[string]interface{}{}
	for _, k := range c.AllKeys() {
		if _, ok := c.sensitiveKeys[k]; ok {
			redacted[k] = "***REDACTED***"
		} else {
			redacted[k] = c.Get(k)
		}
	}
	return redacted
}

// Print prints all settings to stdout with optional masking for sensitive keys.
func (c *Config) Print(mask bool) {
	all := c.AllKeys()
	sort.Strings(all)
	for _, k := range all {
		if mask {
			if _, ok := c.sensitiveKeys[k]; ok {
				fmt.Printf("%s = %s\n", k, "***REDACTED***")
				continue
			}
		}
		fmt.Printf("%s = %v\n", k, c.Get(k))
	}
}
