package http

import (
	"sync"
	"time"

	"github.com/milan604/fluenthttp/pkg/apperr"
	"github.com/milan604/fluenthttp/pkg/config"
	"github.com/milan604/fluenthttp/pkg/utils"
)

// DefaultTimeout is used whenever a request or config timeout is not positive.
const DefaultTimeout = 40 * time.Second

// Config holds the settings shared by every request a Client builds.
//
// Defaults (timeout, cache policy, encoding, loading title, response thread)
// are captured when a Request is created. Interceptors, standard headers, the
// indicator and the logging level are read when a request is dispatched.
// Configure it at startup: concurrent changes are memory safe but in-flight
// requests may observe either value.
type Config struct {
	mu sync.RWMutex

	timeout        time.Duration
	cachePolicy    CachePolicy
	encoding       Encoding
	loadingTitle   string
	responseThread ResponseThread

	indicator           Indicator
	requestInterceptor  RequestInterceptor
	responseInterceptor ResponseInterceptor
	standardHeaders     map[string]string
	loggingLevel        LoggingLevel
	mainExecutor        Executor
	ownQueue            *Queue
	requestIDHeader     string
}

// ConfigOption configures a Config.
type ConfigOption func(*Config)

func WithDefaultTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.setTimeout(d) }
}

func WithDefaultCachePolicy(p CachePolicy) ConfigOption {
	return func(c *Config) { c.cachePolicy = p }
}

func WithDefaultEncoding(e Encoding) ConfigOption {
	return func(c *Config) { c.encoding = e }
}

func WithDefaultLoadingTitle(title string) ConfigOption {
	return func(c *Config) { c.loadingTitle = title }
}

func WithDefaultResponseThread(t ResponseThread) ConfigOption {
	return func(c *Config) { c.responseThread = t }
}

func WithIndicator(i Indicator) ConfigOption {
	return func(c *Config) { c.indicator = i }
}

func WithRequestInterceptor(i RequestInterceptor) ConfigOption {
	return func(c *Config) { c.requestInterceptor = i }
}

func WithResponseInterceptor(i ResponseInterceptor) ConfigOption {
	return func(c *Config) { c.responseInterceptor = i }
}

func WithStandardHeaders(h map[string]string) ConfigOption {
	return func(c *Config) { c.standardHeaders = utils.CloneMap(h) }
}

func WithLoggingLevel(l LoggingLevel) ConfigOption {
	return func(c *Config) { c.loggingLevel = l }
}

// WithMainExecutor sets where ThreadMain handlers run.
func WithMainExecutor(e Executor) ConfigOption {
	return func(c *Config) { c.mainExecutor = e }
}

// WithRequestIDHeader sends each request's ID under the given header name.
func WithRequestIDHeader(name string) ConfigOption {
	return func(c *Config) { c.requestIDHeader = name }
}

// NewConfig returns a Config with library defaults and applies opts.
//
// Without WithMainExecutor, the first ThreadMain handler starts a Queue
// goroutine owned by the Config. Close stops it.
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{
		timeout:        DefaultTimeout,
		cachePolicy:    CacheReloadIgnoringLocalData,
		encoding:       EncodingJSON,
		responseThread: ThreadMain,
		loggingLevel:   LogErrors,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops the Queue the Config started for ThreadMain handlers, after
// running what is already queued. An executor supplied with WithMainExecutor
// or SetMainExecutor is left to its owner. A later ThreadMain handler starts
// a new Queue.
func (c *Config) Close() {
	c.mu.Lock()
	q := c.ownQueue
	if q != nil {
		c.ownQueue = nil
		c.mainExecutor = nil
	}
	c.mu.Unlock()
	if q != nil {
		q.Close()
	}
}

// ConfigFromSettings builds a Config from file/env backed settings.
func ConfigFromSettings(s config.ClientSettings, opts ...ConfigOption) (*Config, error) {
	c := NewConfig(opts...)
	if err := c.Apply(s); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply overwrites the defaults present in s. Empty fields are left alone.
func (c *Config) Apply(s config.ClientSettings) error {
	var (
		policy  CachePolicy
		enc     Encoding
		thread  ResponseThread
		level   LoggingLevel
		err     error
		invalid = func(field string, cause error) error {
			return apperr.FromError(apperr.ErrorCodeInvalidConfig, cause).WithDetail("field", field)
		}
	)
	if s.CachePolicy != "" {
		if policy, err = ParseCachePolicy(s.CachePolicy); err != nil {
			return invalid("cache_policy", err)
		}
	}
	if s.Encoding != "" {
		if enc, err = ParseEncoding(s.Encoding); err != nil {
			return invalid("encoding", err)
		}
	}
	if s.ResponseThread != "" {
		if thread, err = ParseResponseThread(s.ResponseThread); err != nil {
			return invalid("response_thread", err)
		}
	}
	if s.LoggingLevel != "" {
		if level, err = ParseLoggingLevel(s.LoggingLevel); err != nil {
			return invalid("logging_level", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Timeout != 0 {
		c.setTimeout(s.Timeout)
	}
	if s.CachePolicy != "" {
		c.cachePolicy = policy
	}
	if s.Encoding != "" {
		c.encoding = enc
	}
	if s.LoadingTitle != "" {
		c.loadingTitle = s.LoadingTitle
	}
	if s.ResponseThread != "" {
		c.responseThread = thread
	}
	if s.LoggingLevel != "" {
		c.loggingLevel = level
	}
	if len(s.StandardHeaders) > 0 {
		c.standardHeaders = utils.CloneMap(s.StandardHeaders)
	}
	if s.RequestIDHeader != "" {
		c.requestIDHeader = s.RequestIDHeader
	}
	return nil
}

func (c *Config) setTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	c.timeout = d
}

func (c *Config) DefaultTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeout
}

// SetDefaultTimeout sets the timeout for new requests. d <= 0 restores 40s.
func (c *Config) SetDefaultTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setTimeout(d)
}

func (c *Config) DefaultCachePolicy() CachePolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cachePolicy
}

func (c *Config) SetDefaultCachePolicy(p CachePolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachePolicy = p
}

func (c *Config) DefaultEncoding() Encoding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encoding
}

func (c *Config) SetDefaultEncoding(e Encoding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoding = e
}

func (c *Config) DefaultLoadingTitle() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadingTitle
}

func (c *Config) SetDefaultLoadingTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingTitle = title
}

func (c *Config) DefaultResponseThread() ResponseThread {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.responseThread
}

func (c *Config) SetDefaultResponseThread(t ResponseThread) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responseThread = t
}

func (c *Config) Indicator() Indicator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indicator
}

func (c *Config) SetIndicator(i Indicator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indicator = i
}

func (c *Config) RequestInterceptor() RequestInterceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requestInterceptor
}

func (c *Config) SetRequestInterceptor(i RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestInterceptor = i
}

func (c *Config) ResponseInterceptor() ResponseInterceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.responseInterceptor
}

func (c *Config) SetResponseInterceptor(i ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responseInterceptor = i
}

// StandardHeaders returns a copy of the headers added to every request.
func (c *Config) StandardHeaders() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return utils.CloneMap(c.standardHeaders)
}

func (c *Config) SetStandardHeaders(h map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.standardHeaders = utils.CloneMap(h)
}

// AddStandardHeader sets one standard header, replacing any previous value.
func (c *Config) AddStandardHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.standardHeaders == nil {
		c.standardHeaders = make(map[string]string)
	}
	c.standardHeaders[key] = value
}

func (c *Config) LoggingLevel() LoggingLevel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggingLevel
}

func (c *Config) SetLoggingLevel(l LoggingLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggingLevel = l
}

// MainExecutor returns where ThreadMain handlers run, starting the Config's
// own Queue on first use when none was set.
func (c *Config) MainExecutor() Executor {
	c.mu.RLock()
	e := c.mainExecutor
	c.mu.RUnlock()
	if e != nil {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mainExecutor == nil {
		c.ownQueue = NewQueue()
		c.mainExecutor = c.ownQueue
	}
	return c.mainExecutor
}

// SetMainExecutor replaces the main executor. A Queue the Config started
// itself is closed.
func (c *Config) SetMainExecutor(e Executor) {
	if e == nil {
		return
	}
	c.mu.Lock()
	q := c.ownQueue
	c.ownQueue = nil
	c.mainExecutor = e
	c.mu.Unlock()
	if q != nil {
		q.Close()
	}
}

func (c *Config) RequestIDHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requestIDHeader
}

func (c *Config) SetRequestIDHeader(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestIDHeader = name
}

// requestDefaults is the snapshot a new Request starts from.
type requestDefaults struct {
	timeout        time.Duration
	cachePolicy    CachePolicy
	encoding       Encoding
	loadingTitle   string
	responseThread ResponseThread
}

func (c *Config) snapshot() requestDefaults {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return requestDefaults{
		timeout:        c.timeout,
		cachePolicy:    c.cachePolicy,
		encoding:       c.encoding,
		loadingTitle:   c.loadingTitle,
		responseThread: c.responseThread,
	}
}
