package http

import "sync"

var (
	defaultMu     sync.RWMutex
	defaultClient *Client
)

// SetDefault installs c as the client returned by Default. Call it once at
// startup.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultClient = c
}

// Default returns the process wide client, creating one with NewConfig()
// when none has been installed.
func Default() *Client {
	defaultMu.RLock()
	c := defaultClient
	defaultMu.RUnlock()
	if c != nil {
		return c
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = NewClient(nil)
	}
	return defaultClient
}

// New builds a request on the default client.
func New(rawURL string, method Method) *Request {
	return Default().NewRequest(rawURL, method)
}
