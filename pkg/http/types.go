package http

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP request method supported by the builder.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
	MethodPatch  Method = http.MethodPatch
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	}
	return false
}

func (m Method) String() string { return string(m) }

// Encoding selects how parameters are serialized into the request body.
type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingForm
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingForm:
		return "form"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// ContentType returns the header value sent for bodies in this encoding.
func (e Encoding) ContentType() string {
	if e == EncodingForm {
		return ContentTypeForm
	}
	return ContentTypeJSON
}

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// ParseEncoding accepts "json", "form" and "form-encoded".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return EncodingJSON, nil
	case "form", "form-encoded", "formencoded", "urlencoded":
		return EncodingForm, nil
	}
	return EncodingJSON, fmt.Errorf("unknown encoding %q", s)
}

// CachePolicy tells the transport how to treat locally cached responses.
type CachePolicy int

const (
	CacheUseProtocolPolicy CachePolicy = iota
	CacheReloadIgnoringLocalData
	CacheReturnElseLoad
	CacheReturnDontLoad
)

func (p CachePolicy) String() string {
	switch p {
	case CacheUseProtocolPolicy:
		return "protocol"
	case CacheReloadIgnoringLocalData:
		return "reload"
	case CacheReturnElseLoad:
		return "return-else-load"
	case CacheReturnDontLoad:
		return "return-dont-load"
	}
	return fmt.Sprintf("CachePolicy(%d)", int(p))
}

// ParseCachePolicy is the inverse of CachePolicy.String.
func ParseCachePolicy(s string) (CachePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "protocol":
		return CacheUseProtocolPolicy, nil
	case "", "reload":
		return CacheReloadIgnoringLocalData, nil
	case "return-else-load":
		return CacheReturnElseLoad, nil
	case "return-dont-load":
		return CacheReturnDontLoad, nil
	}
	return CacheReloadIgnoringLocalData, fmt.Errorf("unknown cache policy %q", s)
}

// ResponseThread selects where completion handlers run.
type ResponseThread int

const (
	// ThreadMain runs handlers on the configured main executor.
	ThreadMain ResponseThread = iota
	// ThreadBackground runs handlers on the goroutine that performed the call.
	ThreadBackground
)

func (t ResponseThread) String() string {
	if t == ThreadBackground {
		return "background"
	}
	return "main"
}

func ParseResponseThread(s string) (ResponseThread, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "main":
		return ThreadMain, nil
	case "background":
		return ThreadBackground, nil
	}
	return ThreadMain, fmt.Errorf("unknown response thread %q", s)
}

// LoggingLevel controls how much the dispatcher logs about requests.
type LoggingLevel int

const (
	LogNone LoggingLevel = iota
	LogErrors
	LogRequests
	LogDebug
)

func (l LoggingLevel) String() string {
	switch l {
	case LogNone:
		return "none"
	case LogErrors:
		return "errors"
	case LogRequests:
		return "requests"
	case LogDebug:
		return "debug"
	}
	return fmt.Sprintf("LoggingLevel(%d)", int(l))
}

func ParseLoggingLevel(s string) (LoggingLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return LogNone, nil
	case "", "errors", "error":
		return LogErrors, nil
	case "requests", "info":
		return LogRequests, nil
	case "debug":
		return LogDebug, nil
	}
	return LogErrors, fmt.Errorf("unknown logging level %q", s)
}

// State is the lifecycle of a single logical request.
type State int

const (
	StateNotSent State = iota
	StateSent
	StateIntercepted
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotSent:
		return "not_sent"
	case StateSent:
		return "sent"
	case StateIntercepted:
		return "intercepted"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
