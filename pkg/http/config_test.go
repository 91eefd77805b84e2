package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/fluenthttp/pkg/apperr"
	"github.com/milan604/fluenthttp/pkg/config"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	defer cfg.Close()
	assert.Equal(t, DefaultTimeout, cfg.DefaultTimeout())
	assert.Equal(t, CacheReloadIgnoringLocalData, cfg.DefaultCachePolicy())
	assert.Equal(t, EncodingJSON, cfg.DefaultEncoding())
	assert.Equal(t, ThreadMain, cfg.DefaultResponseThread())
	assert.Equal(t, LogErrors, cfg.LoggingLevel())
	assert.Empty(t, cfg.DefaultLoadingTitle())
	assert.NotNil(t, cfg.MainExecutor())
	assert.Nil(t, cfg.Indicator())
}

func TestSetDefaultTimeoutNonPositiveRestoresDefault(t *testing.T) {
	cfg := NewConfig(WithMainExecutor(Inline), WithDefaultTimeout(time.Second))
	assert.Equal(t, time.Second, cfg.DefaultTimeout())
	cfg.SetDefaultTimeout(0)
	assert.Equal(t, 40*time.Second, cfg.DefaultTimeout())
}

func TestStandardHeadersAreCopied(t *testing.T) {
	h := map[string]string{"Accept": "application/json"}
	cfg := NewConfig(WithMainExecutor(Inline), WithStandardHeaders(h))
	h["Accept"] = "text/plain"
	assert.Equal(t, "application/json", cfg.StandardHeaders()["Accept"])

	cfg.AddStandardHeader("User-Agent", "test")
	got := cfg.StandardHeaders()
	got["User-Agent"] = "mutated"
	assert.Equal(t, "test", cfg.StandardHeaders()["User-Agent"])
}

func TestApplySettings(t *testing.T) {
	cfg, err := ConfigFromSettings(config.ClientSettings{
		Timeout:         2 * time.Second,
		CachePolicy:     "return-else-load",
		Encoding:        "form",
		LoadingTitle:    "Working",
		ResponseThread:  "background",
		LoggingLevel:    "debug",
		StandardHeaders: map[string]string{"x-app": "demo"},
		RequestIDHeader: "X-Request-ID",
	}, WithMainExecutor(Inline))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.DefaultTimeout())
	assert.Equal(t, CacheReturnElseLoad, cfg.DefaultCachePolicy())
	assert.Equal(t, EncodingForm, cfg.DefaultEncoding())
	assert.Equal(t, "Working", cfg.DefaultLoadingTitle())
	assert.Equal(t, ThreadBackground, cfg.DefaultResponseThread())
	assert.Equal(t, LogDebug, cfg.LoggingLevel())
	assert.Equal(t, map[string]string{"x-app": "demo"}, cfg.StandardHeaders())
	assert.Equal(t, "X-Request-ID", cfg.RequestIDHeader())
}

func TestApplyKeepsUnsetFields(t *testing.T) {
	cfg := NewConfig(WithMainExecutor(Inline), WithDefaultLoadingTitle("keep"))
	require.NoError(t, cfg.Apply(config.ClientSettings{}))
	assert.Equal(t, "keep", cfg.DefaultLoadingTitle())
	assert.Equal(t, DefaultTimeout, cfg.DefaultTimeout())
}

func TestApplyRejectsUnknownValues(t *testing.T) {
	cfg := NewConfig(WithMainExecutor(Inline))
	err := cfg.Apply(config.ClientSettings{Encoding: "xml"})
	require.Error(t, err)

	var ae *apperr.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.ErrorCodeInvalidConfig.Code(), ae.Code)
	assert.Equal(t, "encoding", ae.Details["field"])
	assert.Equal(t, EncodingJSON, cfg.DefaultEncoding())
}

func TestParsers(t *testing.T) {
	enc, err := ParseEncoding("form-encoded")
	require.NoError(t, err)
	assert.Equal(t, EncodingForm, enc)

	for _, p := range []CachePolicy{CacheUseProtocolPolicy, CacheReloadIgnoringLocalData, CacheReturnElseLoad, CacheReturnDontLoad} {
		got, err := ParseCachePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	for _, l := range []LoggingLevel{LogNone, LogErrors, LogRequests, LogDebug} {
		got, err := ParseLoggingLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err = ParseResponseThread("ui")
	assert.Error(t, err)
}

func TestCloseStopsOwnQueue(t *testing.T) {
	cfg := NewConfig()
	q, ok := cfg.MainExecutor().(*Queue)
	require.True(t, ok)
	assert.Same(t, q, cfg.MainExecutor())

	cfg.Close()
	ran := false
	q.Execute(func() { ran = true })
	assert.True(t, ran, "a closed queue runs work on the caller")

	next, ok := cfg.MainExecutor().(*Queue)
	require.True(t, ok)
	assert.NotSame(t, q, next)
	cfg.Close()
}

func TestCloseLeavesSuppliedExecutor(t *testing.T) {
	supplied := NewQueue()
	defer supplied.Close()
	cfg := NewConfig(WithMainExecutor(supplied))
	cfg.Close()
	assert.Same(t, supplied, cfg.MainExecutor())

	done := make(chan struct{})
	supplied.Execute(func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supplied queue was stopped")
	}
}

func TestSetMainExecutorClosesOwnQueue(t *testing.T) {
	cfg := NewConfig()
	q := cfg.MainExecutor().(*Queue)
	cfg.SetMainExecutor(Inline)

	ran := false
	q.Execute(func() { ran = true })
	assert.True(t, ran)
}
