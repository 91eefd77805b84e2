package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milan604/fluenthttp/pkg/convert"
)

func TestNewRequestSnapshotsDefaults(t *testing.T) {
	cfg := NewConfig(
		WithMainExecutor(Inline),
		WithDefaultTimeout(5*time.Second),
		WithDefaultEncoding(EncodingForm),
		WithDefaultCachePolicy(CacheReturnDontLoad),
		WithDefaultLoadingTitle("Loading"),
		WithDefaultResponseThread(ThreadBackground),
	)
	c := NewClient(cfg, WithTransport(&fakeTransport{}))
	r := c.Get("https://api.example.com")

	cfg.SetDefaultTimeout(time.Minute)
	cfg.SetDefaultEncoding(EncodingJSON)

	assert.Equal(t, 5*time.Second, r.Timeout())
	assert.Equal(t, EncodingForm, r.Encoding())
	assert.Equal(t, CacheReturnDontLoad, r.CachePolicy())
	assert.Equal(t, "Loading", r.LoadingTitle())
	assert.Equal(t, ThreadBackground, r.ResponseThread())
	assert.Equal(t, StateNotSent, r.State())
	assert.NotEmpty(t, r.ID())
	assert.NotEqual(t, r.ID(), c.Get("https://api.example.com").ID())
}

func TestShortcutsSetMethod(t *testing.T) {
	c := newTestClient(&fakeTransport{})
	for method, r := range map[Method]*Request{
		MethodGet:    c.Get("https://x.test"),
		MethodPost:   c.Post("https://x.test"),
		MethodPut:    c.Put("https://x.test"),
		MethodDelete: c.Delete("https://x.test"),
		MethodPatch:  c.Patch("https://x.test"),
	} {
		assert.Equal(t, method, r.Method())
		assert.True(t, method.Valid())
	}
	assert.False(t, Method("TRACE").Valid())
}

func TestURLParams(t *testing.T) {
	c := newTestClient(&fakeTransport{})
	r := c.Get("https://api.example.com/search").
		AddURLParam("q", "go lang").
		AddURLParams(map[string]string{"page": "2"})
	assert.Equal(t, "https://api.example.com/search?q=go+lang&page=2", r.URL())

	r.RemoveURLParam("q")
	assert.Equal(t, "https://api.example.com/search?page=2", r.URL())

	r.RemoveURLParam("missing")
	assert.Equal(t, "https://api.example.com/search?page=2", r.URL())
}

func TestHeadersAndParamsAreCopies(t *testing.T) {
	c := newTestClient(&fakeTransport{})
	r := c.Get("https://x.test").
		AddHeader("A", "1").
		AddHeaders(map[string]string{"B": "2", "A": "3"}).
		AddParam("p", "1").
		AddParams(map[string]any{"q": 2})

	h := r.Headers()
	h["C"] = "mutated"
	assert.Equal(t, map[string]string{"A": "3", "B": "2"}, r.Headers())

	p := r.Params()
	delete(p, "p")
	assert.Len(t, r.Params(), 2)
}

func TestRemoveHeaderIgnoresCase(t *testing.T) {
	r := newTestClient(&fakeTransport{}).Get("https://api.example.com").
		AddHeader("authorization", "Bearer a").
		AddHeader("AUTHORIZATION", "Bearer b").
		AddHeader("Accept", "*/*")

	r.RemoveHeader("Authorization")
	assert.Equal(t, map[string]string{"Accept": "*/*"}, r.Headers())
}

func TestSetTimeoutFallsBackToDefault(t *testing.T) {
	c := newTestClient(&fakeTransport{}, WithDefaultTimeout(3*time.Second))
	r := c.Get("https://x.test").SetTimeout(time.Second)
	assert.Equal(t, time.Second, r.Timeout())
	r.SetTimeout(-time.Second)
	assert.Equal(t, 3*time.Second, r.Timeout())
}

type account struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

func TestSetObjectMergesAndForcesJSON(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	r := c.Post("https://x.test").SetEncoding(EncodingForm).AddParam("extra", "1")
	SetObject[account](r, account{Name: "ana"}, convert.JSONMapper[account]{})
	assert.Equal(t, EncodingJSON, r.Encoding())

	require.NoError(t, sendRaw(t, r).err)
	assert.JSONEq(t, `{"name":"ana","extra":"1"}`, string(ft.Calls()[0].Body))
}

func TestSetObjectsSendsArray(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	r := c.Post("https://x.test").AddParam("ignored", true)
	SetObjects[account](r, []account{{Name: "a"}, {Name: "b", Email: "b@x.test"}}, convert.JSONMapper[account]{})

	require.NoError(t, sendRaw(t, r).err)
	call := ft.Calls()[0]
	assert.JSONEq(t, `[{"name":"a"},{"name":"b","email":"b@x.test"}]`, string(call.Body))
	assert.Equal(t, ContentTypeJSON, call.Header.Get("Content-Type"))
}

func TestResetAllowsAnotherLogicalRequest(t *testing.T) {
	ft := &fakeTransport{status: 500, body: []byte(`{"e":1}`)}
	c := newTestClient(ft)
	r := c.Get("https://x.test")
	require.Error(t, sendRaw(t, r).err)
	assert.Equal(t, 1, r.Attempts())
	assert.NotNil(t, r.Reply())

	r.Reset()
	assert.Equal(t, StateNotSent, r.State())
	assert.Zero(t, r.Attempts())
	assert.Nil(t, r.Reply())
	assert.Nil(t, r.ResponseData())
	assert.NoError(t, r.ResponseError())
	assert.Zero(t, r.StatusCode())
	assert.False(t, r.WasIntercepted())
}

func TestResponseAccessors(t *testing.T) {
	ft := &fakeTransport{body: []byte(`{"ok":true}`)}
	r := newTestClient(ft).Get("https://x.test")
	require.NoError(t, sendRaw(t, r).err)

	assert.Equal(t, []byte(`{"ok":true}`), r.ResponseData())
	s, ok := r.ResponseString()
	assert.True(t, ok)
	assert.Equal(t, `{"ok":true}`, s)
	assert.Equal(t, 200, r.StatusCode())
	assert.Equal(t, StateCompleted, r.State())
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "not_sent", StateNotSent.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "State(9)", State(9).String())
}
