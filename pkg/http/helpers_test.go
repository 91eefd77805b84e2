package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTransport answers every call with a fixed reply and records the calls.
type fakeTransport struct {
	mu     sync.Mutex
	calls  []*Call
	status int
	body   []byte
	err    error
	header http.Header
	before func(*Call)
}

func (f *fakeTransport) Perform(_ context.Context, call *Call) (*Reply, []byte, error) {
	if f.before != nil {
		f.before(call)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Reply{StatusCode: status, Status: http.StatusText(status), Header: f.header, URL: call.URL}, f.body, nil
}

func (f *fakeTransport) Calls() []*Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Call(nil), f.calls...)
}

// recordingIndicator logs Show and Hide calls in order.
type recordingIndicator struct {
	mu     sync.Mutex
	events []string
}

func (i *recordingIndicator) Show(title string) { i.add("show:" + title) }
func (i *recordingIndicator) Hide()             { i.add("hide") }

func (i *recordingIndicator) add(e string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events = append(i.events, e)
}

func (i *recordingIndicator) Events() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.events...)
}

// countingRecorder counts Recorder callbacks.
type countingRecorder struct {
	started, finished atomic.Int32
	stages            sync.Map
}

func (r *countingRecorder) RequestStarted(string) { r.started.Add(1) }

func (r *countingRecorder) RequestFinished(string, int, error, time.Duration) { r.finished.Add(1) }

func (r *countingRecorder) Intercepted(stage string) {
	n, _ := r.stages.LoadOrStore(stage, new(atomic.Int32))
	n.(*atomic.Int32).Add(1)
}

func (r *countingRecorder) stage(s string) int32 {
	n, ok := r.stages.Load(s)
	if !ok {
		return 0
	}
	return n.(*atomic.Int32).Load()
}

// newTestClient builds a client whose handlers run inline and which logs
// nothing unless opts say otherwise.
func newTestClient(t Transport, cfgOpts ...ConfigOption) *Client {
	opts := append([]ConfigOption{WithMainExecutor(Inline), WithLoggingLevel(LogNone)}, cfgOpts...)
	return NewClient(NewConfig(opts...), WithTransport(t))
}

type outcome struct {
	body  []byte
	reply *Reply
	err   error
}

// sendRaw dispatches r and waits for the raw completion.
func sendRaw(t *testing.T, r *Request) outcome {
	t.Helper()
	ch := make(chan outcome, 1)
	r.client.dispatch(context.Background(), r, r.terminal(Inline, func(body []byte, reply *Reply, err error) {
		ch <- outcome{body, reply, err}
	}))
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete")
		return outcome{}
	}
}
