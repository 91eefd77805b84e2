package logger

import (
	"context"
	"sort"
	"sync"
)

var (
	registryMu         sync.RWMutex
	contextKeyRegistry = map[interface{}]string{
		RequestIDKey: "request_id",
		AttemptKey:   "attempt",
	}
)

// RegisterContextKey makes the *FCtx methods log ctx.Value(ctxKey) under logField.
func RegisterContextKey(ctxKey interface{}, logField string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	contextKeyRegistry[ctxKey] = logField
}

func UnregisterContextKey(ctxKey interface{}) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(contextKeyRegistry, ctxKey)
}

// WithRequestID stores id on ctx for request scoped log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// withContext collects registered values from ctx as sorted key/value pairs.
func withContext(ctx context.Context) []any {
	registryMu.RLock()
	defer registryMu.RUnlock()

	type field struct {
		name string
		val  any
	}
	found := make([]field, 0, len(contextKeyRegistry))
	for key, name := range contextKeyRegistry {
		if val := ctx.Value(key); val != nil {
			found = append(found, field{name, val})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].name < found[j].name })

	fields := make([]any, 0, len(found)*2)
	for _, f := range found {
		fields = append(fields, f.name, f.val)
	}
	return fields
}
