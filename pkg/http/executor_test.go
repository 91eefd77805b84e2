package http

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := NewQueue()
	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 100; i++ {
		i := i
		q.Execute(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	q.Close()

	assert.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueueRunsOneAtATime(t *testing.T) {
	q := NewQueue()
	var (
		mu      sync.Mutex
		running int
		max     int
	)
	for i := 0; i < 50; i++ {
		q.Execute(func() {
			mu.Lock()
			running++
			if running > max {
				max = running
			}
			mu.Unlock()
			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	q.Close()
	assert.Equal(t, 1, max)
}

func TestQueueAfterCloseRunsInline(t *testing.T) {
	q := NewQueue()
	q.Close()
	q.Close()

	ran := false
	q.Execute(func() { ran = true })
	assert.True(t, ran)
}

func TestInlineAndExecutorFunc(t *testing.T) {
	ran := false
	Inline.Execute(func() { ran = true })
	assert.True(t, ran)

	var seen int
	ExecutorFunc(func(fn func()) { seen++; fn() }).Execute(func() {})
	assert.Equal(t, 1, seen)
}
