package session

import (
	"context"
	"sync"
)

// GUISync provides GUI thread synchronization.
// For GTK this is glib.IdleAdd, for Fyne it is fyne.Do.
type GUISync interface {
	// RunOnGUIThread schedules fn on the GUI thread. The returned channel
	// is closed once fn has run.
	RunOnGUIThread(fn func()) <-chan struct{}
}

// DirectSync runs functions on the calling goroutine. It only suits
// callers that already are the GUI thread; a Session posts from its
// pump goroutine, so New rejects it.
type DirectSync struct{}

func (DirectSync) RunOnGUIThread(fn func()) <-chan struct{} {
	done := make(chan struct{})
	fn()
	close(done)
	return done
}

// SyncFunc adapts a fire-and-forget post primitive such as fyne.Do or
// glib.IdleAdd into a GUISync.
type SyncFunc func(fn func())

func (f SyncFunc) RunOnGUIThread(fn func()) <-chan struct{} {
	done := make(chan struct{})
	f(func() {
		defer close(done)
		fn()
	})
	return done
}

// Queue is a GUISync whose closures run only when the owning goroutine
// drains it. The goroutine that calls Drain or RunUntil plays the GUI
// thread; closures run in the order they were posted.
type Queue struct {
	mu      sync.Mutex
	pending []queued
	wake    chan struct{}
}

type queued struct {
	fn   func()
	done chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

func (q *Queue) RunOnGUIThread(fn func()) <-chan struct{} {
	done := make(chan struct{})
	q.mu.Lock()
	q.pending = append(q.pending, queued{fn: fn, done: done})
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return done
}

// Len returns the number of closures waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) pop() (queued, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return queued{}, false
	}
	item := q.pending[0]
	q.pending[0] = queued{}
	q.pending = q.pending[1:]
	return item, true
}

// Drain runs pending closures, including ones posted while draining,
// until the queue is empty. It returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		item, ok := q.pop()
		if !ok {
			return n
		}
		item.fn()
		close(item.done)
		n++
	}
}

// RunUntil runs closures as they arrive until cond reports true or ctx
// ends. cond is checked before waiting and after every closure.
func (q *Queue) RunUntil(ctx context.Context, cond func() bool) error {
	for {
		if cond() {
			return nil
		}
		item, ok := q.pop()
		if ok {
			item.fn()
			close(item.done)
			continue
		}
		select {
		case <-q.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
