package dom

import (
	"context"
	"sync"
)

// Loop runs posted functions one at a time on a single goroutine. Every
// Document mutation happens inside a posted function.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	exited  chan struct{}
	stopped bool

	// Idle, when set, runs on the loop after each drained batch.
	Idle func()
}

// NewLoop creates a loop. Call Run to start it.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1), exited: make(chan struct{})}
}

// Post queues fn. It never blocks and is safe from any goroutine,
// including the loop itself. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for it. It must not be called from
// the loop goroutine.
func (l *Loop) Call(fn func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-l.exited:
		return false
	}
}

// Run processes posted functions until ctx is cancelled. Functions still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.exited)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
		if l.Idle != nil {
			l.Idle()
		}
	}
}
