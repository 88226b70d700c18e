package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrLoopStopped = errors.New("loop is stopped")

// Loop runs posted functions one at a time on the goroutine that called Run.
// State owned by the loop (session, editor) is only touched from there.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake   chan struct{}
	done   chan struct{}
	logger *slog.Logger
}

func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run blocks until ctx is done. Functions still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	}()
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()
		for _, fn := range batch {
			l.exec(fn)
		}
		if len(batch) > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in loop task", slog.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

// Post enqueues fn without waiting. It never blocks, and is safe to call
// from the loop itself. Returns false once the loop has stopped.
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

// Call runs fn on the loop and waits for it. Must not be called from the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	var panicErr error
	ok := l.Post(func() {
		defer close(finished)
		defer func() {
			if r := recover(); r != nil {
				panicErr = fmt.Errorf("panic in loop call: %v", r)
			}
		}()
		fn()
	})
	if !ok {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return panicErr
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
