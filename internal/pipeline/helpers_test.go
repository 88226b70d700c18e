package pipeline_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/limbo/journal/internal/pipeline"
	"github.com/stretchr/testify/require"
)

type analyzerFunc func(ctx context.Context, text string) (string, error)

func (f analyzerFunc) Analyze(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

type fetcherFunc func(ctx context.Context) (string, error)

func (f fetcherFunc) Current(ctx context.Context) (string, error) {
	return f(ctx)
}

// recordingHandler keeps log messages so tests can wait for them
type recordingHandler struct {
	mu   sync.Mutex
	msgs []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, r.Message)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) count(msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.msgs {
		if m == msg {
			n++
		}
	}
	return n
}

func startLoop(t *testing.T, logger *slog.Logger) *pipeline.Loop {
	loop := pipeline.NewLoop(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop
}

func onLoop(t *testing.T, loop *pipeline.Loop, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, loop.Call(ctx, fn))
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	var zero T
	return zero
}
