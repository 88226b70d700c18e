package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/limbo/journal/pkg/entity"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultWorkers = 4
)

type MoodAnalyzer interface {
	// Returns a mood label for text
	Analyze(ctx context.Context, text string) (string, error)
}

type WeatherFetcher interface {
	// Returns a short human readable summary of the current weather
	Current(ctx context.Context) (string, error)
}

type Options struct {
	// Upper bound for a single analyzer or fetcher call
	Timeout time.Duration
	// How many analyzer and fetcher calls may run at once
	Workers int64
	Logger  *slog.Logger
}

// Pipeline runs mood classification and weather lookups in the background
// and hands results back on the loop. Failures never reach the callback,
// they turn into entity.DefaultMood and entity.UnknownWeather.
type Pipeline struct {
	loop     *Loop
	analyzer MoodAnalyzer
	weather  WeatherFetcher
	sem      *semaphore.Weighted
	timeout  time.Duration
	logger   *slog.Logger
}

func New(loop *Loop, analyzer MoodAnalyzer, weather WeatherFetcher, opts Options) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		loop:     loop,
		analyzer: analyzer,
		weather:  weather,
		sem:      semaphore.NewWeighted(opts.Workers),
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

func (p *Pipeline) ClassifyMood(text string, done func(mood string)) {
	go func() {
		var call func(ctx context.Context) (string, error)
		if p.analyzer != nil {
			call = func(ctx context.Context) (string, error) {
				return p.analyzer.Analyze(ctx, text)
			}
		}
		mood := p.resolve("mood classification", entity.DefaultMood, call)
		p.deliver("mood", func() { done(mood) })
	}()
}

func (p *Pipeline) FetchWeather(done func(weather string)) {
	go func() {
		var call func(ctx context.Context) (string, error)
		if p.weather != nil {
			call = p.weather.Current
		}
		weather := p.resolve("weather lookup", entity.UnknownWeather, call)
		p.deliver("weather", func() { done(weather) })
	}()
}

func (p *Pipeline) deliver(kind string, fn func()) {
	if !p.loop.Post(fn) {
		p.logger.Debug("loop stopped, result dropped", slog.String("kind", kind))
	}
}

type result struct {
	value string
	err   error
}

// resolve runs call within the timeout and the worker bound. A call that
// ignores its context keeps its worker slot until it returns, but its
// result is no longer waited for.
func (p *Pipeline) resolve(op, fallback string, call func(ctx context.Context) (string, error)) string {
	logger := p.logger.With(slog.String("op", op))
	if call == nil {
		logger.Warn("no backend configured, using fallback", slog.String("fallback", fallback))
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		logger.Warn("no free worker in time, using fallback", slog.String("fallback", fallback))
		return fallback
	}
	ch := make(chan result, 1)
	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := call(ctx)
		ch <- result{value: v, err: err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			logger.Warn("failed, using fallback", slog.String("error", r.err.Error()), slog.String("fallback", fallback))
			return fallback
		}
		v := strings.TrimSpace(r.value)
		if v == "" {
			logger.Warn("empty result, using fallback", slog.String("fallback", fallback))
			return fallback
		}
		return v
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("timed out, using fallback", slog.Duration("timeout", p.timeout), slog.String("fallback", fallback))
		}
		return fallback
	}
}
