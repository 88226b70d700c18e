package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/journal/internal/error_values"
	"github.com/limbo/journal/internal/pipeline"
	"github.com/limbo/journal/internal/repository"
	"github.com/limbo/journal/internal/service"
	"github.com/limbo/journal/internal/session"
	"github.com/limbo/journal/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	loop    *pipeline.Loop
	editor  *pipeline.Editor
	sess    *session.Session
	journal *service.JournalService
	logs    *recordingHandler
}

func newFixture(t *testing.T, analyzer pipeline.MoodAnalyzer, fetcher pipeline.WeatherFetcher) *fixture {
	store, err := repository.NewBadgerStoreWithOptions(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logs := &recordingHandler{}
	logger := slog.New(logs)
	loop := startLoop(t, logger)
	p := pipeline.New(loop, analyzer, fetcher, pipeline.Options{Timeout: time.Second, Logger: logger})
	sess := session.New()
	sess.Begin(&entity.User{ID: uuid.New(), Username: "writer", Email: "writer@example.com"})
	journal := service.NewJournalService(store.Entries())
	return &fixture{
		loop:    loop,
		editor:  pipeline.NewEditor(p, journal, sess, func() time.Time { return now }),
		sess:    sess,
		journal: journal,
		logs:    logs,
	}
}

func (f *fixture) seed(t *testing.T, date time.Time, content, mood, weather string) *entity.Entry {
	var entry *entity.Entry
	var err error
	onLoop(t, f.loop, func() {
		entry, err = f.journal.CreateEntry(context.Background(), f.sess, service.EntryRequest{
			Date: date, Content: content, Mood: mood, Weather: weather,
		})
	})
	require.NoError(t, err)
	return entry
}

// weather reads the editor's weather from outside the loop
func (f *fixture) weather() string {
	var w string
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.loop.Call(ctx, func() { w = f.editor.Weather() }); err != nil {
		return ""
	}
	return w
}

type submitResult struct {
	entry *entity.Entry
	err   error
}

func (f *fixture) submit(t *testing.T, content string) submitResult {
	results := make(chan submitResult, 1)
	var err error
	onLoop(t, f.loop, func() {
		err = f.editor.Submit(content, func(e *entity.Entry, err error) {
			results <- submitResult{entry: e, err: err}
		})
	})
	require.NoError(t, err)
	return waitFor(t, results)
}

func fixedMood(mood string) pipeline.MoodAnalyzer {
	return analyzerFunc(func(context.Context, string) (string, error) { return mood, nil })
}

func fixedWeather(weather string) pipeline.WeatherFetcher {
	return fetcherFunc(func(context.Context) (string, error) { return weather, nil })
}

func TestNewEntryGetsWeather(t *testing.T) {
	f := newFixture(t, fixedMood("Positive"), fixedWeather("Clear sky, 24°C"))
	onLoop(t, f.loop, f.editor.StartNew)
	require.Eventually(t, func() bool {
		return f.weather() == "Clear sky, 24°C"
	}, 2*time.Second, 10*time.Millisecond)

	res := f.submit(t, "beach day")
	require.NoError(t, res.err)
	assert.Equal(t, "Positive", res.entry.Mood)
	assert.Equal(t, "Clear sky, 24°C", res.entry.Weather)
	assert.Equal(t, entity.Day(now), res.entry.Date)
	onLoop(t, f.loop, func() {
		assert.Equal(t, pipeline.ModeIdle, f.editor.State().Mode)
		assert.False(t, f.editor.Submitting())
	})
}

func TestLateWeatherDoesNotTouchEditedEntry(t *testing.T) {
	release := make(chan struct{})
	fetcher := fetcherFunc(func(context.Context) (string, error) {
		<-release
		return "Sunny, 30°C", nil
	})
	f := newFixture(t, fixedMood("Neutral"), fetcher)
	existing := f.seed(t, now.AddDate(0, 0, -1), "yesterday", "Negative", "Rain, 4°C")

	onLoop(t, f.loop, func() {
		f.editor.StartNew()
		f.editor.StartEdit(*existing)
	})
	close(release)
	require.Eventually(t, func() bool {
		return f.logs.count("stale weather result dropped") == 1
	}, 2*time.Second, 10*time.Millisecond)

	onLoop(t, f.loop, func() {
		st := f.editor.State()
		assert.Equal(t, pipeline.ModeEdit, st.Mode)
		assert.Equal(t, "Rain, 4°C", st.Weather)
		require.NotNil(t, st.Entry)
		assert.Equal(t, existing.ID, st.Entry.ID)
	})
	res := f.submit(t, "yesterday, revised")
	require.NoError(t, res.err)
	assert.Equal(t, "Rain, 4°C", res.entry.Weather)
}

func TestOlderWeatherRequestIsDropped(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	fetcher := fetcherFunc(func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			<-release
			return "first", nil
		}
		return "second", nil
	})
	f := newFixture(t, fixedMood("Neutral"), fetcher)
	onLoop(t, f.loop, f.editor.StartNew)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	onLoop(t, f.loop, f.editor.StartNew)
	require.Eventually(t, func() bool {
		return f.weather() == "second"
	}, 2*time.Second, 10*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool {
		return f.logs.count("stale weather result dropped") == 1
	}, 2*time.Second, 10*time.Millisecond)
	onLoop(t, f.loop, func() { assert.Equal(t, "second", f.editor.Weather()) })
}

func TestClassificationFailureSavesNeutral(t *testing.T) {
	analyzer := analyzerFunc(func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	f := newFixture(t, analyzer, fixedWeather("Fog, 9°C"))
	onLoop(t, f.loop, f.editor.StartNew)
	res := f.submit(t, "hard to say")
	require.NoError(t, res.err)
	assert.Equal(t, "Neutral", res.entry.Mood)

	onLoop(t, f.loop, func() {
		list, err := f.journal.ListEntries(f.sess)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Neutral", list[0].Mood)
	})
}

func TestEditKeepsIdentityDateAndWeather(t *testing.T) {
	f := newFixture(t, fixedMood("Very Positive"), fixedWeather("Sunny, 20°C"))
	existing := f.seed(t, now.AddDate(0, 0, -3), "old text", "Negative", "Snow, -2°C")
	onLoop(t, f.loop, func() { f.editor.StartEdit(*existing) })

	res := f.submit(t, "new text")
	require.NoError(t, res.err)
	assert.Equal(t, existing.ID, res.entry.ID)
	assert.True(t, entity.SameDay(existing.Date, res.entry.Date))
	assert.Equal(t, "Snow, -2°C", res.entry.Weather)
	assert.Equal(t, "Very Positive", res.entry.Mood)
	assert.Equal(t, "new text", res.entry.Content)
}

func TestSubmitGuards(t *testing.T) {
	release := make(chan struct{})
	analyzer := analyzerFunc(func(context.Context, string) (string, error) {
		<-release
		return "Positive", nil
	})
	f := newFixture(t, analyzer, fixedWeather("Sunny"))
	onLoop(t, f.loop, f.editor.StartNew)

	results := make(chan submitResult, 1)
	onLoop(t, f.loop, func() {
		assert.ErrorIs(t, f.editor.Submit("   ", nil), errorvalues.ErrEmptyContent)
		assert.NoError(t, f.editor.Submit("first", func(e *entity.Entry, err error) {
			results <- submitResult{entry: e, err: err}
		}))
		assert.True(t, f.editor.Submitting())
		assert.ErrorIs(t, f.editor.Submit("second", nil), errorvalues.ErrSubmitInProgress)
	})
	close(release)
	res := waitFor(t, results)
	require.NoError(t, res.err)
	onLoop(t, f.loop, func() { assert.False(t, f.editor.Submitting()) })

	onLoop(t, f.loop, func() {
		f.sess.End()
		assert.ErrorIs(t, f.editor.Submit("text", nil), errorvalues.ErrNotAuthenticated)
	})
}

func TestSubmittingResetAfterSaveError(t *testing.T) {
	f := newFixture(t, fixedMood("Positive"), fixedWeather("Sunny"))
	existing := f.seed(t, now.AddDate(0, 0, -1), "to be removed", "Neutral", "Unknown")
	onLoop(t, f.loop, func() {
		f.editor.StartEdit(*existing)
		require.NoError(t, f.journal.DeleteEntry(context.Background(), f.sess, existing.ID))
	})
	res := f.submit(t, "edit of a deleted entry")
	assert.ErrorIs(t, res.err, errorvalues.ErrEntryNotFound)
	onLoop(t, f.loop, func() {
		assert.False(t, f.editor.Submitting())
		assert.Equal(t, pipeline.ModeEdit, f.editor.State().Mode)
	})
}

func TestOpenToday(t *testing.T) {
	f := newFixture(t, fixedMood("Positive"), fixedWeather("Sunny"))
	onLoop(t, f.loop, func() {
		require.NoError(t, f.editor.OpenToday(now))
		assert.Equal(t, pipeline.ModeNew, f.editor.State().Mode)
	})
	today := f.seed(t, now, "already written", "Positive", "Sunny")
	onLoop(t, f.loop, func() {
		require.NoError(t, f.editor.OpenToday(now.Add(3*time.Hour)))
		entry, ok := f.editor.Editing()
		require.True(t, ok)
		assert.Equal(t, today.ID, entry.ID)

		f.sess.End()
		assert.ErrorIs(t, f.editor.OpenToday(now), errorvalues.ErrNotAuthenticated)
	})
}

func TestResetForgetsPreviousUser(t *testing.T) {
	f := newFixture(t, fixedMood("Neutral"), fixedWeather("Sunny"))
	private := f.seed(t, now.AddDate(0, 0, -2), "alice private text", "Negative", "Rain, 4°C")
	onLoop(t, f.loop, func() {
		f.editor.StartEdit(*private)
		f.sess.End()
		f.editor.Reset()
		f.sess.Begin(&entity.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"})

		st := f.editor.State()
		assert.Equal(t, pipeline.ModeIdle, st.Mode)
		assert.Nil(t, st.Entry)
		assert.Equal(t, entity.UnknownWeather, st.Weather)
		assert.False(t, st.WeatherPending)
	})
}

func TestSubmitNotSavedForAnotherUser(t *testing.T) {
	release := make(chan struct{})
	analyzer := analyzerFunc(func(context.Context, string) (string, error) {
		<-release
		return "Positive", nil
	})
	f := newFixture(t, analyzer, fixedWeather("Sunny"))
	onLoop(t, f.loop, f.editor.StartNew)

	results := make(chan submitResult, 1)
	onLoop(t, f.loop, func() {
		require.NoError(t, f.editor.Submit("alice writes", func(e *entity.Entry, err error) {
			results <- submitResult{entry: e, err: err}
		}))
		f.sess.End()
		f.editor.Reset()
		f.sess.Begin(&entity.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"})
	})
	close(release)
	res := waitFor(t, results)
	assert.ErrorIs(t, res.err, errorvalues.ErrNotAuthenticated)
	assert.Nil(t, res.entry)
	onLoop(t, f.loop, func() {
		list, err := f.journal.ListEntries(f.sess)
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.False(t, f.editor.Submitting())
	})
}

func TestNewEntryWhenTodayIsWritten(t *testing.T) {
	f := newFixture(t, fixedMood("Positive"), fixedWeather("Sunny"))
	today := f.seed(t, now, "morning notes", "Neutral", "Fog, 9°C")

	onLoop(t, f.loop, func() {
		f.editor.StartNew()
		st := f.editor.State()
		assert.Equal(t, pipeline.ModeEdit, st.Mode)
		require.NotNil(t, st.Entry)
		assert.Equal(t, today.ID, st.Entry.ID)
	})
	res := f.submit(t, "evening notes")
	require.NoError(t, res.err)
	assert.Equal(t, today.ID, res.entry.ID)
	assert.Equal(t, "Fog, 9°C", res.entry.Weather)

	// idle after the save, a further submit still lands on the same entry
	res = f.submit(t, "late night notes")
	require.NoError(t, res.err)
	assert.Equal(t, today.ID, res.entry.ID)

	onLoop(t, f.loop, func() {
		list, err := f.journal.ListEntries(f.sess)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "late night notes", list[0].Content)
	})
}
