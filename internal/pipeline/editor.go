package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/journal/internal/error_values"
	"github.com/limbo/journal/internal/service"
	"github.com/limbo/journal/internal/session"
	"github.com/limbo/journal/pkg/entity"
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeNew
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeNew:
		return "new"
	case ModeEdit:
		return "edit"
	default:
		return "idle"
	}
}

// EntrySaver is the part of the journal the editor writes through
type EntrySaver interface {
	CreateEntry(ctx context.Context, sess *session.Session, req service.EntryRequest) (*entity.Entry, error)
	EditEntry(ctx context.Context, sess *session.Session, id uuid.UUID, req service.EntryRequest) (*entity.Entry, error)
	EntryForDate(sess *session.Session, day time.Time) (*entity.Entry, bool)
}

type EditorState struct {
	Mode Mode
	// Entry being edited, nil in other modes
	Entry          *entity.Entry
	Weather        string
	WeatherPending bool
	Submitting     bool
}

const saveTimeout = 10 * time.Second

// Editor drives writing a new entry or changing an existing one.
// All methods must be called on the loop.
//
// Every Start* call bumps generation. Background results carry the
// generation they were requested under and are dropped when it moved on.
type Editor struct {
	pipeline *Pipeline
	journal  EntrySaver
	sess     *session.Session
	clock    func() time.Time
	logger   *slog.Logger

	mode           Mode
	generation     uint64
	editing        *entity.Entry
	weather        string
	weatherPending bool
	submitting     bool
}

func NewEditor(p *Pipeline, journal EntrySaver, sess *session.Session, clock func() time.Time) *Editor {
	if clock == nil {
		clock = time.Now
	}
	return &Editor{
		pipeline: p,
		journal:  journal,
		sess:     sess,
		clock:    clock,
		logger:   p.logger,
		weather:  entity.UnknownWeather,
	}
}

// StartNew prepares a blank entry and asks for the current weather. When
// today already has an entry, that entry is opened for editing instead.
func (e *Editor) StartNew() {
	if entry, ok := e.journal.EntryForDate(e.sess, e.clock()); ok {
		e.StartEdit(*entry)
		return
	}
	e.startBlank()
}

func (e *Editor) startBlank() {
	e.generation++
	gen := e.generation
	e.mode = ModeNew
	e.editing = nil
	e.weather = entity.UnknownWeather
	e.weatherPending = true
	e.pipeline.FetchWeather(func(weather string) {
		if gen != e.generation || e.mode != ModeNew {
			e.logger.Debug("stale weather result dropped",
				slog.Uint64("requested", gen),
				slog.Uint64("current", e.generation),
			)
			return
		}
		e.weather = weather
		e.weatherPending = false
	})
}

// StartEdit switches to an existing entry. Its stored weather is kept as is.
func (e *Editor) StartEdit(entry entity.Entry) {
	e.generation++
	e.mode = ModeEdit
	e.editing = &entry
	e.weather = entry.Weather
	e.weatherPending = false
}

// OpenToday edits the entry written on now's date or starts a new one.
func (e *Editor) OpenToday(now time.Time) error {
	if !e.sess.HasActiveUser() {
		return errorvalues.ErrNotAuthenticated
	}
	if entry, ok := e.journal.EntryForDate(e.sess, now); ok {
		e.StartEdit(*entry)
		return nil
	}
	e.startBlank()
	return nil
}

// Reset drops whatever was being written. Pending weather results become
// stale. A submit already in flight still finishes but is not saved for
// a different user.
func (e *Editor) Reset() {
	e.generation++
	e.mode = ModeIdle
	e.editing = nil
	e.weather = entity.UnknownWeather
	e.weatherPending = false
}

func (e *Editor) Editing() (entity.Entry, bool) {
	if e.mode != ModeEdit || e.editing == nil {
		return entity.Entry{}, false
	}
	return *e.editing, true
}

func (e *Editor) Weather() string {
	return e.weather
}

func (e *Editor) Submitting() bool {
	return e.submitting
}

func (e *Editor) State() EditorState {
	st := EditorState{
		Mode:           e.mode,
		Weather:        e.weather,
		WeatherPending: e.weatherPending,
		Submitting:     e.submitting,
	}
	if entry, ok := e.Editing(); ok {
		st.Entry = &entry
	}
	return st
}

// Submit classifies content and then saves it. Validation problems are
// returned right away; otherwise done receives the outcome on the loop.
// A new entry is dated today. An edited one keeps its date and weather.
// Outside edit mode an entry already written today is edited instead.
func (e *Editor) Submit(content string, done func(*entity.Entry, error)) error {
	if strings.TrimSpace(content) == "" {
		return errorvalues.ErrEmptyContent
	}
	uid, err := e.sess.UserID()
	if err != nil {
		return err
	}
	if e.submitting {
		return errorvalues.ErrSubmitInProgress
	}
	if e.mode != ModeEdit {
		// one entry per day, today's entry is rewritten rather than duplicated
		if entry, ok := e.journal.EntryForDate(e.sess, e.clock()); ok {
			e.StartEdit(*entry)
		}
	}
	e.submitting = true
	gen := e.generation
	mode := e.mode
	var original entity.Entry
	if mode == ModeEdit {
		original = *e.editing
	}
	weatherAtSubmit := e.weather

	e.pipeline.ClassifyMood(content, func(mood string) {
		var (
			saved *entity.Entry
			err   error
		)
		defer func() {
			e.submitting = false
			if done != nil {
				done(saved, err)
			}
		}()
		if current, uerr := e.sess.UserID(); uerr != nil || current != uid {
			err = errorvalues.ErrNotAuthenticated
			e.logger.Warn("entry not saved, session user changed", slog.String("mode", mode.String()))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if mode == ModeEdit {
			saved, err = e.journal.EditEntry(ctx, e.sess, original.ID, service.EntryRequest{
				Date:    original.Date,
				Content: content,
				Mood:    mood,
				Weather: original.Weather,
			})
		} else {
			weather := weatherAtSubmit
			if gen == e.generation {
				// weather may have arrived while classifying
				weather = e.weather
			}
			saved, err = e.journal.CreateEntry(ctx, e.sess, service.EntryRequest{
				Date:    e.clock(),
				Content: content,
				Mood:    mood,
				Weather: weather,
			})
		}
		if err != nil {
			e.logger.Error("saving entry failed", slog.String("mode", mode.String()), slog.String("error", err.Error()))
			return
		}
		if gen == e.generation {
			e.generation++
			e.mode = ModeIdle
			e.editing = nil
			e.weatherPending = false
		}
	})
	return nil
}
