package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/journal/internal/error_values"
	"github.com/limbo/journal/internal/repository"
	"github.com/limbo/journal/internal/session"
	"github.com/limbo/journal/pkg/entity"
)

// JournalService keeps one user's entries in durable storage and mirrors
// them into the session after every change. Callers serialize access.
type JournalService struct {
	repo repository.EntriesRepositoryI
}

func NewJournalService(entriesRepo repository.EntriesRepositoryI) *JournalService {
	if entriesRepo == nil {
		log.Fatal("provided nil entriesRepo")
	}
	return &JournalService{
		repo: entriesRepo,
	}
}

func (js *JournalService) ListEntries(sess *session.Session) ([]entity.Entry, error) {
	if !sess.HasActiveUser() {
		return nil, errorvalues.ErrNotAuthenticated
	}
	return sess.Entries(), nil
}

func (js *JournalService) Refresh(ctx context.Context, sess *session.Session) error {
	uid, err := sess.UserID()
	if err != nil {
		return err
	}
	entries, err := js.repo.ListByUser(ctx, uid)
	if err != nil {
		return errors.New("entries repository error: " + err.Error())
	}
	sess.SetEntries(entries)
	return nil
}

func normalize(req EntryRequest) (EntryRequest, error) {
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return req, errorvalues.ErrEmptyContent
	}
	req.Mood = strings.TrimSpace(req.Mood)
	if req.Mood == "" {
		req.Mood = entity.DefaultMood
	}
	req.Weather = strings.TrimSpace(req.Weather)
	if req.Weather == "" {
		req.Weather = entity.UnknownWeather
	}
	req.Date = entity.Day(req.Date)
	return req, nil
}

func (js *JournalService) CreateEntry(ctx context.Context, sess *session.Session, req EntryRequest) (*entity.Entry, error) {
	uid, err := sess.UserID()
	if err != nil {
		return nil, err
	}
	req, err = normalize(req)
	if err != nil {
		return nil, err
	}
	entry := entity.Entry{
		UserID:  uid,
		Date:    req.Date,
		Content: req.Content,
		Mood:    req.Mood,
		Weather: req.Weather,
	}
	if err = js.repo.Create(ctx, &entry); err != nil {
		return nil, errors.New("entries repository error: " + err.Error())
	}
	js.settle(ctx, sess, func(cached []entity.Entry) []entity.Entry {
		return append(cached, entry)
	})
	return &entry, nil
}

// EditEntry replaces everything but the id. Entries of other users are
// reported as not found.
func (js *JournalService) EditEntry(ctx context.Context, sess *session.Session, id uuid.UUID, req EntryRequest) (*entity.Entry, error) {
	uid, err := sess.UserID()
	if err != nil {
		return nil, err
	}
	req, err = normalize(req)
	if err != nil {
		return nil, err
	}
	entry, err := js.owned(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	entry.Date = req.Date
	entry.Content = req.Content
	entry.Mood = req.Mood
	entry.Weather = req.Weather
	if err = js.repo.Update(ctx, entry); err != nil {
		if errors.Is(err, errorvalues.ErrEntryNotFound) {
			return nil, err
		}
		return nil, errors.New("entries repository error: " + err.Error())
	}
	js.settle(ctx, sess, func(cached []entity.Entry) []entity.Entry {
		for i := range cached {
			if cached[i].ID == id {
				cached[i] = *entry
			}
		}
		return cached
	})
	if updated, ok := sess.Find(id); ok {
		return &updated, nil
	}
	return entry, nil
}

func (js *JournalService) DeleteEntry(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	uid, err := sess.UserID()
	if err != nil {
		return err
	}
	if _, err = js.owned(ctx, uid, id); err != nil {
		return err
	}
	if err = js.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, errorvalues.ErrEntryNotFound) {
			return err
		}
		return errors.New("entries repository error: " + err.Error())
	}
	js.settle(ctx, sess, func(cached []entity.Entry) []entity.Entry {
		kept := cached[:0]
		for _, e := range cached {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		return kept
	})
	return nil
}

// settle runs after a write has reached storage, so it never fails the
// write. When the reload fails the cache is patched in place instead.
func (js *JournalService) settle(ctx context.Context, sess *session.Session, patch func([]entity.Entry) []entity.Entry) {
	if err := js.Refresh(ctx, sess); err != nil {
		slog.Warn("reloading entries after write failed, patching cache", slog.String("error", err.Error()))
		sess.SetEntries(patch(sess.Entries()))
	}
}

// EntryForDate looks up the cache for an entry written on day.
func (js *JournalService) EntryForDate(sess *session.Session, day time.Time) (*entity.Entry, bool) {
	if !sess.HasActiveUser() {
		return nil, false
	}
	e, ok := sess.OnDate(day)
	if !ok {
		return nil, false
	}
	return &e, true
}

func (js *JournalService) owned(ctx context.Context, uid, id uuid.UUID) (*entity.Entry, error) {
	entry, err := js.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrEntryNotFound) {
			return nil, err
		}
		return nil, errors.New("entries repository error: " + err.Error())
	}
	if entry.UserID != uid {
		return nil, errorvalues.ErrEntryNotFound
	}
	return entry, nil
}
