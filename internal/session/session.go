// Package session holds who is logged in and the cached copy of their entries.
//
// A Session is not safe for concurrent use. Every read and write is expected
// to happen on the pipeline loop, which serializes them.
package session

import (
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/journal/internal/error_values"
	"github.com/limbo/journal/pkg/entity"
)

type Session struct {
	user    *entity.User
	entries []entity.Entry
}

func New() *Session {
	return &Session{}
}

// Begin makes user the current one and drops any cached entries.
func (s *Session) Begin(user *entity.User) {
	u := *user
	s.user = &u
	s.entries = nil
}

// End forgets the current user and the cache.
func (s *Session) End() {
	s.user = nil
	s.entries = nil
}

func (s *Session) HasActiveUser() bool {
	return s.user != nil
}

func (s *Session) CurrentUsername() (string, bool) {
	if s.user == nil {
		return "", false
	}
	return s.user.Username, true
}

// User returns a copy of the current user or ErrNotAuthenticated.
func (s *Session) User() (*entity.User, error) {
	if s.user == nil {
		return nil, errorvalues.ErrNotAuthenticated
	}
	u := *s.user
	return &u, nil
}

func (s *Session) UserID() (uuid.UUID, error) {
	if s.user == nil {
		return uuid.Nil, errorvalues.ErrNotAuthenticated
	}
	return s.user.ID, nil
}

// Entries returns a copy of the cache, in the order it was loaded.
func (s *Session) Entries() []entity.Entry {
	out := make([]entity.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Session) SetEntries(entries []entity.Entry) {
	s.entries = make([]entity.Entry, len(entries))
	copy(s.entries, entries)
}

func (s *Session) Find(id uuid.UUID) (entity.Entry, bool) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return entity.Entry{}, false
}

// OnDate returns the first cached entry written on the same calendar day.
func (s *Session) OnDate(day time.Time) (entity.Entry, bool) {
	for _, e := range s.entries {
		if entity.SameDay(e.Date, day) {
			return e, true
		}
	}
	return entity.Entry{}, false
}
