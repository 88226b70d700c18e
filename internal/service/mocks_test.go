package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/journal/internal/error_values"
	"github.com/limbo/journal/pkg/entity"
)

type mockState int

const (
	stateSuccess mockState = iota
	stateDBError
	stateNotFoundError
	stateExistsError
	// only listing fails, writes go through
	stateListError
)

// entriesRepoMock keeps entries in memory unless state forces a failure
type entriesRepoMock struct {
	state   mockState
	entries map[uuid.UUID]entity.Entry
	issued  map[uuid.UUID]bool
}

func newEntriesRepoMock() *entriesRepoMock {
	return &entriesRepoMock{
		entries: make(map[uuid.UUID]entity.Entry),
		issued:  make(map[uuid.UUID]bool),
	}
}

func (m *entriesRepoMock) Create(ctx context.Context, entry *entity.Entry) error {
	if m.state == stateDBError {
		return errors.New("db error")
	}
	entry.ID = uuid.New()
	for m.issued[entry.ID] {
		entry.ID = uuid.New()
	}
	m.issued[entry.ID] = true
	entry.Date = entity.Day(entry.Date)
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	m.entries[entry.ID] = *entry
	return nil
}

func (m *entriesRepoMock) ListByUser(ctx context.Context, uid uuid.UUID) ([]entity.Entry, error) {
	if m.state == stateDBError || m.state == stateListError {
		return nil, errors.New("db error")
	}
	out := make([]entity.Entry, 0)
	for _, e := range m.entries {
		if e.UserID == uid {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *entriesRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*entity.Entry, error) {
	switch m.state {
	case stateDBError:
		return nil, errors.New("db error")
	case stateNotFoundError:
		return nil, errorvalues.ErrEntryNotFound
	}
	e, ok := m.entries[id]
	if !ok {
		return nil, errorvalues.ErrEntryNotFound
	}
	return &e, nil
}

func (m *entriesRepoMock) Update(ctx context.Context, entry *entity.Entry) error {
	if m.state == stateDBError {
		return errors.New("db error")
	}
	stored, ok := m.entries[entry.ID]
	if !ok {
		return errorvalues.ErrEntryNotFound
	}
	stored.Date = entity.Day(entry.Date)
	stored.Content = entry.Content
	stored.Mood = entry.Mood
	stored.Weather = entry.Weather
	stored.UpdatedAt = time.Now()
	m.entries[entry.ID] = stored
	return nil
}

func (m *entriesRepoMock) Delete(ctx context.Context, id uuid.UUID) error {
	if m.state == stateDBError {
		return errors.New("db error")
	}
	if _, ok := m.entries[id]; !ok {
		return errorvalues.ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

type usersRepoMock struct {
	state mockState
	users map[string]entity.User
}

func newUsersRepoMock() *usersRepoMock {
	return &usersRepoMock{users: make(map[string]entity.User)}
}

func (m *usersRepoMock) Create(ctx context.Context, user *entity.User) error {
	switch m.state {
	case stateDBError:
		return errors.New("db error")
	case stateExistsError:
		return errorvalues.ErrUserExists
	}
	if _, ok := m.users[user.Email]; ok {
		return errorvalues.ErrUserExists
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	m.users[user.Email] = *user
	return nil
}

func (m *usersRepoMock) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.state == stateDBError {
		return nil, errors.New("db error")
	}
	u, ok := m.users[email]
	if !ok {
		return nil, errorvalues.ErrUserNotFound
	}
	return &u, nil
}

func (m *usersRepoMock) FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error) {
	if m.state == stateDBError {
		return nil, errors.New("db error")
	}
	for _, u := range m.users {
		if u.ID == uid {
			return &u, nil
		}
	}
	return nil, errorvalues.ErrUserNotFound
}

func (m *usersRepoMock) Delete(ctx context.Context, uid uuid.UUID) error {
	if m.state == stateDBError {
		return errors.New("db error")
	}
	for email, u := range m.users {
		if u.ID == uid {
			delete(m.users, email)
			return nil
		}
	}
	return errorvalues.ErrUserNotFound
}
