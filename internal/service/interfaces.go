package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/limbo/journal/internal/session"
	"github.com/limbo/journal/pkg/entity"
)

type SignupRequest struct {
	Username string `validate:"required,alphanum_underscore,min=3,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
}

type UserServiceI interface {
	// Validates request, creates user and starts a session for them
	Signup(ctx context.Context, sess *session.Session, req *SignupRequest) (*entity.User, error)
	// Compares given credentials. If ok, starts a session and loads user's entries
	Login(ctx context.Context, sess *session.Session, email, password string) (*entity.User, error)
	Logout(sess *session.Session)
	CurrentUser(sess *session.Session) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// EntryRequest carries the caller-owned fields of an entry
type EntryRequest struct {
	Date    time.Time
	Content string
	Mood    string
	Weather string
}

type JournalServiceI interface {
	ListEntries(sess *session.Session) ([]entity.Entry, error)
	Refresh(ctx context.Context, sess *session.Session) error
	CreateEntry(ctx context.Context, sess *session.Session, req EntryRequest) (*entity.Entry, error)
	EditEntry(ctx context.Context, sess *session.Session, id uuid.UUID, req EntryRequest) (*entity.Entry, error)
	DeleteEntry(ctx context.Context, sess *session.Session, id uuid.UUID) error
	EntryForDate(sess *session.Session, day time.Time) (*entity.Entry, bool)
}
