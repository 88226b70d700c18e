package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/limbo/journal/pkg/entity"
)

type UsersRepositoryI interface {
	// Creates new user. ID and CreatedAt are filled in on success
	Create(ctx context.Context, user *entity.User) error
	// Looks up user by email. Used for login
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// Looks up user by uid. Can be used for authorization middleware
	FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error)
	// Deletes user
	Delete(ctx context.Context, uid uuid.UUID) error
}

// EntriesRepositoryI is the durable storage behind the journal. It does not
// enforce one entry per day, callers do.
type EntriesRepositoryI interface {
	// Appends new entry. ID, CreatedAt and UpdatedAt are filled in on success
	Create(ctx context.Context, entry *entity.Entry) error
	// Lists every entry owned by user with uid, in no particular order
	ListByUser(ctx context.Context, uid uuid.UUID) ([]entity.Entry, error)
	// Searches entry with given id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Entry, error)
	// Replaces date, content, mood and weather of entry with entry.ID
	Update(ctx context.Context, entry *entity.Entry) error
	// Deletes entry with id
	Delete(ctx context.Context, id uuid.UUID) error
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
