package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/limbo/journal/internal/error_values"
	"github.com/limbo/journal/pkg/cleanup"
	"github.com/limbo/journal/pkg/entity"
)

type EntriesRepository struct {
	conn PgConnection
}

func NewEntriesRepo(cfg DBConfig) *EntriesRepository {
	return &EntriesRepository{
		conn: newPool(cfg, "entriesRepo"),
	}
}

func NewEntriesRepoWithConn(conn PgConnection) *EntriesRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for entriesRepo: " + err.Error())
	}
	return &EntriesRepository{
		conn: conn,
	}
}

// newPool opens a pgxpool and registers its closing as cleanup job
func newPool(cfg DBConfig, owner string) *pgxpool.Pool {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for " + owner + " error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for " + owner + ": " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool of " + owner,
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return pool
}

func (er *EntriesRepository) Create(ctx context.Context, entry *entity.Entry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	row := er.conn.QueryRow(ctx, `INSERT INTO entries (user_id, entry_date, content, mood, weather)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at;`,
		entry.UserID,
		entity.Day(entry.Date),
		entry.Content,
		entry.Mood,
		entry.Weather,
	)
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return errors.New("creating entry db error: " + err.Error())
	}
	entry.Date = entity.Day(entry.Date)
	return nil
}

func (er *EntriesRepository) ListByUser(ctx context.Context, uid uuid.UUID) ([]entity.Entry, error) {
	entries := make([]entity.Entry, 0)
	rows, err := er.conn.Query(ctx, `SELECT id, user_id, entry_date, content, mood, weather, created_at, updated_at
		FROM entries WHERE user_id = $1;`, uid)
	if err != nil {
		return nil, errors.New("getting entries by uid error: " + err.Error())
	}
	defer rows.Close()
	for rows.Next() {
		e := entity.Entry{}
		err = rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Content, &e.Mood, &e.Weather, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling entry error: " + err.Error())
		}
		e.Date = entity.Day(e.Date)
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.New("unexpected error after scanning: " + err.Error())
	}
	return entries, nil
}

func (er *EntriesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Entry, error) {
	var e entity.Entry
	e.ID = id
	row := er.conn.QueryRow(ctx, `SELECT user_id, entry_date, content, mood, weather, created_at, updated_at
		FROM entries WHERE id = $1;`, id)
	if err := row.Scan(&e.UserID, &e.Date, &e.Content, &e.Mood, &e.Weather, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrEntryNotFound
		}
		return nil, errors.New("getting entry by id error: " + err.Error())
	}
	e.Date = entity.Day(e.Date)
	return &e, nil
}

func (er *EntriesRepository) Update(ctx context.Context, entry *entity.Entry) error {
	ct, err := er.conn.Exec(ctx, `UPDATE entries SET entry_date = $1, content = $2, mood = $3, weather = $4, updated_at = NOW()
		WHERE id = $5;`,
		entity.Day(entry.Date), entry.Content, entry.Mood, entry.Weather, entry.ID,
	)
	if err != nil {
		return errors.New("error updating entry: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrEntryNotFound
	}
	return nil
}

func (er *EntriesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := er.conn.Exec(ctx, `DELETE FROM entries WHERE id = $1;`, id)
	if err != nil {
		return errors.New("error deleting entry: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrEntryNotFound
	}
	return nil
}
