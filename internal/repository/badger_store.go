package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/journal/internal/error_values"
	"github.com/limbo/journal/pkg/cleanup"
	"github.com/limbo/journal/pkg/entity"
)

// BadgerStore keeps users and entries in an embedded BadgerDB as JSON values.
//
// Keys:
//
//	user/<id>               -> entity.User
//	user_email/<email>      -> user id
//	entry/<id>              -> entity.Entry
//	user_entry/<uid>/<id>   -> empty, per-user index
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dirPath string) *BadgerStore {
	opts := badger.DefaultOptions(dirPath).
		WithLoggingLevel(badger.ERROR)
	store, err := NewBadgerStoreWithOptions(opts)
	if err != nil {
		log.Fatal("opening badger store error: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing badger store",
		F:    store.Close,
	})
	return store
}

// NewBadgerStoreWithOptions is used by tests with in-memory options
func NewBadgerStoreWithOptions(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (bs *BadgerStore) Close() error {
	if bs.db != nil {
		return bs.db.Close()
	}
	return nil
}

func (bs *BadgerStore) Users() *BadgerUsersRepository {
	return &BadgerUsersRepository{db: bs.db}
}

func (bs *BadgerStore) Entries() *BadgerEntriesRepository {
	return &BadgerEntriesRepository{db: bs.db}
}

func userKey(id uuid.UUID) []byte {
	return []byte("user/" + id.String())
}

func emailKey(email string) []byte {
	return []byte("user_email/" + email)
}

func entryKey(id uuid.UUID) []byte {
	return []byte("entry/" + id.String())
}

func userEntriesPrefix(uid uuid.UUID) []byte {
	return []byte("user_entry/" + uid.String() + "/")
}

func userEntryKey(uid, id uuid.UUID) []byte {
	return append(userEntriesPrefix(uid), id.String()...)
}

func readJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return sonic.Unmarshal(val, dst)
	})
}

func writeJSON(txn *badger.Txn, key []byte, src any) error {
	data, err := sonic.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set(key, data)
}

type BadgerUsersRepository struct {
	db *badger.DB
}

func (ur *BadgerUsersRepository) Create(_ context.Context, user *entity.User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	candidate := *user
	candidate.ID = uuid.New()
	candidate.CreatedAt = time.Now().UTC()
	err := ur.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(emailKey(candidate.Email))
		if err == nil {
			return errorvalues.ErrUserExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(emailKey(candidate.Email), []byte(candidate.ID.String())); err != nil {
			return err
		}
		return writeJSON(txn, userKey(candidate.ID), &candidate)
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserExists) {
			return err
		}
		return errors.New("creating user db error: " + err.Error())
	}
	*user = candidate
	return nil
}

func (ur *BadgerUsersRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := ur.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		uid, err := uuid.ParseBytes(raw)
		if err != nil {
			return err
		}
		return readJSON(txn, userKey(uid), &user)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("searching user by email error: " + err.Error())
	}
	return &user, nil
}

func (ur *BadgerUsersRepository) FindByID(_ context.Context, uid uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := ur.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, userKey(uid), &user)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("searching user by id error: " + err.Error())
	}
	return &user, nil
}

func (ur *BadgerUsersRepository) Delete(_ context.Context, uid uuid.UUID) error {
	err := ur.db.Update(func(txn *badger.Txn) error {
		var user entity.User
		if err := readJSON(txn, userKey(uid), &user); err != nil {
			return err
		}
		if err := txn.Delete(emailKey(user.Email)); err != nil {
			return err
		}
		return txn.Delete(userKey(uid))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errorvalues.ErrUserNotFound
		}
		return errors.New("deleting user error: " + err.Error())
	}
	return nil
}

type BadgerEntriesRepository struct {
	db *badger.DB
}

func (er *BadgerEntriesRepository) Create(_ context.Context, entry *entity.Entry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	now := time.Now().UTC()
	candidate := *entry
	candidate.ID = uuid.New()
	candidate.Date = entity.Day(entry.Date)
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	err := er.db.Update(func(txn *badger.Txn) error {
		if err := writeJSON(txn, entryKey(candidate.ID), &candidate); err != nil {
			return err
		}
		return txn.Set(userEntryKey(candidate.UserID, candidate.ID), nil)
	})
	if err != nil {
		return errors.New("creating entry db error: " + err.Error())
	}
	*entry = candidate
	return nil
}

func (er *BadgerEntriesRepository) ListByUser(_ context.Context, uid uuid.UUID) ([]entity.Entry, error) {
	entries := make([]entity.Entry, 0)
	err := er.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := userEntriesPrefix(uid)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rawID := it.Item().Key()[len(prefix):]
			id, err := uuid.ParseBytes(rawID)
			if err != nil {
				return fmt.Errorf("broken index key %q: %w", it.Item().Key(), err)
			}
			var e entity.Entry
			if err := readJSON(txn, entryKey(id), &e); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New("getting entries by uid error: " + err.Error())
	}
	return entries, nil
}

func (er *BadgerEntriesRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.Entry, error) {
	var e entity.Entry
	err := er.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, entryKey(id), &e)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errorvalues.ErrEntryNotFound
		}
		return nil, errors.New("getting entry by id error: " + err.Error())
	}
	return &e, nil
}

func (er *BadgerEntriesRepository) Update(_ context.Context, entry *entity.Entry) error {
	err := er.db.Update(func(txn *badger.Txn) error {
		var stored entity.Entry
		if err := readJSON(txn, entryKey(entry.ID), &stored); err != nil {
			return err
		}
		stored.Date = entity.Day(entry.Date)
		stored.Content = entry.Content
		stored.Mood = entry.Mood
		stored.Weather = entry.Weather
		stored.UpdatedAt = time.Now().UTC()
		return writeJSON(txn, entryKey(entry.ID), &stored)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errorvalues.ErrEntryNotFound
		}
		return errors.New("error updating entry: " + err.Error())
	}
	return nil
}

func (er *BadgerEntriesRepository) Delete(_ context.Context, id uuid.UUID) error {
	err := er.db.Update(func(txn *badger.Txn) error {
		var stored entity.Entry
		if err := readJSON(txn, entryKey(id), &stored); err != nil {
			return err
		}
		if err := txn.Delete(userEntryKey(stored.UserID, id)); err != nil {
			return err
		}
		return txn.Delete(entryKey(id))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errorvalues.ErrEntryNotFound
		}
		return errors.New("error deleting entry: " + err.Error())
	}
	return nil
}
