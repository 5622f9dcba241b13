// Package catalog keeps an index of sessions and their runs in Badger.
//
// The catalog is informational. Sampling, conversion and archiving never
// consult it, so a missing or damaged catalog does not affect captured data.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// ErrNotFound is returned when a session is not in the catalog.
var ErrNotFound = errors.New("catalog: session not found")

const keyPrefix = "session/"

// Entry describes one session.
type Entry struct {
	Name          string    `json:"name" yaml:"name"`
	Dir           string    `json:"dir" yaml:"dir"`
	Process       string    `json:"process,omitempty" yaml:"process,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	Runs          int       `json:"runs" yaml:"runs"`
	LastRunID     string    `json:"last_run_id,omitempty" yaml:"last_run_id,omitempty"`
	LastStartedAt time.Time `json:"last_started_at,omitempty" yaml:"last_started_at,omitempty"`
	LastStoppedAt time.Time `json:"last_stopped_at,omitempty" yaml:"last_stopped_at,omitempty"`
	ArchivedSaves int       `json:"archived_saves" yaml:"archived_saves"`
	// LastSave is the file name of the most recent archived save and
	// LastSaveChecksum its murmur3 hash.
	LastSave         string `json:"last_save,omitempty" yaml:"last_save,omitempty"`
	LastSaveChecksum string `json:"last_save_checksum,omitempty" yaml:"last_save_checksum,omitempty"`
}

// Config configures the catalog store.
type Config struct {
	// Dir is the Badger directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps the catalog in memory only.
	InMemory bool
}

// Store is a Badger-backed catalog.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens or creates the catalog.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("catalog: dir is required")
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger.With("component", "catalog")}
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func key(name string) []byte {
	return []byte(keyPrefix + name)
}

// Put stores e under its name, replacing any previous entry.
func (s *Store) Put(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("catalog: marshal: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(e.Name), data)
	})
}

// Get returns the entry for name.
func (s *Store) Get(name string) (Entry, error) {
	var e Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	return e, err
}

// Update applies fn to the entry for name inside one transaction. A missing
// entry is passed to fn as a zero Entry with Name set.
func (s *Store) Update(name string, fn func(*Entry)) error {
	return s.db.Update(func(txn *badger.Txn) error {
		e := Entry{Name: name}
		item, err := txn.Get(key(name))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		fn(&e)
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("catalog: marshal: %w", err)
		}
		return txn.Set(key(name), data)
	})
}

// List returns all entries ordered by creation time, oldest first.
func (s *Store) List() ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				s.logger.Warn("skipping unreadable catalog entry", "key", string(it.Item().Key()), "error", err)
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("catalog: close db: %w", err)
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
