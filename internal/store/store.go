package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	defaultBusyTimeout = 5 * time.Second
	openTimeout        = 5 * time.Second
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store: closed")

// Options describes how to open the recordings store.
type Options struct {
	Path string // Database file, created on first open
}

// Sound is one persisted recording row.
type Sound struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	AudioURI string `db:"audio_uri"`
}

// Store is an append-only log of completed recordings in SQLite.
type Store struct {
	path string

	// mu guards db against Close while writes are in flight
	mu sync.RWMutex
	db *sqlx.DB
}

// Open creates the database directory and file if needed and applies the
// schema.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("store: path is required")
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: opts.Path}, nil
}

func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", int(defaultBusyTimeout.Milliseconds())),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("store: apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS Sounds (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT,
	audio_uri TEXT
)`

func applySchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record appends one recording. Rows are never deduplicated.
func (s *Store) Record(ctx context.Context, name, audioURI string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return ErrClosed
	}

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO Sounds (name, audio_uri) VALUES (:name, :audio_uri)`,
		Sound{Name: name, AudioURI: audioURI})
	if err != nil {
		return fmt.Errorf("store: insert %q: %w", name, err)
	}

	return nil
}

// List returns the most recent recordings first. A limit of zero or less
// returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]Sound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrClosed
	}

	query := `SELECT id, name, audio_uri FROM Sounds ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var sounds []Sound
	if err := s.db.SelectContext(ctx, &sounds, query, args...); err != nil {
		return nil, fmt.Errorf("store: list sounds: %w", err)
	}

	return sounds, nil
}

// Close waits for running queries, then finalises the connection
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}
