package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/mood"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteStore is a catalog.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		conn.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	store := NewSQLiteStore(conn)
	if err := store.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an existing connection. The schema is not applied.
func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn}
}

// Migrate creates the catalog tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert stores a new song.
func (s *SQLiteStore) Insert(ctx context.Context, song catalog.Song) (catalog.Song, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO songs (id, title, artist, audio_url, mood, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		song.ID.String(),
		song.Title,
		song.Artist,
		song.AudioURL,
		string(song.Mood),
		song.CreatedAt.UTC().Format(time.RFC3339Nano),
		song.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return catalog.Song{}, fmt.Errorf("insert song: %w", err)
	}
	return song, nil
}

// FindByMood returns songs tagged with m in insertion order.
func (s *SQLiteStore) FindByMood(ctx context.Context, m mood.Mood) ([]catalog.Song, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, artist, audio_url, mood, created_at, updated_at
		FROM songs WHERE mood = ? ORDER BY seq`,
		string(m),
	)
	if err != nil {
		return nil, fmt.Errorf("query songs by mood: %w", err)
	}
	return scanSQLiteSongs(rows)
}

// FindAll returns every song in insertion order.
func (s *SQLiteStore) FindAll(ctx context.Context) ([]catalog.Song, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, artist, audio_url, mood, created_at, updated_at
		FROM songs ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	return scanSQLiteSongs(rows)
}

func scanSQLiteSongs(rows *sql.Rows) ([]catalog.Song, error) {
	defer rows.Close()

	songs := []catalog.Song{}
	for rows.Next() {
		var (
			song             catalog.Song
			id, m            string
			created, updated string
		)
		if err := rows.Scan(&id, &song.Title, &song.Artist, &song.AudioURL, &m, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}

		parsedID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse song id %q: %w", id, err)
		}
		song.ID = parsedID
		song.Mood = mood.Mood(m)
		if song.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if song.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

var _ catalog.Store = (*SQLiteStore)(nil)
