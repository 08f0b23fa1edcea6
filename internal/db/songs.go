package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/mood"
)

// SongRepository handles song database operations.
type SongRepository struct {
	pool *pgxpool.Pool
}

// Insert stores a new song and returns it as persisted.
func (r *SongRepository) Insert(ctx context.Context, song catalog.Song) (catalog.Song, error) {
	query := `
		INSERT INTO songs (id, title, artist, audio_url, mood, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		song.ID,
		song.Title,
		song.Artist,
		song.AudioURL,
		string(song.Mood),
		song.CreatedAt,
		song.UpdatedAt,
	).Scan(&song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return catalog.Song{}, fmt.Errorf("inserting song: %w", err)
	}
	return song, nil
}

// FindByMood retrieves songs tagged with m in insertion order.
func (r *SongRepository) FindByMood(ctx context.Context, m mood.Mood) ([]catalog.Song, error) {
	query := `
		SELECT id, title, artist, audio_url, mood, created_at, updated_at
		FROM songs
		WHERE mood = $1
		ORDER BY seq
	`
	rows, err := r.pool.Query(ctx, query, string(m))
	if err != nil {
		return nil, fmt.Errorf("querying songs by mood: %w", err)
	}
	return scanSongs(rows)
}

// FindAll retrieves every song in insertion order.
func (r *SongRepository) FindAll(ctx context.Context) ([]catalog.Song, error) {
	query := `
		SELECT id, title, artist, audio_url, mood, created_at, updated_at
		FROM songs
		ORDER BY seq
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying songs: %w", err)
	}
	return scanSongs(rows)
}

func scanSongs(rows pgx.Rows) ([]catalog.Song, error) {
	defer rows.Close()

	songs := []catalog.Song{}
	for rows.Next() {
		var song catalog.Song
		var m string
		if err := rows.Scan(
			&song.ID,
			&song.Title,
			&song.Artist,
			&song.AudioURL,
			&m,
			&song.CreatedAt,
			&song.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		song.Mood = mood.Mood(m)
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

var _ catalog.Store = (*SongRepository)(nil)
