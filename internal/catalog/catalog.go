// Package catalog holds song records and answers mood-filtered queries over them.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/amanyadav21/moody-player/internal/mood"
)

// MaxFieldLength is the maximum length, in characters, of a title or artist.
const MaxFieldLength = 100

// ErrUnavailable wraps any persistence-layer failure.
var ErrUnavailable = errors.New("catalog unavailable")

// Song is a playable catalog entry.
type Song struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	AudioURL  string    `json:"audioURL"`
	Mood      mood.Mood `json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists songs. Results are returned in insertion order.
type Store interface {
	Insert(ctx context.Context, song Song) (Song, error)
	FindByMood(ctx context.Context, m mood.Mood) ([]Song, error)
	FindAll(ctx context.Context) ([]Song, error)
}
