package catalog

import (
	"context"
	"sync"

	"github.com/amanyadav21/moody-player/internal/mood"
)

// MemoryStore is an in-process Store, used for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	songs []Song
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert appends a song.
func (s *MemoryStore) Insert(_ context.Context, song Song) (Song, error) {
	s.mu.Lock()
	s.songs = append(s.songs, song)
	s.mu.Unlock()
	return song, nil
}

// FindByMood returns songs tagged with m.
func (s *MemoryStore) FindByMood(_ context.Context, m mood.Mood) ([]Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Song{}
	for _, song := range s.songs {
		if song.Mood == m {
			result = append(result, song)
		}
	}
	return result, nil
}

// FindAll returns every song.
func (s *MemoryStore) FindAll(_ context.Context) ([]Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Song, len(s.songs))
	copy(result, s.songs)
	return result, nil
}

var _ Store = (*MemoryStore)(nil)
