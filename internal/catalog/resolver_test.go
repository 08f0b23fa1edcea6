package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanyadav21/moody-player/internal/mood"
)

// failingStore returns err from every read and counts calls.
type failingStore struct {
	err   error
	calls atomic.Int32
}

func (f *failingStore) Insert(_ context.Context, s Song) (Song, error) { return s, f.err }

func (f *failingStore) FindByMood(context.Context, mood.Mood) ([]Song, error) {
	f.calls.Add(1)
	return nil, f.err
}

func (f *failingStore) FindAll(context.Context) ([]Song, error) {
	f.calls.Add(1)
	return nil, f.err
}

func seed(t *testing.T, store Store, moods ...mood.Mood) []Song {
	t.Helper()
	var songs []Song
	now := time.Now()
	for i, m := range moods {
		s, err := store.Insert(context.Background(), Song{
			ID:        uuid.New(),
			Title:     "Song " + string(rune('A'+i)),
			Artist:    "Artist",
			AudioURL:  "https://cdn.example.com/songs/" + string(rune('a'+i)) + ".mp3",
			Mood:      m,
			CreatedAt: now,
			UpdatedAt: now,
		})
		require.NoError(t, err)
		songs = append(songs, s)
	}
	return songs
}

func TestResolve_NoMoodReturnsAll(t *testing.T) {
	store := NewMemoryStore()
	songs := seed(t, store, mood.Happy, mood.Sad)

	res, err := NewResolver(store).Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, songs, res.Songs)
}

func TestResolve_MatchesOnly(t *testing.T) {
	store := NewMemoryStore()
	songs := seed(t, store, mood.Happy, mood.Sad, mood.Happy)

	res, err := NewResolver(store).Resolve(context.Background(), mood.Happy)
	require.NoError(t, err)
	assert.False(t, res.UsedFallback)
	require.Len(t, res.Songs, 2)
	assert.Equal(t, songs[0].ID, res.Songs[0].ID)
	assert.Equal(t, songs[2].ID, res.Songs[1].ID)
	for _, s := range res.Songs {
		assert.Equal(t, mood.Happy, s.Mood)
	}
}

func TestResolve_FallbackToFullCatalog(t *testing.T) {
	store := NewMemoryStore()
	songs := seed(t, store, mood.Neutral, mood.Neutral, mood.Neutral)

	res, err := NewResolver(store).Resolve(context.Background(), mood.Angry)
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, songs, res.Songs)
}

func TestResolve_FallbackNonePolicy(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, mood.Neutral)

	r := NewResolver(store, WithFallbackPolicy(FallbackNone))
	res, err := r.Resolve(context.Background(), mood.Angry)
	require.NoError(t, err)
	assert.False(t, res.UsedFallback)
	assert.NotNil(t, res.Songs)
	assert.Empty(t, res.Songs)
}

func TestResolve_EmptyCatalogFallback(t *testing.T) {
	res, err := NewResolver(NewMemoryStore()).Resolve(context.Background(), mood.Sad)
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)
	assert.NotNil(t, res.Songs)
	assert.Empty(t, res.Songs)
}

func TestResolve_StoreErrorIsUnavailable(t *testing.T) {
	dbErr := errors.New("connection refused")
	store := &failingStore{err: dbErr}

	_, err := NewResolver(store).Resolve(context.Background(), mood.Happy)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, int32(1), store.calls.Load(), "resolver must not retry")

	_, err = NewResolver(store).All(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParseFallbackPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FallbackPolicy
		wantErr bool
	}{
		{"", FallbackFullCatalog, false},
		{"fullCatalog", FallbackFullCatalog, false},
		{"none", FallbackNone, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFallbackPolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
