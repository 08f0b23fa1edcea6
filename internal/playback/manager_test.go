package playback

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/mood"
)

type fakeHandle struct {
	mu       sync.Mutex
	url      string
	ended    func()
	starts   int
	stops    int
	released bool
	playing  bool
	startErr error
}

func (h *fakeHandle) Start(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.startErr != nil {
		return h.startErr
	}
	h.starts++
	h.playing = true
	return nil
}

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.playing {
		h.stops++
	}
	h.playing = false
	return nil
}

func (h *fakeHandle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = true
	return nil
}

func (h *fakeHandle) isPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

type fakeOpener struct {
	mu      sync.Mutex
	handles map[string]*fakeHandle
	fail    map[string]error
	opens   int
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{handles: map[string]*fakeHandle{}, fail: map[string]error{}}
}

func (o *fakeOpener) open(url string, ended func()) (Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	if err := o.fail[url]; err != nil {
		return nil, err
	}
	h := &fakeHandle{url: url, ended: ended}
	o.handles[url] = h
	return h, nil
}

func (o *fakeOpener) handle(url string) *fakeHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handles[url]
}

func testSongs(n int) []catalog.Song {
	out := make([]catalog.Song, n)
	for i := range out {
		out[i] = catalog.Song{
			ID:       uuid.New(),
			Title:    "Song " + string(rune('A'+i)),
			Artist:   "Artist",
			Mood:     mood.Happy,
			AudioURL: "https://cdn.example.com/" + string(rune('a'+i)) + ".mp3",
		}
	}
	return out
}

func TestToggle_OnlyOnePlays(t *testing.T) {
	o := newFakeOpener()
	m := NewManager(o.open)
	songs := testSongs(3)
	ctx := context.Background()

	require.NoError(t, m.Toggle(ctx, 0, songs[0]))
	require.NoError(t, m.Toggle(ctx, 2, songs[2]))

	assert.False(t, o.handle(songs[0].AudioURL).isPlaying())
	assert.True(t, o.handle(songs[2].AudioURL).isPlaying())
	assert.Equal(t, Idle, m.State(songs[0].ID))
	assert.Equal(t, Playing, m.State(songs[2].ID))
	assert.Equal(t, Idle, m.State(songs[1].ID))

	id, ok := m.Playing()
	assert.True(t, ok)
	assert.Equal(t, songs[2].ID, id)
	assert.Equal(t, 2, m.Len(), "resources are created lazily")
}

func TestToggle_PausesPlayingSong(t *testing.T) {
	o := newFakeOpener()
	m := NewManager(o.open)
	song := testSongs(1)[0]
	ctx := context.Background()

	require.NoError(t, m.Toggle(ctx, 0, song))
	require.NoError(t, m.Toggle(ctx, 0, song))

	h := o.handle(song.AudioURL)
	assert.False(t, h.isPlaying())
	assert.Equal(t, Idle, m.State(song.ID))
	_, ok := m.Playing()
	assert.False(t, ok)

	// resuming reuses the same resource
	require.NoError(t, m.Toggle(ctx, 0, song))
	assert.True(t, h.isPlaying())
	assert.Equal(t, 2, h.starts)
	assert.Equal(t, 1, o.opens)
}

func TestToggle_KeyedByID(t *testing.T) {
	o := newFakeOpener()
	m := NewManager(o.open)
	songs := testSongs(2)
	ctx := context.Background()

	require.NoError(t, m.Toggle(ctx, 0, songs[0]))
	// the list was reordered; the same song at a new index is still a pause
	require.NoError(t, m.Toggle(ctx, 1, songs[0]))
	assert.Equal(t, Idle, m.State(songs[0].ID))
	assert.Equal(t, 1, o.opens)
}

func TestToggle_FailureIsIsolated(t *testing.T) {
	o := newFakeOpener()
	songs := testSongs(3)
	o.fail[songs[1].AudioURL] = errors.New("unsupported codec")

	var mu sync.Mutex
	var events []Event
	m := NewManager(o.open, WithListener(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))
	ctx := context.Background()

	require.NoError(t, m.Toggle(ctx, 0, songs[0]))

	err := m.Toggle(ctx, 1, songs[1])
	require.Error(t, err)
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, songs[1].ID, pe.SongID)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, "open", pe.Op)
	assert.Equal(t, "Error playing audio file", pe.Message())
	assert.Equal(t, Errored, m.State(songs[1].ID))

	// other songs still play
	require.NoError(t, m.Toggle(ctx, 2, songs[2]))
	assert.Equal(t, Playing, m.State(songs[2].ID))

	mu.Lock()
	defer mu.Unlock()
	var states []State
	for _, ev := range events {
		states = append(states, ev.State)
	}
	assert.Equal(t, []State{Playing, Idle, Errored, Playing}, states)
}

func TestToggle_StartFailure(t *testing.T) {
	o := newFakeOpener()
	m := NewManager(func(url string, ended func()) (Handle, error) {
		return &fakeHandle{startErr: errors.New("device busy")}, nil
	})
	song := testSongs(1)[0]

	err := m.Toggle(context.Background(), 4, song)
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "start", pe.Op)
	assert.Equal(t, "Cannot play this audio file", pe.Message())
	assert.Equal(t, Errored, m.State(song.ID))
	assert.Zero(t, o.opens)
}

func TestEnded_ReturnsToIdle(t *testing.T) {
	o := newFakeOpener()
	ended := make(chan Event, 4)
	m := NewManager(o.open, WithListener(func(ev Event) {
		if ev.Ended {
			ended <- ev
		}
	}))
	song := testSongs(1)[0]

	require.NoError(t, m.Toggle(context.Background(), 0, song))
	o.handle(song.AudioURL).ended()

	select {
	case ev := <-ended:
		assert.Equal(t, song.ID, ev.SongID)
		assert.Equal(t, Idle, ev.State)
	case <-time.After(time.Second):
		t.Fatal("no ended event")
	}
	assert.Equal(t, Idle, m.State(song.ID))
	_, ok := m.Playing()
	assert.False(t, ok)

	// a late end after pause is ignored
	o.handle(song.AudioURL).ended()
	assert.Len(t, ended, 0)
}

func TestClose_ReleasesAll(t *testing.T) {
	o := newFakeOpener()
	m := NewManager(o.open)
	songs := testSongs(2)
	ctx := context.Background()

	require.NoError(t, m.Toggle(ctx, 0, songs[0]))
	require.NoError(t, m.Toggle(ctx, 1, songs[1]))
	require.NoError(t, m.Close())

	for _, s := range songs {
		h := o.handle(s.AudioURL)
		assert.True(t, h.released)
		assert.False(t, h.isPlaying())
	}
	assert.Zero(t, m.Len())
	assert.ErrorIs(t, m.Toggle(ctx, 0, songs[0]), ErrClosed)
	assert.NoError(t, m.Close())
}

func TestCommandPlayer_MissingBinary(t *testing.T) {
	p := NewCommandPlayer(WithBinary("definitely-not-a-player-binary"))
	_, err := p.Open("https://cdn.example.com/a.mp3", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = NewCommandPlayer().Open("", nil)
	require.Error(t, err)
}

func TestCommandPlayer_ProcessLifecycle(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	t.Run("natural exit reports ended", func(t *testing.T) {
		ended := make(chan struct{}, 1)
		p := NewCommandPlayer(WithBinary("sh"), WithArgs("-c", "exit 0"))
		h, err := p.Open("audio.mp3", func() { ended <- struct{}{} })
		require.NoError(t, err)
		require.NoError(t, h.Start(context.Background()))

		select {
		case <-ended:
		case <-time.After(5 * time.Second):
			t.Fatal("ended not called")
		}
		require.NoError(t, h.Release())
	})

	t.Run("stop does not report ended", func(t *testing.T) {
		ended := make(chan struct{}, 1)
		p := NewCommandPlayer(WithBinary("sh"), WithArgs("-c", "sleep 30"))
		h, err := p.Open("audio.mp3", func() { ended <- struct{}{} })
		require.NoError(t, err)
		require.NoError(t, h.Start(context.Background()))
		require.NoError(t, h.Start(context.Background()), "start while running is a no-op")

		require.NoError(t, h.Stop())
		require.NoError(t, h.Stop())
		assert.Len(t, ended, 0)

		require.NoError(t, h.Release())
		assert.Error(t, h.Start(context.Background()))
	})
}
