// Package playback enforces that at most one song plays at a time.
//
// Resources are created lazily on first play and keyed by song id, so a
// reordered song list never maps a toggle to the wrong audio.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/amanyadav21/moody-player/internal/catalog"
)

// ErrClosed is returned by Toggle after Close.
var ErrClosed = errors.New("playback manager closed")

// State is the lifecycle state of one playback resource.
type State string

const (
	Idle    State = "idle"
	Playing State = "playing"
	Errored State = "errored"
)

// Handle controls one audio resource.
type Handle interface {
	// Start begins or resumes playback.
	Start(ctx context.Context) error
	// Stop halts playback. Stopping a stopped handle is a no-op.
	Stop() error
	// Release frees the resource. The handle is not used afterwards.
	Release() error
}

// Opener creates a handle for url. ended must be called when playback
// finishes on its own, never as a result of Stop.
type Opener func(url string, ended func()) (Handle, error)

// Error is a playback failure scoped to one song.
type Error struct {
	SongID uuid.UUID
	Index  int
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("playback %s for song %s (#%d): %v", e.Op, e.SongID, e.Index, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for the failure.
func (e *Error) Message() string {
	if e.Op == "open" {
		return "Error playing audio file"
	}
	return "Cannot play this audio file"
}

// Event reports a state change of one resource.
type Event struct {
	SongID uuid.UUID
	Index  int
	State  State
	Ended  bool
}

type resource struct {
	song   catalog.Song
	index  int
	handle Handle
	state  State
}

// Manager owns the playback resources for a song list.
type Manager struct {
	open     Opener
	logger   hclog.Logger
	listener func(Event)

	mu        sync.Mutex
	resources map[uuid.UUID]*resource
	playing   uuid.UUID
	closed    bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l.Named("playback")
		}
	}
}

// WithListener registers a callback for state changes. It is called
// without the manager lock held.
func WithListener(fn func(Event)) Option {
	return func(m *Manager) {
		m.listener = fn
	}
}

// NewManager creates a manager that opens resources with open.
func NewManager(open Opener, opts ...Option) *Manager {
	m := &Manager{
		open:      open,
		logger:    hclog.NewNullLogger(),
		resources: make(map[uuid.UUID]*resource),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Toggle plays song, or pauses it if it is the one playing. Any other
// playing resource is stopped first. index is the song's position in the
// displayed list and is used only for reporting.
//
// A failure to open or start the resource marks it errored and returns an
// *Error; other resources are unaffected.
func (m *Manager) Toggle(ctx context.Context, index int, song catalog.Song) error {
	events, err := m.toggle(ctx, index, song)
	m.emit(events)
	return err
}

func (m *Manager) toggle(ctx context.Context, index int, song catalog.Song) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	var events []Event
	wasPlaying := m.playing == song.ID && m.playing != uuid.Nil

	for id, r := range m.resources {
		if r.state != Playing {
			continue
		}
		if err := r.handle.Stop(); err != nil {
			m.logger.Warn("stopping resource", "song", id, "error", err)
		}
		r.state = Idle
		events = append(events, Event{SongID: id, Index: r.index, State: Idle})
	}
	m.playing = uuid.Nil

	if wasPlaying {
		m.logger.Debug("paused", "song", song.ID, "index", index)
		return events, nil
	}

	r, ok := m.resources[song.ID]
	if !ok {
		r = &resource{song: song, state: Idle}
		m.resources[song.ID] = r
	}
	r.index = index

	if r.handle == nil {
		h, err := m.open(song.AudioURL, m.endedFunc(song.ID))
		if err != nil {
			r.state = Errored
			events = append(events, Event{SongID: song.ID, Index: index, State: Errored})
			m.logger.Warn("opening resource", "song", song.ID, "url", song.AudioURL, "error", err)
			return events, &Error{SongID: song.ID, Index: index, Op: "open", Err: err}
		}
		r.handle = h
	}

	if err := r.handle.Start(ctx); err != nil {
		r.state = Errored
		events = append(events, Event{SongID: song.ID, Index: index, State: Errored})
		m.logger.Warn("starting resource", "song", song.ID, "error", err)
		return events, &Error{SongID: song.ID, Index: index, Op: "start", Err: err}
	}

	r.state = Playing
	m.playing = song.ID
	events = append(events, Event{SongID: song.ID, Index: index, State: Playing})
	m.logger.Debug("playing", "song", song.ID, "index", index, "title", song.Title)
	return events, nil
}

func (m *Manager) endedFunc(id uuid.UUID) func() {
	return func() {
		m.mu.Lock()
		r, ok := m.resources[id]
		if m.closed || !ok || r.state != Playing {
			m.mu.Unlock()
			return
		}
		r.state = Idle
		if m.playing == id {
			m.playing = uuid.Nil
		}
		ev := Event{SongID: id, Index: r.index, State: Idle, Ended: true}
		m.mu.Unlock()

		m.logger.Debug("ended", "song", id)
		m.emit([]Event{ev})
	}
}

// State returns the state of the resource for id. Songs never played are idle.
func (m *Manager) State(id uuid.UUID) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resources[id]; ok {
		return r.state
	}
	return Idle
}

// Playing returns the id of the playing song, if any.
func (m *Manager) Playing() (uuid.UUID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing, m.playing != uuid.Nil
}

// Len returns the number of resources created so far.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// Close stops and releases every resource regardless of its state.
// Later toggles fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.playing = uuid.Nil

	var errs []error
	for id, r := range m.resources {
		if r.handle != nil {
			if err := r.handle.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stopping %s: %w", id, err))
			}
			if err := r.handle.Release(); err != nil {
				errs = append(errs, fmt.Errorf("releasing %s: %w", id, err))
			}
		}
		delete(m.resources, id)
	}
	return errors.Join(errs...)
}

func (m *Manager) emit(events []Event) {
	if m.listener == nil {
		return
	}
	for _, ev := range events {
		m.listener(ev)
	}
}
