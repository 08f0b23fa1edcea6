// Package recommend turns emotion detection events into song fetches.
//
// A Controller keeps one fetch session. Events below the confidence threshold
// are dropped, a repeat of the last requested mood is a no-op, and a new mood
// supersedes any fetch still in flight: only the newest request's result is
// ever applied.
package recommend

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/client"
	"github.com/amanyadav21/moody-player/internal/mood"
)

// Defaults.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultHistorySize = 5
)

// Status is the lifecycle state of a fetch session.
type Status string

const (
	Idle     Status = "idle"
	Fetching Status = "fetching"
	Ready    Status = "ready"
	Error    Status = "error"
)

// Session is a point-in-time copy of the controller state.
type Session struct {
	Mood      mood.Mood
	Status    Status
	Songs     []catalog.Song
	LastError error
	ErrorKind client.Kind
	// Version increases with every state change.
	Version uint64
}

// Message returns the user-facing error text, or "" when there is no error.
func (s Session) Message() string {
	if s.LastError == nil {
		return ""
	}
	return s.ErrorKind.Message()
}

// Fetcher retrieves songs for a mood.
type Fetcher interface {
	FetchSongs(ctx context.Context, m mood.Mood) ([]catalog.Song, error)
}

// Listener is called with a snapshot after every state change. Calls are
// serialized and arrive in Version order. A listener must not call Observe
// or Retry itself.
type Listener func(Session)

// Controller reconciles detection events with catalog fetches.
type Controller struct {
	fetcher       Fetcher
	logger        hclog.Logger
	timeout       time.Duration
	minConfidence float64
	historySize   int
	listener      Listener

	mu       sync.Mutex
	session  Session
	lastMood mood.Mood
	seq      uint64
	cancel   context.CancelFunc
	history  []mood.Event
	closed   bool
	pending  []Session

	notifyMu sync.Mutex

	wg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l.Named("recommend")
		}
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMinConfidence sets the threshold an event's confidence must exceed.
func WithMinConfidence(v float64) Option {
	return func(c *Controller) {
		if v >= 0 && v < 1 {
			c.minConfidence = v
		}
	}
}

// WithHistorySize sets how many accepted events Recent keeps.
func WithHistorySize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.historySize = n
		}
	}
}

// WithListener registers a state change listener.
func WithListener(fn Listener) Option {
	return func(c *Controller) {
		c.listener = fn
	}
}

// NewController creates an idle controller.
func NewController(fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher:       fetcher,
		logger:        hclog.NewNullLogger(),
		timeout:       DefaultTimeout,
		minConfidence: mood.MinConfidence,
		historySize:   DefaultHistorySize,
		session:       Session{Status: Idle, Songs: []catalog.Song{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe handles a detection event. It reports whether a fetch was issued.
func (c *Controller) Observe(ctx context.Context, ev mood.Event) bool {
	m, ok := ev.CandidateAbove(c.minConfidence)
	if !ok {
		c.logger.Trace("event below threshold", "label", ev.Label, "confidence", ev.Confidence)
		return false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.remember(ev)
	if m == c.lastMood {
		c.mu.Unlock()
		c.logger.Trace("mood unchanged", "mood", m)
		return false
	}
	c.startLocked(ctx, m)
	c.mu.Unlock()

	c.flush()
	return true
}

// Retry re-issues the fetch for the last requested mood, ignoring dedupe.
// It returns false if no mood has been requested yet.
func (c *Controller) Retry(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed || c.lastMood == "" {
		c.mu.Unlock()
		return false
	}
	c.startLocked(ctx, c.lastMood)
	c.mu.Unlock()

	c.flush()
	return true
}

// Snapshot returns the current session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Recent returns the most recent accepted detection events, oldest first.
func (c *Controller) Recent() []mood.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]mood.Event, len(c.history))
	copy(out, c.history)
	return out
}

// Close cancels any fetch in flight. Later events are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Wait blocks until all fetch goroutines have returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) remember(ev mood.Event) {
	c.history = append(c.history, ev)
	if over := len(c.history) - c.historySize; over > 0 {
		c.history = append(c.history[:0:0], c.history[over:]...)
	}
}

// startLocked supersedes any fetch in flight and starts a new one for m.
func (c *Controller) startLocked(ctx context.Context, m mood.Mood) {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	c.lastMood = m

	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	c.cancel = cancel
	c.setLocked(Session{Mood: m, Status: Fetching, Songs: []catalog.Song{}})

	c.logger.Debug("fetching songs", "mood", m, "seq", seq)
	c.wg.Add(1)
	go c.fetch(fctx, cancel, seq, m)
}

func (c *Controller) fetch(ctx context.Context, cancel context.CancelFunc, seq uint64, m mood.Mood) {
	defer c.wg.Done()
	defer cancel()

	songs, err := c.fetcher.FetchSongs(ctx, m)

	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded result", "mood", m, "seq", seq)
		return
	}
	c.cancel = nil
	if err != nil {
		kind := client.KindOf(err)
		c.logger.Warn("fetch failed", "mood", m, "kind", kind, "error", err)
		c.setLocked(Session{Mood: m, Status: Error, Songs: []catalog.Song{}, LastError: err, ErrorKind: kind})
	} else {
		if songs == nil {
			songs = []catalog.Song{}
		}
		c.logger.Debug("songs ready", "mood", m, "count", len(songs))
		c.setLocked(Session{Mood: m, Status: Ready, Songs: songs})
	}
	c.mu.Unlock()

	c.flush()
}

func (c *Controller) setLocked(s Session) {
	s.Version = c.session.Version + 1
	c.session = s
	if c.listener != nil {
		c.pending = append(c.pending, s)
	}
}

// flush delivers queued snapshots to the listener outside c.mu.
func (c *Controller) flush() {
	if c.listener == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	for {
		c.mu.Lock()
		batch := c.pending
		c.pending = nil
		c.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, s := range batch {
			c.listener(s)
		}
	}
}
