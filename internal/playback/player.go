package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

var command = exec.Command

// DefaultPlayerArgs play a URL without a window and exit at the end of the stream.
var DefaultPlayerArgs = []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}

// CommandPlayer opens handles that play audio through an external program.
type CommandPlayer struct {
	binary string
	args   []string
}

// PlayerOption configures a CommandPlayer.
type PlayerOption func(*CommandPlayer)

// WithBinary overrides the default player binary.
func WithBinary(binary string) PlayerOption {
	return func(p *CommandPlayer) {
		if binary != "" {
			p.binary = binary
		}
	}
}

// WithArgs replaces the arguments placed before the URL.
func WithArgs(args ...string) PlayerOption {
	return func(p *CommandPlayer) {
		p.args = args
	}
}

// NewCommandPlayer constructs a player using ffplay by default.
func NewCommandPlayer(opts ...PlayerOption) *CommandPlayer {
	p := &CommandPlayer{binary: "ffplay", args: DefaultPlayerArgs}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open returns a handle for url. It fails if the player binary is not installed.
func (p *CommandPlayer) Open(url string, ended func()) (Handle, error) {
	if url == "" {
		return nil, errors.New("empty audio url")
	}
	path, err := exec.LookPath(p.binary)
	if err != nil {
		return nil, fmt.Errorf("player %q not found: %w", p.binary, err)
	}
	args := append(append([]string{}, p.args...), url)
	return &processHandle{path: path, args: args, ended: ended}, nil
}

// run is one player process.
type run struct {
	cmd     *exec.Cmd
	done    chan struct{}
	stopped bool
}

// processHandle restarts the player process on every Start. Stopping kills
// the process; natural exit is reported through ended.
type processHandle struct {
	path  string
	args  []string
	ended func()

	mu       sync.Mutex
	current  *run
	released bool
}

func (h *processHandle) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return errors.New("handle released")
	}
	if h.current != nil {
		select {
		case <-h.current.done:
		default:
			return nil
		}
	}

	cmd := command(h.path, h.args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	r := &run{cmd: cmd, done: make(chan struct{})}
	h.current = r

	go h.wait(r)
	return nil
}

func (h *processHandle) wait(r *run) {
	_ = r.cmd.Wait()

	h.mu.Lock()
	stopped := r.stopped
	h.mu.Unlock()
	close(r.done)

	if !stopped && h.ended != nil {
		h.ended()
	}
}

func (h *processHandle) Stop() error {
	h.mu.Lock()
	r := h.current
	if r == nil {
		h.mu.Unlock()
		return nil
	}
	select {
	case <-r.done:
		h.mu.Unlock()
		return nil
	default:
	}
	r.stopped = true
	err := r.cmd.Process.Kill()
	h.mu.Unlock()

	<-r.done
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill player: %w", err)
	}
	return nil
}

func (h *processHandle) Release() error {
	err := h.Stop()
	h.mu.Lock()
	h.released = true
	h.mu.Unlock()
	return err
}
