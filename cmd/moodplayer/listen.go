package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/mood"
	"github.com/amanyadav21/moody-player/internal/playback"
	"github.com/amanyadav21/moody-player/internal/recommend"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Play songs matching detection events read from stdin",
		Long: `Reads one item per line from stdin:

  {"label":"happy","confidence":0.92}   a detection event
  play N                                 play or pause song N of the current list
  retry                                  repeat the last failed fetch
  quit                                   stop playback and exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			player := playback.NewCommandPlayer(
				playback.WithBinary(cfg.Playback.Player),
				playback.WithArgs(cfg.Playback.Args...),
			)
			l := newListener(ctx.client(), player.Open, cmd.OutOrStdout(), ctx.logger(cmd.ErrOrStderr()),
				recommend.WithMinConfidence(cfg.Client.MinConfidence),
				recommend.WithTimeout(cfg.ClientTimeout()),
			)
			return l.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// listener ties the recommendation controller to a playback manager for an
// interactive session.
type listener struct {
	out    io.Writer
	outMu  sync.Mutex
	open   playback.Opener
	logger hclog.Logger

	controller *recommend.Controller

	mu      sync.Mutex
	songs   []catalog.Song
	manager *playback.Manager
}

func newListener(fetcher recommend.Fetcher, open playback.Opener, out io.Writer, logger hclog.Logger, opts ...recommend.Option) *listener {
	l := &listener{out: out, open: open, logger: logger}
	l.manager = l.newManager()
	opts = append(opts, recommend.WithLogger(logger), recommend.WithListener(l.onSession))
	l.controller = recommend.NewController(fetcher, opts...)
	return l
}

func (l *listener) newManager() *playback.Manager {
	return playback.NewManager(l.open, playback.WithLogger(l.logger), playback.WithListener(l.onPlayback))
}

// run processes input until EOF, quit or cancellation.
func (l *listener) run(ctx context.Context, in io.Reader) error {
	defer l.shutdown()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := l.handle(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (l *listener) handle(ctx context.Context, line string) (quit bool) {
	switch {
	case line == "":
	case line == "quit" || line == "exit":
		return true
	case line == "retry":
		if !l.controller.Retry(ctx) {
			l.printf("Nothing to retry.\n")
		}
	case strings.HasPrefix(line, "play"):
		l.play(ctx, strings.TrimSpace(strings.TrimPrefix(line, "play")))
	case strings.HasPrefix(line, "{"):
		ev, err := mood.ParseEvent(line)
		if err != nil {
			l.printf("Ignoring event: %v\n", err)
			return false
		}
		l.controller.Observe(ctx, ev)
	default:
		l.printf("Unknown command %q\n", line)
	}
	return false
}

func (l *listener) play(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)

	l.mu.Lock()
	songs, manager := l.songs, l.manager
	l.mu.Unlock()

	if err != nil || n < 1 || n > len(songs) {
		l.printf("Choose a song between 1 and %d.\n", len(songs))
		return
	}
	if err := manager.Toggle(ctx, n-1, songs[n-1]); err != nil {
		var pe *playback.Error
		if errors.As(err, &pe) {
			l.printf("%s (song %d)\n", pe.Message(), n)
			return
		}
		l.printf("Playback unavailable: %v\n", err)
	}
}

// onSession is the controller listener.
func (l *listener) onSession(s recommend.Session) {
	switch s.Status {
	case recommend.Fetching:
		l.printf("Mood: %s. Finding songs...\n", s.Mood)
	case recommend.Error:
		l.printf("%s Type \"retry\" to try again.\n", s.Message())
	case recommend.Ready:
		l.mu.Lock()
		old := l.manager
		l.songs = s.Songs
		l.manager = l.newManager()
		l.mu.Unlock()
		if err := old.Close(); err != nil {
			l.logger.Warn("releasing playback resources", "error", err)
		}

		if len(s.Songs) == 0 {
			l.printf("No songs found for %s.\n", s.Mood)
			return
		}
		l.printf("Songs for %s:\n%s\n", s.Mood, renderSongs(l.out, s.Songs))
	}
}

// onPlayback is the playback manager listener.
func (l *listener) onPlayback(ev playback.Event) {
	title := l.title(ev.SongID)
	switch {
	case ev.State == playback.Playing:
		l.printf("Playing %d. %s\n", ev.Index+1, title)
	case ev.Ended:
		l.printf("Finished %d. %s\n", ev.Index+1, title)
	case ev.State == playback.Idle:
		l.printf("Paused %d. %s\n", ev.Index+1, title)
	}
}

func (l *listener) title(id uuid.UUID) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.songs {
		if s.ID == id {
			return s.Title
		}
	}
	return id.String()
}

func (l *listener) shutdown() {
	l.controller.Close()
	l.controller.Wait()

	l.mu.Lock()
	manager := l.manager
	l.mu.Unlock()
	if err := manager.Close(); err != nil {
		l.logger.Warn("releasing playback resources", "error", err)
	}
}

func (l *listener) printf(format string, args ...any) {
	l.outMu.Lock()
	defer l.outMu.Unlock()
	fmt.Fprintf(l.out, format, args...)
}
