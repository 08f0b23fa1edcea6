// Package importer uploads a batch of songs through the songs API.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/amanyadav21/moody-player/internal/api"
	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/client"
)

// DefaultConcurrency is the number of uploads in flight at once.
const DefaultConcurrency = 4

// Uploader submits one song.
type Uploader interface {
	Upload(ctx context.Context, req client.UploadRequest) (*api.UploadResponse, error)
}

// Outcome is the result of importing one manifest entry.
type Outcome struct {
	Entry Entry
	Song  *catalog.Song
	Err   error // non-nil if the upload failed
}

// Importer uploads manifest entries concurrently.
type Importer struct {
	uploader    Uploader
	concurrency int
	logger      hclog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithConcurrency sets the number of concurrent uploads.
func WithConcurrency(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.logger = l.Named("import")
		}
	}
}

// New creates an importer.
func New(uploader Uploader, opts ...Option) *Importer {
	im := &Importer{
		uploader:    uploader,
		concurrency: DefaultConcurrency,
		logger:      hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import uploads every entry. Outcomes are returned in input order and a
// failed entry does not stop the others. The returned error is only set
// when ctx is cancelled.
func (im *Importer) Import(ctx context.Context, entries []Entry) ([]Outcome, error) {
	if len(entries) == 0 {
		return []Outcome{}, nil
	}

	results := make([]Outcome, len(entries))

	type workItem struct {
		index int
		entry Entry
	}
	workCh := make(chan workItem, len(entries))
	for i, e := range entries {
		workCh <- workItem{index: i, entry: e}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < im.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if err := ctx.Err(); err != nil {
					results[work.index] = Outcome{Entry: work.entry, Err: err}
					continue
				}
				song, err := im.importOne(ctx, work.entry)
				if err != nil {
					im.logger.Warn("import failed", "title", work.entry.Title, "file", work.entry.File, "error", err)
				} else {
					im.logger.Info("imported", "title", song.Title, "mood", song.Mood, "id", song.ID)
				}
				results[work.index] = Outcome{Entry: work.entry, Song: song, Err: err}
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, nil
}

func (im *Importer) importOne(ctx context.Context, e Entry) (*catalog.Song, error) {
	if e.File == "" {
		return nil, errors.New("no file given")
	}
	f, err := os.Open(e.File)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	resp, err := im.uploader.Upload(ctx, client.UploadRequest{
		Title:    e.Title,
		Artist:   e.Artist,
		Mood:     e.Mood,
		Filename: filepath.Base(e.File),
		MimeType: MediaType(e.File),
		Audio:    f,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Song, nil
}

// Failed counts the outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
