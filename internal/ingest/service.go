// Package ingest validates song submissions, stores the audio payload and
// records the song in the catalog.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/amanyadav21/moody-player/internal/blob"
	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/mood"
)

const (
	// MaxPayloadSize is the largest accepted audio payload.
	MaxPayloadSize int64 = 50 << 20

	// Folder is the blob folder songs are stored under.
	Folder = "/songs"
)

// AllowedMediaTypes lists the accepted payload mime types.
var AllowedMediaTypes = []string{
	"audio/mpeg",
	"audio/mp3",
	"audio/wav",
	"audio/ogg",
	"video/mp4",
	"video/mpeg",
}

// Metadata is the descriptive part of a submission.
type Metadata struct {
	Title  string
	Artist string
	Mood   string
}

// Payload is the audio part of a submission.
type Payload struct {
	Data     []byte
	MimeType string
	Size     int64
	Filename string
}

// Result is a successfully ingested song with the storage backend's file data.
type Result struct {
	Song catalog.Song
	File *blob.FileData
}

// Service ingests songs.
type Service struct {
	blobs   blob.Store
	store   catalog.Store
	logger  hclog.Logger
	now     func() time.Time
	maxSize int64
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("ingest")
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxPayloadSize overrides MaxPayloadSize.
func WithMaxPayloadSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// NewService creates an ingestion service.
func NewService(blobs blob.Store, store catalog.Store, opts ...Option) *Service {
	s := &Service{
		blobs:   blobs,
		store:   store,
		logger:  hclog.NewNullLogger(),
		now:     time.Now,
		maxSize: MaxPayloadSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxSize returns the payload limit in bytes.
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Validate checks a submission without storing anything. It returns the
// normalized metadata on success.
func (s *Service) Validate(meta Metadata, p *Payload) (Metadata, error) {
	if p == nil {
		return Metadata{}, errMissingPayload
	}

	title := strings.TrimSpace(meta.Title)
	artist := strings.TrimSpace(meta.Artist)
	m := mood.Normalize(meta.Mood)
	if title == "" || artist == "" || m == "" {
		return Metadata{}, errMissingFields
	}
	if !m.Valid() {
		return Metadata{}, errInvalidMood
	}
	if !allowedMediaType(p.MimeType) {
		return Metadata{}, errUnsupported
	}
	if payloadSize(p) > s.maxSize {
		return Metadata{}, payloadTooLarge(s.maxSize)
	}
	if utf8.RuneCountInString(title) > catalog.MaxFieldLength {
		return Metadata{}, fieldTooLong("title")
	}
	if utf8.RuneCountInString(artist) > catalog.MaxFieldLength {
		return Metadata{}, fieldTooLong("artist")
	}

	return Metadata{Title: title, Artist: artist, Mood: string(m)}, nil
}

// Ingest validates the submission, uploads the payload and inserts the song.
// If the insert fails after a successful upload, the blob is deleted when the
// store supports it and left in place otherwise.
func (s *Service) Ingest(ctx context.Context, meta Metadata, p *Payload) (*Result, error) {
	clean, err := s.Validate(meta, p)
	if err != nil {
		s.logger.Debug("submission rejected", "kind", KindOf(err), "error", err)
		return nil, err
	}

	now := s.now()
	id := uuid.New()
	name := blobName(now, id, p.Filename)

	fd, err := s.blobs.Upload(ctx, blob.Object{
		Name:        name,
		Folder:      Folder,
		Data:        p.Data,
		ContentType: p.MimeType,
	})
	if err != nil {
		s.logger.Error("blob upload failed", "name", name, "error", err)
		return nil, &Error{Kind: StorageUnavailable, Err: fmt.Errorf("uploading blob: %w", err)}
	}
	if fd == nil || fd.URL == "" {
		s.logger.Error("blob upload returned no url", "name", name)
		return nil, &Error{Kind: StorageUnavailable, Err: errors.New("uploading blob: no url returned")}
	}
	fd.Probe = probe(p.Data)

	song, err := s.store.Insert(ctx, catalog.Song{
		ID:        id,
		Title:     clean.Title,
		Artist:    clean.Artist,
		AudioURL:  fd.URL,
		Mood:      mood.Mood(clean.Mood),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logger.Error("catalog insert failed after upload", "file_id", fd.FileID, "url", fd.URL, "error", err)
		s.discard(fd)
		return nil, &Error{Kind: PersistenceFailure, Err: fmt.Errorf("saving song: %w", err)}
	}

	s.logger.Info("song ingested", "id", song.ID, "mood", song.Mood, "file_id", fd.FileID, "size", payloadSize(p))
	return &Result{Song: song, File: fd}, nil
}

// discard removes an orphaned blob using its own bounded context.
func (s *Service) discard(fd *blob.FileData) {
	d, ok := s.blobs.(blob.Deleter)
	if !ok {
		s.logger.Warn("orphaned blob left in storage", "file_id", fd.FileID, "url", fd.URL)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Delete(ctx, fd); err != nil {
		s.logger.Warn("orphaned blob could not be deleted", "file_id", fd.FileID, "url", fd.URL, "error", err)
		return
	}
	s.logger.Info("orphaned blob deleted", "file_id", fd.FileID)
}

func allowedMediaType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	for _, t := range AllowedMediaTypes {
		if mimeType == t {
			return true
		}
	}
	return false
}

func payloadSize(p *Payload) int64 {
	if p.Size > 0 {
		return p.Size
	}
	return int64(len(p.Data))
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// blobName builds song_<unix-millis>_<short-id>_<filename>.
func blobName(now time.Time, id uuid.UUID, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "_.")
	if base == "" {
		base = "audio"
	}
	short := strings.ReplaceAll(id.String(), "-", "")[:8]
	return fmt.Sprintf("song_%d_%s_%s", now.UnixMilli(), short, base)
}

// probe reads container and tag information from data. Failures yield nil.
func probe(data []byte) (p *blob.Probe) {
	// tag parsers can panic on truncated input
	defer func() {
		if recover() != nil {
			p = nil
		}
	}()

	r := bytes.NewReader(data)
	format, fileType, err := tag.Identify(r)
	if err != nil || fileType == tag.UnknownFileType {
		return nil
	}
	p = &blob.Probe{
		FileType: string(fileType),
		Format:   string(format),
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return p
	}
	if md, err := tag.ReadFrom(r); err == nil {
		p.Title = md.Title()
		p.Artist = md.Artist()
		p.Album = md.Album()
	}
	return p
}
