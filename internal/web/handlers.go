package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/amanyadav21/moody-player/internal/api"
	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/ingest"
	"github.com/amanyadav21/moody-player/internal/mood"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to disk.
const multipartMemory = 32 << 20

// Handlers contains HTTP handlers for the songs API.
type Handlers struct {
	resolver *catalog.Resolver
	ingest   *ingest.Service
	logger   hclog.Logger
	maxBody  int64
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(resolver *catalog.Resolver, svc *ingest.Service, logger hclog.Logger, maxBody int64) *Handlers {
	return &Handlers{
		resolver: resolver,
		ingest:   svc,
		logger:   logger,
		maxBody:  maxBody,
	}
}

// Health reports liveness (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// UploadSong ingests a new song (POST /api/songs).
func (h *Handlers) UploadSong(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Message: ingest.PayloadTooLarge.Message(),
				Error:   fmt.Sprintf("File too large. Maximum size is %dMB.", h.ingest.MaxSize()>>20),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	payload, err := readPayload(r)
	if err != nil {
		h.logger.Error("reading upload", "error", err)
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	meta := ingest.Metadata{
		Title:  r.FormValue(api.FieldTitle),
		Artist: r.FormValue(api.FieldArtist),
		Mood:   r.FormValue(api.FieldMood),
	}

	res, err := h.ingest.Ingest(r.Context(), meta, payload)
	if err != nil {
		writeIngestError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.UploadResponse{
		Message:  api.MsgSongAdded,
		Song:     res.Song,
		FileData: res.File,
	})
}

// GetSongs returns songs for the mood query parameter (GET /api/songs).
// Fallback to the full catalog follows the resolver's policy.
func (h *Handlers) GetSongs(w http.ResponseWriter, r *http.Request) {
	m := mood.Normalize(r.URL.Query().Get("mood"))

	res, err := h.resolver.Resolve(r.Context(), m)
	if err != nil {
		h.logger.Error("resolving songs", "mood", m, "error", err)
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{
			Message: api.MsgFetchFailed,
			Error:   api.MsgCatalogFailed,
		})
		return
	}

	writeJSON(w, http.StatusOK, api.SongsResponse{
		Message:      api.MsgSongsFetched,
		Count:        len(res.Songs),
		Songs:        res.Songs,
		UsedFallback: res.UsedFallback,
	})
}

// AllSongs returns the unfiltered catalog (GET /api/all-songs).
func (h *Handlers) AllSongs(w http.ResponseWriter, r *http.Request) {
	res, err := h.resolver.All(r.Context())
	if err != nil {
		h.logger.Error("listing songs", "error", err)
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{
			Message: api.MsgFetchFailed,
			Error:   api.MsgCatalogFailed,
		})
		return
	}

	writeJSON(w, http.StatusOK, api.SongsResponse{
		Message: api.MsgAllSongsFetched,
		Count:   len(res.Songs),
		Songs:   res.Songs,
	})
}

// readPayload returns the uploaded audio part, or nil if there is none.
func readPayload(r *http.Request) (*ingest.Payload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(api.FieldAudio)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening audio part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading audio part: %w", err)
	}
	return &ingest.Payload{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Filename: header.Filename,
	}, nil
}

func writeIngestError(w http.ResponseWriter, err error) {
	kind := ingest.KindOf(err)
	switch {
	case kind.Validation():
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Message: kind.Message(),
			Error:   err.Error(),
		})
	case kind == ingest.StorageUnavailable:
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{
			Message: api.MsgUploadFailed,
			Error:   api.MsgStorageFailed,
		})
	case kind == ingest.PersistenceFailure:
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{
			Message: api.MsgUploadFailed,
			Error:   api.MsgPersistenceError,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{
			Message: api.MsgUploadFailed,
			Error:   "Internal error",
		})
	}
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
