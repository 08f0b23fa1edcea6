// Package api defines the JSON bodies exchanged over the songs HTTP API.
package api

import (
	"github.com/amanyadav21/moody-player/internal/blob"
	"github.com/amanyadav21/moody-player/internal/catalog"
)

// Routes.
const (
	SongsPath    = "/api/songs"
	AllSongsPath = "/api/all-songs"
	HealthPath   = "/healthz"
	MediaPrefix  = "/media"
)

// Multipart field names for POST /api/songs.
const (
	FieldAudio  = "audio"
	FieldTitle  = "title"
	FieldArtist = "artist"
	FieldMood   = "mood"
)

// Response messages.
const (
	MsgSongAdded        = "Song added successfully"
	MsgSongsFetched     = "Songs fetched successfully"
	MsgAllSongsFetched  = "All songs fetched successfully"
	MsgUploadFailed     = "Error uploading song"
	MsgFetchFailed      = "Error fetching songs"
	MsgTooManyRequests  = "Too many requests"
	MsgRateLimitDetail  = "Too many requests from this IP, please try again later."
	MsgStorageFailed    = "Failed to upload file to storage service"
	MsgPersistenceError = "Failed to save song"
	MsgCatalogFailed    = "Catalog unavailable"
)

// SongsResponse is returned by GET /api/songs and GET /api/all-songs.
type SongsResponse struct {
	Message      string         `json:"message"`
	Count        int            `json:"count"`
	Songs        []catalog.Song `json:"songs"`
	UsedFallback bool           `json:"usedFallback"`
}

// UploadResponse is returned by a successful POST /api/songs.
type UploadResponse struct {
	Message  string         `json:"message"`
	Song     catalog.Song   `json:"song"`
	FileData *blob.FileData `json:"fileData"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
