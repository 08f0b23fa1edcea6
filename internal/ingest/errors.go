package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/mood"
)

// Kind classifies an ingestion failure.
type Kind string

const (
	MissingPayload       Kind = "MissingPayload"
	MissingFields        Kind = "MissingFields"
	FieldTooLong         Kind = "FieldTooLong"
	InvalidMood          Kind = "InvalidMood"
	UnsupportedMediaType Kind = "UnsupportedMediaType"
	PayloadTooLarge      Kind = "PayloadTooLarge"
	StorageUnavailable   Kind = "StorageUnavailable"
	PersistenceFailure   Kind = "PersistenceFailure"
)

// Validation reports whether the kind is a client-correctable input error.
func (k Kind) Validation() bool {
	switch k {
	case MissingPayload, MissingFields, FieldTooLong, InvalidMood, UnsupportedMediaType, PayloadTooLarge:
		return true
	}
	return false
}

// Message is the short user-facing headline for the kind.
func (k Kind) Message() string {
	switch k {
	case MissingPayload:
		return "No audio file uploaded"
	case MissingFields:
		return "Missing required fields"
	case FieldTooLong:
		return "Validation error"
	case InvalidMood:
		return "Invalid mood"
	case UnsupportedMediaType:
		return "Invalid file type"
	case PayloadTooLarge:
		return "File too large"
	}
	return "Error uploading song"
}

// Error is an ingestion failure with its kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" if err is not an ingestion error.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

var (
	errMissingPayload = newError(MissingPayload, "Audio file is required")
	errMissingFields  = newError(MissingFields, "Title, artist, and mood are required")
	errInvalidMood    = newError(InvalidMood, "Mood must be one of: %s", strings.Join(mood.Names(), ", "))
	errUnsupported    = newError(UnsupportedMediaType, "Invalid file type. Only audio and video files are allowed.")
)

func fieldTooLong(field string) *Error {
	return newError(FieldTooLong, "%s must be at most %d characters", field, catalog.MaxFieldLength)
}

func payloadTooLarge(max int64) *Error {
	return newError(PayloadTooLarge, "File too large. Maximum size is %dMB.", max>>20)
}
