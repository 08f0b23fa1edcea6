// Package blob stores raw audio bytes and hands back a public URL.
package blob

import (
	"context"
	"errors"
)

// ErrEmptyObject is returned when an upload carries no bytes or no name.
var ErrEmptyObject = errors.New("empty blob object")

// Object is a named payload to be stored under a folder.
type Object struct {
	Name        string
	Folder      string
	Data        []byte
	ContentType string
}

// Probe describes what could be read from the audio container.
type Probe struct {
	FileType string `json:"fileType,omitempty"`
	Format   string `json:"format,omitempty"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
}

// FileData is the storage backend's description of an uploaded object.
type FileData struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	FilePath string `json:"filePath"`
	URL      string `json:"url"`
	FileType string `json:"fileType"`
	Probe    *Probe `json:"probe,omitempty"`
}

// Store uploads objects.
type Store interface {
	Upload(ctx context.Context, obj Object) (*FileData, error)
}

// Deleter is implemented by stores that can remove a previously uploaded object.
type Deleter interface {
	Delete(ctx context.Context, fd *FileData) error
}

func joinPath(folder, name string) string {
	if folder == "" || folder == "/" {
		return "/" + name
	}
	if folder[0] != '/' {
		folder = "/" + folder
	}
	if folder[len(folder)-1] == '/' {
		folder = folder[:len(folder)-1]
	}
	return folder + "/" + name
}
