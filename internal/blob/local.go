package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes objects below a directory and serves them from baseURL + "/media".
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a store rooted at dir. baseURL is the public server address.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Dir returns the root directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Upload writes obj to disk.
func (s *LocalStore) Upload(ctx context.Context, obj Object) (*FileData, error) {
	if obj.Name == "" || len(obj.Data) == 0 {
		return nil, ErrEmptyObject
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := joinPath(obj.Folder, filepath.Base(obj.Name))
	target := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("creating folder: %w", err)
	}
	if err := os.WriteFile(target, obj.Data, 0o644); err != nil {
		return nil, fmt.Errorf("writing blob: %w", err)
	}

	return &FileData{
		FileID:   uuid.NewString(),
		Name:     filepath.Base(obj.Name),
		Size:     int64(len(obj.Data)),
		FilePath: rel,
		URL:      s.baseURL + "/media" + rel,
		FileType: "non-image",
	}, nil
}

// Delete removes a file written by Upload.
func (s *LocalStore) Delete(ctx context.Context, fd *FileData) error {
	if fd == nil || fd.FilePath == "" {
		return ErrEmptyObject
	}
	target := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+fd.FilePath)))
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing blob: %w", err)
	}
	return nil
}

var (
	_ Store   = (*LocalStore)(nil)
	_ Deleter = (*LocalStore)(nil)
)
