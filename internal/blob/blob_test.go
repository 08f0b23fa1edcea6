package blob

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageKitUpload(t *testing.T) {
	var gotFields map[string]string
	var gotFile []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "private_key" || pass != "" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "bad auth"})
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotFields = map[string]string{
			"fileName":          r.FormValue("fileName"),
			"folder":            r.FormValue("folder"),
			"useUniqueFileName": r.FormValue("useUniqueFileName"),
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotFile, _ = io.ReadAll(f)

		_ = json.NewEncoder(w).Encode(imageKitResponse{
			FileID:   "file_123",
			Name:     r.FormValue("fileName"),
			Size:     int64(len(gotFile)),
			FilePath: "/songs/" + r.FormValue("fileName"),
			URL:      "https://ik.example.com/songs/" + r.FormValue("fileName"),
			FileType: "non-image",
		})
	}))
	defer srv.Close()

	k := NewImageKit(ImageKitConfig{PrivateKey: "private_key"}, WithUploadURL(srv.URL))
	fd, err := k.Upload(context.Background(), Object{
		Name:   "song_1_ab_sunny.mp3",
		Folder: "/songs",
		Data:   []byte("ID3 fake audio"),
	})
	require.NoError(t, err)

	assert.Equal(t, "file_123", fd.FileID)
	assert.Equal(t, "https://ik.example.com/songs/song_1_ab_sunny.mp3", fd.URL)
	assert.Equal(t, int64(14), fd.Size)
	assert.Equal(t, "song_1_ab_sunny.mp3", gotFields["fileName"])
	assert.Equal(t, "/songs", gotFields["folder"])
	assert.Equal(t, "false", gotFields["useUniqueFileName"])
	assert.Equal(t, []byte("ID3 fake audio"), gotFile)
}

func TestImageKitUpload_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Your account cannot be authenticated."})
	}))
	defer srv.Close()

	k := NewImageKit(ImageKitConfig{PrivateKey: "nope"}, WithUploadURL(srv.URL))
	_, err := k.Upload(context.Background(), Object{Name: "a.mp3", Folder: "/songs", Data: []byte{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "cannot be authenticated")
}

func TestImageKitUpload_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	k := NewImageKit(ImageKitConfig{PrivateKey: "k"}, WithUploadURL(url))
	_, err := k.Upload(context.Background(), Object{Name: "a.mp3", Data: []byte{1}})
	assert.Error(t, err)
}

func TestUpload_EmptyObject(t *testing.T) {
	stores := map[string]Store{
		"imagekit": NewImageKit(ImageKitConfig{}),
		"local":    NewLocalStore(t.TempDir(), "http://localhost:8080"),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := s.Upload(context.Background(), Object{Name: "a.mp3"})
			assert.True(t, errors.Is(err, ErrEmptyObject))
		})
	}
}

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "http://localhost:8080/")

	fd, err := s.Upload(context.Background(), Object{
		Name:   "song_1_ab_rain.mp3",
		Folder: "/songs",
		Data:   []byte("audio"),
	})
	require.NoError(t, err)

	assert.Equal(t, "/songs/song_1_ab_rain.mp3", fd.FilePath)
	assert.Equal(t, "http://localhost:8080/media/songs/song_1_ab_rain.mp3", fd.URL)
	assert.Equal(t, int64(5), fd.Size)
	assert.NotEmpty(t, fd.FileID)

	data, err := os.ReadFile(filepath.Join(dir, "songs", "song_1_ab_rain.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))
}

func TestLocalStoreUpload_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "http://localhost:8080")

	fd, err := s.Upload(context.Background(), Object{Name: "../../etc/passwd", Folder: "/songs", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "/songs/passwd", fd.FilePath)
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		folder, name, want string
	}{
		{"/songs", "a.mp3", "/songs/a.mp3"},
		{"songs/", "a.mp3", "/songs/a.mp3"},
		{"", "a.mp3", "/a.mp3"},
		{"/", "a.mp3", "/a.mp3"},
	}
	for _, tt := range tests {
		if got := joinPath(tt.folder, tt.name); got != tt.want {
			t.Errorf("joinPath(%q, %q) = %q, want %q", tt.folder, tt.name, got, tt.want)
		}
	}
}

func TestLocalStoreDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "http://localhost:8080")

	fd, err := s.Upload(context.Background(), Object{Name: "a.mp3", Folder: "/songs", Data: []byte("x")})
	require.NoError(t, err)
	require.NoError(t, s.Delete(context.Background(), fd))

	_, err = os.Stat(filepath.Join(dir, "songs", "a.mp3"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// already gone
	assert.NoError(t, s.Delete(context.Background(), fd))
}

func TestImageKitDelete(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	k := NewImageKit(ImageKitConfig{PrivateKey: "k"}, WithFilesURL(srv.URL+"/v1/files"))
	require.NoError(t, k.Delete(context.Background(), &FileData{FileID: "file_123"}))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/v1/files/file_123", gotPath)

	assert.ErrorIs(t, k.Delete(context.Background(), &FileData{}), ErrEmptyObject)
}
