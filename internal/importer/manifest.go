package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrEmptyManifest is returned when a manifest lists no songs.
var ErrEmptyManifest = errors.New("manifest has no songs")

// Entry is one song to import.
type Entry struct {
	Title  string `toml:"title"`
	Artist string `toml:"artist"`
	Mood   string `toml:"mood"`
	File   string `toml:"file"`
}

// Manifest is a list of songs read from a TOML file:
//
//	[[song]]
//	title = "Sunny"
//	artist = "Bobby Hebb"
//	mood = "happy"
//	file = "audio/sunny.mp3"
type Manifest struct {
	Songs []Entry `toml:"song"`
}

// LoadManifest reads a manifest. Relative file paths are resolved against
// the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range m.Songs {
		if f := m.Songs[i].File; f != "" && !filepath.IsAbs(f) {
			m.Songs[i].File = filepath.Join(dir, f)
		}
	}
	return m, nil
}

// ParseManifest decodes manifest TOML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Songs) == 0 {
		return nil, ErrEmptyManifest
	}
	return &m, nil
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".mpga": "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".mp4":  "video/mp4",
	".m4a":  "video/mp4",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
}

// MediaType guesses the media type of an audio file from its extension.
// Unknown extensions yield application/octet-stream, which the server rejects.
func MediaType(name string) string {
	if t, ok := audioTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "application/octet-stream"
}
