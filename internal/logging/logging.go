// Package logging builds the root hclog logger from configuration.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/amanyadav21/moody-player/internal/config"
)

// Name is the root logger name.
const Name = "moodplayer"

// New returns a logger writing to w, or stderr when w is nil. Unknown
// levels fall back to info.
func New(cfg config.Logging, w io.Writer) hclog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       Name,
		Level:      level,
		Output:     w,
		JSONFormat: cfg.Format == "json",
	})
}
