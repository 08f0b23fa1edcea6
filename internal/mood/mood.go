// Package mood defines the fixed set of moods used to tag songs and the
// detection events produced by the external emotion recognizer.
package mood

import (
	"errors"
	"fmt"
	"strings"
)

// Mood is one of the seven emotion categories songs are tagged with.
type Mood string

// Supported moods.
const (
	Happy     Mood = "happy"
	Sad       Mood = "sad"
	Angry     Mood = "angry"
	Surprised Mood = "surprised"
	Disgusted Mood = "disgusted"
	Fearful   Mood = "fearful"
	Neutral   Mood = "neutral"
)

// All lists every supported mood in display order.
var All = []Mood{Happy, Sad, Angry, Surprised, Disgusted, Fearful, Neutral}

// ErrInvalid is returned when a value is not one of the supported moods.
var ErrInvalid = errors.New("invalid mood")

// Normalize lowercases and trims a free-form mood or emotion label.
// The result is not checked against the enumeration.
func Normalize(s string) Mood {
	return Mood(strings.ToLower(strings.TrimSpace(s)))
}

// Parse normalizes s and checks it against the enumeration.
func Parse(s string) (Mood, error) {
	m := Normalize(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q (must be one of: %s)", ErrInvalid, s, strings.Join(Names(), ", "))
	}
	return m, nil
}

// Valid reports whether m is one of the supported moods.
func (m Mood) Valid() bool {
	for _, v := range All {
		if m == v {
			return true
		}
	}
	return false
}

func (m Mood) String() string {
	return string(m)
}

// Names returns the supported moods as strings.
func Names() []string {
	names := make([]string, len(All))
	for i, m := range All {
		names[i] = string(m)
	}
	return names
}
