package mood

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MinConfidence is the score an event must exceed to be considered.
const MinConfidence = 0.3

// Event is a single emotion detection produced by the recognizer.
type Event struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Candidate returns the normalized label when the event clears the
// confidence threshold. Events at or below the threshold are rejected.
func (e Event) Candidate() (Mood, bool) {
	return e.CandidateAbove(MinConfidence)
}

// CandidateAbove is Candidate with a custom threshold.
func (e Event) CandidateAbove(threshold float64) (Mood, bool) {
	if e.Confidence <= threshold {
		return "", false
	}
	m := Normalize(e.Label)
	if m == "" {
		return "", false
	}
	return m, true
}

// ParseEvent decodes one JSON-encoded event. A missing timestamp is set to now.
func ParseEvent(line string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &ev); err != nil {
		return Event{}, fmt.Errorf("decoding detection event: %w", err)
	}
	if ev.Confidence < 0 || ev.Confidence > 1 {
		return Event{}, fmt.Errorf("decoding detection event: confidence %v out of range [0,1]", ev.Confidence)
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return ev, nil
}
