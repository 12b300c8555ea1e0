package narration

import (
	"time"

	"github.com/i474232898/audible-weather/internal/weather"
)

// Kind identifies which narration produced a Record.
type Kind string

const (
	KindCurrentAudio Kind = "current-audio"
	KindCurrentLive  Kind = "current-live"
	KindForecastLive Kind = "forecast-live"
)

// Record is the journal entry written for every narration run.
type Record struct {
	ID          string                 `json:"id"`
	Kind        Kind                   `json:"kind"`
	Coordinates weather.GeoCoordinates `json:"coordinates"`
	StartedAt   time.Time              `json:"startedAt"` // always UTC
	FinishedAt  time.Time              `json:"finishedAt"`
	AudioBytes  int                    `json:"audioBytes,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// Succeeded reports whether the run completed without error.
func (r Record) Succeeded() bool {
	return r.Error == ""
}

// Journal is the contract the narration history stores must satisfy.
type Journal interface {
	Save(rec Record) error
	Get(id string) (Record, error)
	// Recent returns up to limit records, newest first.
	Recent(limit int) ([]Record, error)
}
