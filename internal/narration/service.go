package narration

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/audible-weather/internal/weather"
)

// Service runs narrations on behalf of the API and the scheduler and records
// every run in the journal.
type Service struct {
	narrator *Narrator
	journal  Journal
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(narrator *Narrator, journal Journal) *Service {
	return &Service{
		narrator: narrator,
		journal:  journal,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CurrentAudio writes the current-conditions narration audio for coords into w.
func (s *Service) CurrentAudio(ctx context.Context, coords weather.GeoCoordinates, w io.Writer) (Record, error) {
	return s.run(KindCurrentAudio, coords, func(rec *Record) error {
		cw := &countingWriter{w: w}
		err := s.narrator.NarrateCurrentWeatherToBuffer(ctx, coords, cw)
		rec.AudioBytes = cw.n
		return err
	})
}

// SpeakCurrent speaks the current conditions for coords on the local device.
func (s *Service) SpeakCurrent(ctx context.Context, coords weather.GeoCoordinates) (Record, error) {
	return s.run(KindCurrentLive, coords, func(*Record) error {
		return s.narrator.NarrateCurrentWeatherLive(ctx, coords)
	})
}

// SpeakForecast speaks the daily forecast for coords on the local device.
func (s *Service) SpeakForecast(ctx context.Context, coords weather.GeoCoordinates) (Record, error) {
	return s.run(KindForecastLive, coords, func(*Record) error {
		return s.narrator.NarrateWeekForecastLive(ctx, coords)
	})
}

// Get delegates to the underlying journal.
func (s *Service) Get(id string) (Record, error) {
	return s.journal.Get(id)
}

// Recent delegates to the underlying journal.
func (s *Service) Recent(limit int) ([]Record, error) {
	return s.journal.Recent(limit)
}

func (s *Service) run(kind Kind, coords weather.GeoCoordinates, fn func(rec *Record) error) (Record, error) {
	rec := Record{
		ID:          uuid.NewString(),
		Kind:        kind,
		Coordinates: coords,
		StartedAt:   s.now(),
	}

	log.Printf("DEBUG: narration %s started for %s (id=%s)", kind, coords.Query(), rec.ID)
	err := fn(&rec)
	rec.FinishedAt = s.now()
	if err != nil {
		rec.Error = err.Error()
	}

	s.save(rec)
	return rec, err
}

// save records rec; journal failures are logged and never mask the narration result.
func (s *Service) save(rec Record) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Save(rec); err != nil {
		log.Printf("ERROR: narration: failed to journal %s: %v", rec.ID, err)
	}
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
