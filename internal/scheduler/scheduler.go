package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/audible-weather/internal/narration"
	"github.com/i474232898/audible-weather/internal/weather"
)

// announceTimeout bounds a single location's live narration.
const announceTimeout = 2 * time.Minute

// Announcer speaks the current weather for a point.
type Announcer interface {
	SpeakCurrent(ctx context.Context, coords weather.GeoCoordinates) (narration.Record, error)
}

// Pruner removes journal records older than a cutoff.
type Pruner interface {
	Prune(cutoff time.Time) (int64, error)
}

// Scheduler periodically announces the weather for configured locations and
// prunes the narration journal.
type Scheduler struct {
	scheduler *gocron.Scheduler
	announcer Announcer
	locations []weather.Location
	interval  time.Duration

	pruner Pruner
	maxAge time.Duration
}

// New creates a new Scheduler. An interval <= 0 disables announcements.
func New(locations []weather.Location, interval time.Duration, announcer Announcer) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		announcer: announcer,
		locations: locations,
		interval:  interval,
	}
}

// WithPruner enables an hourly job dropping journal records older than maxAge.
func (s *Scheduler) WithPruner(p Pruner, maxAge time.Duration) *Scheduler {
	s.pruner = p
	s.maxAge = maxAge
	return s
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	jobs := 0

	switch {
	case s.interval <= 0:
		log.Println("scheduler: announcements disabled")
	case len(s.locations) == 0:
		log.Println("scheduler: no locations configured; nothing to announce")
	default:
		// Announcements share the audio device, so runs must never overlap.
		if _, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.Announce); err != nil {
			return err
		}
		jobs++
	}

	if s.pruner != nil && s.maxAge > 0 {
		if _, err := s.scheduler.Every(1).Hour().Do(s.Prune); err != nil {
			return err
		}
		jobs++
	}

	if jobs == 0 {
		return nil
	}
	s.scheduler.StartAsync()
	return nil
}

// Announce speaks the current weather for every location, one at a time.
func (s *Scheduler) Announce() {
	log.Println("scheduler: running weather announcement job")

	for _, loc := range s.locations {
		ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
		if _, err := s.announcer.SpeakCurrent(ctx, loc.Coordinates); err != nil {
			log.Printf("scheduler: announcement failed for %s: %v", loc.Key(), err)
		}
		cancel()
	}

	log.Println("scheduler: completed weather announcement job")
}

// Prune drops journal records older than the configured max age.
func (s *Scheduler) Prune() {
	removed, err := s.pruner.Prune(time.Now().Add(-s.maxAge))
	if err != nil {
		log.Printf("scheduler: journal prune failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("scheduler: pruned %d narration records", removed)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
