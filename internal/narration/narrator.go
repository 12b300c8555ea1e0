// Package narration turns weather data into spoken reports.
package narration

import (
	"context"
	"io"
	"log"

	"github.com/i474232898/audible-weather/internal/weather"
)

// Speech abstracts the text-to-speech service.
type Speech interface {
	// SynthesizeToStream writes the synthesized audio for text into w.
	SynthesizeToStream(ctx context.Context, text string, w io.Writer) error
	// SpeakOnDefaultDevice plays text on the local output device and returns
	// once playback has completed.
	SpeakOnDefaultDevice(ctx context.Context, text string) error
}

// Narrator builds weather narrations and routes them to a speech sink.
// It holds no mutable state and is safe for concurrent use.
type Narrator struct {
	maps   weather.MapsProvider
	speech Speech
}

// NewNarrator creates a Narrator.
func NewNarrator(maps weather.MapsProvider, speech Speech) *Narrator {
	return &Narrator{
		maps:   maps,
		speech: speech,
	}
}

// NarrateCurrentWeatherToBuffer narrates the current conditions at coords,
// headed by the resolved address, and writes the synthesized audio into w.
func (n *Narrator) NarrateCurrentWeatherToBuffer(ctx context.Context, coords weather.GeoCoordinates, w io.Writer) error {
	return observe("NarrateCurrentWeatherToBuffer", func() error {
		header, conditions, err := n.currentWeatherWithAddress(ctx, coords)
		if err != nil {
			return err
		}
		return n.speech.SynthesizeToStream(ctx, CurrentReport(header, conditions), w)
	})
}

// NarrateCurrentWeatherLive speaks the current conditions at coords on the
// default output device, one utterance per line.
func (n *Narrator) NarrateCurrentWeatherLive(ctx context.Context, coords weather.GeoCoordinates) error {
	return observe("NarrateCurrentWeatherLive", func() error {
		conditions, err := n.maps.GetCurrentConditions(ctx, coords)
		if err != nil {
			return err
		}
		return n.speakAll(ctx, CurrentUtterances(coords, conditions))
	})
}

// NarrateWeekForecastLive speaks the daily forecast at coords on the default
// output device.
func (n *Narrator) NarrateWeekForecastLive(ctx context.Context, coords weather.GeoCoordinates) error {
	return observe("NarrateWeekForecastLive", func() error {
		forecast, err := n.maps.GetDailyForecast(ctx, coords)
		if err != nil {
			return err
		}
		return n.speakAll(ctx, ForecastUtterances(coords, forecast))
	})
}

func (n *Narrator) currentWeatherWithAddress(ctx context.Context, coords weather.GeoCoordinates) (string, weather.CurrentConditionsResult, error) {
	address, err := n.maps.ReverseGeocode(ctx, coords)
	if err != nil {
		return "", weather.CurrentConditionsResult{}, err
	}
	header := addressHeader(address, coords)

	conditions, err := n.maps.GetCurrentConditions(ctx, coords)
	if err != nil {
		return "", weather.CurrentConditionsResult{}, err
	}
	return header, conditions, nil
}

// speakAll speaks utterances in order and stops at the first failure.
func (n *Narrator) speakAll(ctx context.Context, utterances []string) error {
	for _, u := range utterances {
		if err := n.speech.SpeakOnDefaultDevice(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

// observe runs fn and logs its error before returning it unchanged.
func observe(op string, fn func() error) error {
	err := fn()
	if err != nil {
		log.Printf("ERROR: narration: %s failed: %+v", op, err)
	}
	return err
}
