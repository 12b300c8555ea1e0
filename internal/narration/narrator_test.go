package narration

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/audible-weather/internal/weather"
)

var sunnyObservation = weather.CurrentCondition{
	DateTime:    time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
	IsDayTime:   true,
	Phrase:      "Sunny",
	Temperature: weather.Measurement{Value: 20, Unit: "C"},
	Wind:        weather.Wind{Speed: weather.Measurement{Value: 10, Unit: "km/h"}},
}

// TestNarrateCurrentWeatherToBuffer covers the documented end-to-end
// scenario: no address, one observation.
func TestNarrateCurrentWeatherToBuffer(t *testing.T) {
	maps := &fakeMaps{
		current: weather.CurrentConditionsResult{Results: []weather.CurrentCondition{sunnyObservation}},
	}
	tts := &fakeSpeech{audio: []byte("RIFF....WAVE")}
	n := NewNarrator(maps, tts)

	var buf bytes.Buffer
	err := n.NarrateCurrentWeatherToBuffer(context.Background(), weather.GeoCoordinates{Latitude: 40.0, Longitude: -75.0}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Weather information for latitude: 40, longitude: -75\n" +
		"Report from: Monday, January 1, 2024\n" +
		"It's a Sunny day\n" +
		"20 Celsius\n" +
		"Wind speed 10 km/h\n"
	if len(tts.streamed) != 1 {
		t.Fatalf("expected exactly one stream synthesis, got %d", len(tts.streamed))
	}
	if tts.streamed[0] != want {
		t.Fatalf("unexpected narration:\n got %q\nwant %q", tts.streamed[0], want)
	}
	if buf.String() != "RIFF....WAVE" {
		t.Fatalf("expected audio in buffer, got %q", buf.String())
	}
	if got := strings.Join(maps.calls, ","); got != "ReverseGeocode,GetCurrentConditions" {
		t.Fatalf("unexpected maps calls: %s", got)
	}
	if len(tts.spoken) != 0 {
		t.Fatalf("stream mode must not use the speaker, got %d calls", len(tts.spoken))
	}
}

func TestNarrateCurrentWeatherToBufferUsesAddress(t *testing.T) {
	maps := &fakeMaps{
		address: weather.ReverseGeocodeResult{Addresses: []weather.AddressResult{
			{Address: weather.Address{FreeformAddress: "1 Market St, Philadelphia, PA"}},
		}},
	}
	tts := &fakeSpeech{}
	n := NewNarrator(maps, tts)

	if err := n.NarrateCurrentWeatherToBuffer(context.Background(), weather.GeoCoordinates{Latitude: 39.95, Longitude: -75.16}, &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Weather information for 1 Market St, Philadelphia, PA\nNo results found:\n"
	if tts.streamed[0] != want {
		t.Fatalf("got %q, want %q", tts.streamed[0], want)
	}
}

func TestNarrateCurrentWeatherToBufferPropagatesErrors(t *testing.T) {
	geocodeErr := errors.New("geocode: connection reset")
	weatherErr := errors.New("weather: 401 unauthorized")
	speechErr := errors.New("speech: malformed response")

	tests := []struct {
		name   string
		maps   *fakeMaps
		speech *fakeSpeech
		want   error
	}{
		{"geocode", &fakeMaps{addressErr: geocodeErr}, &fakeSpeech{}, geocodeErr},
		{"conditions", &fakeMaps{currentErr: weatherErr}, &fakeSpeech{}, weatherErr},
		{"speech", &fakeMaps{}, &fakeSpeech{streamErr: speechErr}, speechErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := NewNarrator(tt.maps, tt.speech).NarrateCurrentWeatherToBuffer(context.Background(), weather.GeoCoordinates{}, &buf)
			if err != tt.want {
				t.Fatalf("expected the identical error %v, got %v", tt.want, err)
			}
			if buf.Len() != 0 {
				t.Fatalf("expected nothing written on failure, got %d bytes", buf.Len())
			}
		})
	}
}

func TestNarrateCurrentWeatherLiveOrder(t *testing.T) {
	second := sunnyObservation
	second.DateTime = time.Date(2024, time.January, 2, 22, 0, 0, 0, time.UTC)
	second.IsDayTime = false
	second.Phrase = "Clear"
	second.Temperature = weather.Measurement{Value: 28.4, Unit: "F"}

	maps := &fakeMaps{
		address: weather.ReverseGeocodeResult{Addresses: []weather.AddressResult{
			{Address: weather.Address{FreeformAddress: "ignored in live mode"}},
		}},
		current: weather.CurrentConditionsResult{Results: []weather.CurrentCondition{sunnyObservation, second}},
	}
	tts := &fakeSpeech{}

	if err := NewNarrator(maps, tts).NarrateCurrentWeatherLive(context.Background(), weather.GeoCoordinates{Latitude: 40, Longitude: -75}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"Weather information for latitude: 40, longitude: -75",
		"Report from: Monday, January 1, 2024",
		"It's a Sunny day",
		"20 Celsius",
		"Wind speed 10 km/h",
		"Report from: Tuesday, January 2, 2024",
		"It's a Clear night",
		"28.4 Farenheit",
		"Wind speed 10 km/h",
	}
	if strings.Join(tts.spoken, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected utterances:\n got %q\nwant %q", tts.spoken, want)
	}
	for _, call := range maps.calls {
		if call == "ReverseGeocode" {
			t.Fatalf("live mode must not reverse geocode")
		}
	}
}

func TestNarrateCurrentWeatherLiveStopsOnFailure(t *testing.T) {
	speakErr := errors.New("device busy")
	maps := &fakeMaps{
		current: weather.CurrentConditionsResult{Results: []weather.CurrentCondition{sunnyObservation, sunnyObservation}},
	}
	tts := &fakeSpeech{failAt: 3, speakErr: speakErr}

	err := NewNarrator(maps, tts).NarrateCurrentWeatherLive(context.Background(), weather.GeoCoordinates{})
	if err != speakErr {
		t.Fatalf("expected %v, got %v", speakErr, err)
	}
	if len(tts.spoken) != 3 {
		t.Fatalf("expected speaking to stop after the failing call, got %d calls", len(tts.spoken))
	}
}

func TestNarrateCurrentWeatherLiveConditionsError(t *testing.T) {
	fetchErr := errors.New("network unreachable")
	tts := &fakeSpeech{}

	err := NewNarrator(&fakeMaps{currentErr: fetchErr}, tts).NarrateCurrentWeatherLive(context.Background(), weather.GeoCoordinates{})
	if err != fetchErr {
		t.Fatalf("expected %v, got %v", fetchErr, err)
	}
	if len(tts.spoken) != 0 {
		t.Fatalf("expected nothing spoken, got %q", tts.spoken)
	}
}

func TestNarrateWeekForecastLive(t *testing.T) {
	maps := &fakeMaps{
		forecast: weather.DailyForecastResult{
			Summary: weather.ForecastSummary{Phrase: "Mild week"},
			Forecasts: []weather.DailyForecast{
				{
					Date: time.Date(2024, time.January, 1, 7, 0, 0, 0, time.UTC),
					Temperature: weather.TemperatureRange{
						Minimum: weather.Measurement{Value: 2.5, Unit: "C"},
						Maximum: weather.Measurement{Value: 9, Unit: "C"},
					},
				},
				{
					Date: time.Date(2024, time.January, 2, 7, 0, 0, 0, time.UTC),
					Temperature: weather.TemperatureRange{
						Minimum: weather.Measurement{Value: 35, Unit: "F"},
						Maximum: weather.Measurement{Value: 48, Unit: "F"},
					},
				},
			},
		},
	}
	tts := &fakeSpeech{}

	if err := NewNarrator(maps, tts).NarrateWeekForecastLive(context.Background(), weather.GeoCoordinates{Latitude: 51.5, Longitude: -0.12}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"Weather information for latitude: 51.5, longitude: -0.12",
		"Mild week",
		"Weather for: Monday, January 1, 2024",
		"Minimum temperature: 2.5 Celsius\nMaximum temperature: 9 Celsius",
		"Weather for: Tuesday, January 2, 2024",
		"Minimum temperature: 35 Farenheit\nMaximum temperature: 48 Farenheit",
	}
	if len(tts.spoken) != 6 {
		t.Fatalf("expected 6 utterances, got %d: %q", len(tts.spoken), tts.spoken)
	}
	if strings.Join(tts.spoken, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected utterances:\n got %q\nwant %q", tts.spoken, want)
	}
}

func TestNarrateWeekForecastLiveStopsOnFailure(t *testing.T) {
	speakErr := errors.New("synthesis quota exceeded")
	maps := &fakeMaps{
		forecast: weather.DailyForecastResult{
			Summary:   weather.ForecastSummary{Phrase: "Wet"},
			Forecasts: make([]weather.DailyForecast, 3),
		},
	}
	tts := &fakeSpeech{failAt: 2, speakErr: speakErr}

	err := NewNarrator(maps, tts).NarrateWeekForecastLive(context.Background(), weather.GeoCoordinates{})
	if err != speakErr {
		t.Fatalf("expected %v, got %v", speakErr, err)
	}
	if len(tts.spoken) != 2 {
		t.Fatalf("expected 2 calls before stopping, got %d", len(tts.spoken))
	}
}

func TestObserveLogsAndReturnsSameError(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	want := errors.New("boom")
	if err := observe("Op", func() error { return want }); err != want {
		t.Fatalf("expected identical error, got %v", err)
	}
	if !strings.Contains(logs.String(), "ERROR: narration: Op failed: boom") {
		t.Fatalf("expected error to be logged, got %q", logs.String())
	}

	logs.Reset()
	if err := observe("Op", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no log output on success, got %q", logs.String())
	}
}
