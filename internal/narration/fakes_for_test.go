package narration

import (
	"context"
	"io"

	"github.com/i474232898/audible-weather/internal/weather"
)

type fakeMaps struct {
	address     weather.ReverseGeocodeResult
	addressErr  error
	current     weather.CurrentConditionsResult
	currentErr  error
	forecast    weather.DailyForecastResult
	forecastErr error

	calls []string
}

func (f *fakeMaps) ReverseGeocode(ctx context.Context, coords weather.GeoCoordinates) (weather.ReverseGeocodeResult, error) {
	f.calls = append(f.calls, "ReverseGeocode")
	return f.address, f.addressErr
}

func (f *fakeMaps) GetCurrentConditions(ctx context.Context, coords weather.GeoCoordinates) (weather.CurrentConditionsResult, error) {
	f.calls = append(f.calls, "GetCurrentConditions")
	return f.current, f.currentErr
}

func (f *fakeMaps) GetDailyForecast(ctx context.Context, coords weather.GeoCoordinates) (weather.DailyForecastResult, error) {
	f.calls = append(f.calls, "GetDailyForecast")
	return f.forecast, f.forecastErr
}

type fakeSpeech struct {
	audio     []byte
	streamErr error
	streamed  []string

	// failAt is the 1-based SpeakOnDefaultDevice call that returns speakErr.
	failAt   int
	speakErr error
	spoken   []string
}

func (f *fakeSpeech) SynthesizeToStream(ctx context.Context, text string, w io.Writer) error {
	f.streamed = append(f.streamed, text)
	if f.streamErr != nil {
		return f.streamErr
	}
	_, err := w.Write(f.audio)
	return err
}

func (f *fakeSpeech) SpeakOnDefaultDevice(ctx context.Context, text string) error {
	f.spoken = append(f.spoken, text)
	if f.failAt > 0 && len(f.spoken) == f.failAt {
		return f.speakErr
	}
	return nil
}
