package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/audible-weather/internal/common"
	"github.com/i474232898/audible-weather/internal/weather"
)

const (
	defaultOpenMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

	// openMeteoMaxDays is the longest daily forecast Open-Meteo serves.
	openMeteoMaxDays = 16

	openMeteoTimeLayout = "2006-01-02T15:04"
	openMeteoDateLayout = "2006-01-02"
)

var _ weather.MapsProvider = (*OpenMeteoProvider)(nil)

// OpenMeteoProvider implements weather.MapsProvider for Open-Meteo. It needs
// no API key but has no reverse geocoding, so narrations fall back to the
// coordinate header unless it is wrapped by GoogleReverseGeocoder.
type OpenMeteoProvider struct {
	name         string
	baseURL      string
	forecastDays int
	client       *http.Client
	circuit      *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, baseURL string, forecastDays int) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = defaultOpenMeteoBaseURL
	}
	forecastDays = min(max(forecastDays, 1), openMeteoMaxDays)
	return &OpenMeteoProvider{
		name:         "openmeteo",
		baseURL:      baseURL,
		forecastDays: forecastDays,
		client:       client,
		circuit:      common.NewCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// ReverseGeocode always returns an empty result.
func (p *OpenMeteoProvider) ReverseGeocode(ctx context.Context, coords weather.GeoCoordinates) (weather.ReverseGeocodeResult, error) {
	if err := ctx.Err(); err != nil {
		return weather.ReverseGeocodeResult{}, err
	}
	return weather.ReverseGeocodeResult{}, nil
}

func (p *OpenMeteoProvider) GetCurrentConditions(ctx context.Context, coords weather.GeoCoordinates) (weather.CurrentConditionsResult, error) {
	values := p.baseValues(coords)
	values.Set("current", "temperature_2m,is_day,weather_code,wind_speed_10m")

	var payload struct {
		UTCOffsetSeconds int `json:"utc_offset_seconds"`
		CurrentUnits     struct {
			Temperature string `json:"temperature_2m"`
			WindSpeed   string `json:"wind_speed_10m"`
		} `json:"current_units"`
		Current *struct {
			Time        string  `json:"time"`
			Temperature float64 `json:"temperature_2m"`
			IsDay       int     `json:"is_day"`
			WeatherCode int     `json:"weather_code"`
			WindSpeed   float64 `json:"wind_speed_10m"`
		} `json:"current"`
	}
	if err := p.get(ctx, values, &payload); err != nil {
		return weather.CurrentConditionsResult{}, fmt.Errorf("openmeteo current conditions: %w", err)
	}

	var result weather.CurrentConditionsResult
	if payload.Current == nil {
		return result, nil
	}

	zone := time.FixedZone("", payload.UTCOffsetSeconds)
	ts, err := time.ParseInLocation(openMeteoTimeLayout, payload.Current.Time, zone)
	if err != nil {
		return weather.CurrentConditionsResult{}, fmt.Errorf("openmeteo current conditions: %w: time %q", common.ErrMalformedResponse, payload.Current.Time)
	}

	result.Results = append(result.Results, weather.CurrentCondition{
		DateTime:  ts,
		IsDayTime: payload.Current.IsDay == 1,
		Phrase:    weatherCodePhrase(payload.Current.WeatherCode),
		Temperature: weather.Measurement{
			Value: payload.Current.Temperature,
			Unit:  temperatureUnitCode(payload.CurrentUnits.Temperature),
		},
		Wind: weather.Wind{Speed: weather.Measurement{
			Value: payload.Current.WindSpeed,
			Unit:  payload.CurrentUnits.WindSpeed,
		}},
	})
	return result, nil
}

func (p *OpenMeteoProvider) GetDailyForecast(ctx context.Context, coords weather.GeoCoordinates) (weather.DailyForecastResult, error) {
	values := p.baseValues(coords)
	values.Set("daily", "temperature_2m_min,temperature_2m_max,weather_code")
	values.Set("forecast_days", strconv.Itoa(p.forecastDays))

	var payload struct {
		UTCOffsetSeconds int `json:"utc_offset_seconds"`
		DailyUnits       struct {
			Min string `json:"temperature_2m_min"`
			Max string `json:"temperature_2m_max"`
		} `json:"daily_units"`
		Daily struct {
			Time        []string  `json:"time"`
			Min         []float64 `json:"temperature_2m_min"`
			Max         []float64 `json:"temperature_2m_max"`
			WeatherCode []int     `json:"weather_code"`
		} `json:"daily"`
	}
	if err := p.get(ctx, values, &payload); err != nil {
		return weather.DailyForecastResult{}, fmt.Errorf("openmeteo daily forecast: %w", err)
	}

	d := payload.Daily
	if len(d.Min) != len(d.Time) || len(d.Max) != len(d.Time) {
		return weather.DailyForecastResult{}, fmt.Errorf("openmeteo daily forecast: %w: mismatched daily series", common.ErrMalformedResponse)
	}

	zone := time.FixedZone("", payload.UTCOffsetSeconds)
	result := weather.DailyForecastResult{
		Summary: weather.ForecastSummary{Phrase: forecastSummary(d.WeatherCode)},
	}
	for i, day := range d.Time {
		date, err := time.ParseInLocation(openMeteoDateLayout, day, zone)
		if err != nil {
			return weather.DailyForecastResult{}, fmt.Errorf("openmeteo daily forecast: %w: date %q", common.ErrMalformedResponse, day)
		}
		result.Forecasts = append(result.Forecasts, weather.DailyForecast{
			Date: date,
			Temperature: weather.TemperatureRange{
				Minimum: weather.Measurement{Value: d.Min[i], Unit: temperatureUnitCode(payload.DailyUnits.Min)},
				Maximum: weather.Measurement{Value: d.Max[i], Unit: temperatureUnitCode(payload.DailyUnits.Max)},
			},
		})
	}
	return result, nil
}

func (p *OpenMeteoProvider) baseValues(coords weather.GeoCoordinates) url.Values {
	values := url.Values{}
	values.Set("latitude", weather.FormatNumber(coords.Latitude))
	values.Set("longitude", weather.FormatNumber(coords.Longitude))
	values.Set("timezone", "auto")
	return values
}

func (p *OpenMeteoProvider) get(ctx context.Context, values url.Values, out any) error {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := common.DoRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	return common.DecodeJSON(resp, out)
}

// temperatureUnitCode turns Open-Meteo's "°C"/"°F" into the single-letter
// codes Azure Maps uses.
func temperatureUnitCode(unit string) string {
	return strings.TrimPrefix(unit, "°")
}

// forecastSummary describes the forecast by its most frequent weather code
// (first seen wins a tie).
func forecastSummary(codes []int) string {
	if len(codes) == 0 {
		return ""
	}

	counts := make(map[int]int)
	best, bestCount := codes[0], 0
	for _, code := range codes {
		counts[code]++
		if counts[code] > bestCount {
			best, bestCount = code, counts[code]
		}
	}
	return fmt.Sprintf("%s for the next %d days", weatherCodePhrase(best), len(codes))
}

func weatherCodePhrase(code int) string {
	// Mapping based on Open-Meteo (WMO) weather codes (simplified).
	switch {
	case code == 0:
		return "Clear"
	case code == 1:
		return "Mostly clear"
	case code == 2:
		return "Partly cloudy"
	case code == 3:
		return "Cloudy"
	case code == 45 || code == 48:
		return "Foggy"
	case code >= 51 && code <= 57:
		return "Drizzly"
	case code >= 61 && code <= 67:
		return "Rainy"
	case code >= 71 && code <= 77:
		return "Snowy"
	case code >= 80 && code <= 82:
		return "Showery"
	case code == 85 || code == 86:
		return "Snowy"
	case code >= 95:
		return "Stormy"
	default:
		return "Unsettled"
	}
}
