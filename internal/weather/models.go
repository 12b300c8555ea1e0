package weather

import (
	"strconv"
	"time"
)

// GeoCoordinates identifies the point a narration is produced for.
type GeoCoordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
}

// Query renders the coordinates the way Azure Maps expects them in the
// "query" parameter ("lat,lon").
func (c GeoCoordinates) Query() string {
	return FormatNumber(c.Latitude) + "," + FormatNumber(c.Longitude)
}

// FormatNumber renders v in its shortest decimal form without rounding,
// e.g. 20 -> "20", 40.7128 -> "40.7128".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Location is a named point used by scheduled announcements.
type Location struct {
	Name        string         `json:"name" yaml:"name"`
	Coordinates GeoCoordinates `json:"coordinates" yaml:",inline"`
}

// Key returns a canonical string key for logging.
func (l Location) Key() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Coordinates.Query()
}

// Measurement is a value paired with the provider's unit code ("C", "F", "km/h", ...).
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ReverseGeocodeResult holds the candidate addresses for a point, best first.
type ReverseGeocodeResult struct {
	Addresses []AddressResult `json:"addresses"`
}

type AddressResult struct {
	Address Address `json:"address"`
}

type Address struct {
	FreeformAddress string `json:"freeformAddress"`
}

// CurrentConditionsResult is the observation list returned for a point.
// Results may be empty.
type CurrentConditionsResult struct {
	Results []CurrentCondition `json:"results"`
}

type CurrentCondition struct {
	DateTime    time.Time   `json:"dateTime"`
	IsDayTime   bool        `json:"isDayTime"`
	Phrase      string      `json:"phrase"`
	Temperature Measurement `json:"temperature"`
	Wind        Wind        `json:"wind"`
}

type Wind struct {
	Speed Measurement `json:"speed"`
}

// DailyForecastResult is a multi-day forecast with an overall summary.
// Forecasts are ordered by date ascending.
type DailyForecastResult struct {
	Summary   ForecastSummary `json:"summary"`
	Forecasts []DailyForecast `json:"forecasts"`
}

type ForecastSummary struct {
	Phrase string `json:"phrase"`
}

type DailyForecast struct {
	Date        time.Time        `json:"date"`
	Temperature TemperatureRange `json:"temperature"`
}

type TemperatureRange struct {
	Minimum Measurement `json:"minimum"`
	Maximum Measurement `json:"maximum"`
}
