package narration

import (
	"fmt"
	"strings"

	"github.com/i474232898/audible-weather/internal/weather"
)

const (
	noResultsLine  = "No results found:"
	longDateLayout = "Monday, January 2, 2006"
)

// coordinatesHeader is the header used whenever no address is known.
func coordinatesHeader(coords weather.GeoCoordinates) string {
	return fmt.Sprintf("Weather information for latitude: %s, longitude: %s",
		weather.FormatNumber(coords.Latitude), weather.FormatNumber(coords.Longitude))
}

// addressHeader prefers the first reverse-geocoded address and falls back to
// the raw coordinates when it is missing or blank.
func addressHeader(res weather.ReverseGeocodeResult, coords weather.GeoCoordinates) string {
	if len(res.Addresses) > 0 {
		if addr := res.Addresses[0].Address.FreeformAddress; strings.TrimSpace(addr) != "" {
			return "Weather information for " + addr
		}
	}
	return coordinatesHeader(coords)
}

// unitName maps "C" to "Celsius" and every other code to "Farenheit".
func unitName(code string) string {
	if code == "C" {
		return "Celsius"
	}
	return "Farenheit"
}

func dayNight(isDayTime bool) string {
	if isDayTime {
		return "day"
	}
	return "night"
}

// observationLines renders the four lines spoken for one observation.
func observationLines(c weather.CurrentCondition) []string {
	return []string{
		"Report from: " + c.DateTime.Format(longDateLayout),
		fmt.Sprintf("It's a %s %s", c.Phrase, dayNight(c.IsDayTime)),
		fmt.Sprintf("%s %s", weather.FormatNumber(c.Temperature.Value), unitName(c.Temperature.Unit)),
		fmt.Sprintf("Wind speed %s %s", weather.FormatNumber(c.Wind.Speed.Value), c.Wind.Speed.Unit),
	}
}

// forecastDayUtterances renders one forecast day as two utterances: the date
// and the temperature range.
func forecastDayUtterances(d weather.DailyForecast) []string {
	lo, hi := d.Temperature.Minimum, d.Temperature.Maximum
	return []string{
		"Weather for: " + d.Date.Format(longDateLayout),
		fmt.Sprintf("Minimum temperature: %s %s\nMaximum temperature: %s %s",
			weather.FormatNumber(lo.Value), unitName(lo.Unit),
			weather.FormatNumber(hi.Value), unitName(hi.Unit)),
	}
}

// CurrentReport renders the stream-mode narration: the header, an explicit
// "no results" line for an empty result set, then four lines per observation.
// Every line is newline terminated.
func CurrentReport(header string, conditions weather.CurrentConditionsResult) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	if len(conditions.Results) == 0 {
		b.WriteString(noResultsLine + "\n")
	}
	for _, c := range conditions.Results {
		for _, line := range observationLines(c) {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// CurrentUtterances renders the live-mode current conditions narration.
func CurrentUtterances(coords weather.GeoCoordinates, conditions weather.CurrentConditionsResult) []string {
	utterances := make([]string, 0, 1+4*len(conditions.Results))
	utterances = append(utterances, coordinatesHeader(coords))
	for _, c := range conditions.Results {
		utterances = append(utterances, observationLines(c)...)
	}
	return utterances
}

// ForecastUtterances renders the live-mode forecast narration. An empty
// forecast list yields only the header and summary.
func ForecastUtterances(coords weather.GeoCoordinates, forecast weather.DailyForecastResult) []string {
	utterances := make([]string, 0, 2+2*len(forecast.Forecasts))
	utterances = append(utterances, coordinatesHeader(coords), forecast.Summary.Phrase)
	for _, d := range forecast.Forecasts {
		utterances = append(utterances, forecastDayUtterances(d)...)
	}
	return utterances
}
