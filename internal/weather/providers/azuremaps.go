package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/audible-weather/internal/common"
	"github.com/i474232898/audible-weather/internal/weather"
)

const (
	defaultAzureMapsBaseURL = "https://atlas.microsoft.com"

	searchAPIVersion  = "1.0"
	weatherAPIVersion = "1.1"
)

var _ weather.MapsProvider = (*AzureMapsProvider)(nil)

// AzureMapsProvider implements weather.MapsProvider against the Azure Maps REST API.
type AzureMapsProvider struct {
	name         string
	apiKey       string
	baseURL      string
	forecastDays int
	client       *http.Client
	circuit      *gobreaker.CircuitBreaker
}

// NewAzureMapsProvider creates a provider. An empty baseURL selects the public
// Azure Maps endpoint; forecastDays is passed through as the daily forecast duration.
func NewAzureMapsProvider(client *http.Client, apiKey, baseURL string, forecastDays int) *AzureMapsProvider {
	if baseURL == "" {
		baseURL = defaultAzureMapsBaseURL
	}
	return &AzureMapsProvider{
		name:         "azuremaps",
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		forecastDays: forecastDays,
		client:       client,
		circuit:      common.NewCircuitBreaker("azuremaps"),
	}
}

func (p *AzureMapsProvider) Name() string {
	return p.name
}

func (p *AzureMapsProvider) ReverseGeocode(ctx context.Context, coords weather.GeoCoordinates) (weather.ReverseGeocodeResult, error) {
	values := url.Values{}
	values.Set("api-version", searchAPIVersion)
	values.Set("query", coords.Query())

	var payload weather.ReverseGeocodeResult
	if err := p.get(ctx, "/search/address/reverse/json", values, &payload); err != nil {
		return weather.ReverseGeocodeResult{}, fmt.Errorf("azuremaps reverse geocode: %w", err)
	}
	return payload, nil
}

func (p *AzureMapsProvider) GetCurrentConditions(ctx context.Context, coords weather.GeoCoordinates) (weather.CurrentConditionsResult, error) {
	values := url.Values{}
	values.Set("api-version", weatherAPIVersion)
	values.Set("query", coords.Query())

	var payload weather.CurrentConditionsResult
	if err := p.get(ctx, "/weather/currentConditions/json", values, &payload); err != nil {
		return weather.CurrentConditionsResult{}, fmt.Errorf("azuremaps current conditions: %w", err)
	}
	return payload, nil
}

func (p *AzureMapsProvider) GetDailyForecast(ctx context.Context, coords weather.GeoCoordinates) (weather.DailyForecastResult, error) {
	values := url.Values{}
	values.Set("api-version", weatherAPIVersion)
	values.Set("query", coords.Query())
	if p.forecastDays > 0 {
		values.Set("duration", strconv.Itoa(p.forecastDays))
	}

	var payload weather.DailyForecastResult
	if err := p.get(ctx, "/weather/forecast/daily/json", values, &payload); err != nil {
		return weather.DailyForecastResult{}, fmt.Errorf("azuremaps daily forecast: %w", err)
	}
	return payload, nil
}

func (p *AzureMapsProvider) get(ctx context.Context, path string, values url.Values, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("azure maps api key is not configured")
	}
	values.Set("subscription-key", p.apiKey)

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := common.DoRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	return common.DecodeJSON(resp, out)
}
