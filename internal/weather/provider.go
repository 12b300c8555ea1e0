package weather

import (
	"context"
)

// MapsProvider abstracts the maps/weather service (e.g. Azure Maps) the
// narrations are built from. Implementations must honor ctx cancellation.
type MapsProvider interface {
	ReverseGeocode(ctx context.Context, coords GeoCoordinates) (ReverseGeocodeResult, error)
	GetCurrentConditions(ctx context.Context, coords GeoCoordinates) (CurrentConditionsResult, error)
	GetDailyForecast(ctx context.Context, coords GeoCoordinates) (DailyForecastResult, error)
}
