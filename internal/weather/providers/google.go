package providers

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/audible-weather/internal/common"
	"github.com/i474232898/audible-weather/internal/weather"
)

var _ weather.MapsProvider = (*GoogleReverseGeocoder)(nil)

// GoogleReverseGeocoder wraps a MapsProvider and resolves addresses through
// the Google Geocoding API instead. Weather calls go to the wrapped provider.
type GoogleReverseGeocoder struct {
	weather.MapsProvider

	circuit *gobreaker.CircuitBreaker
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleReverseGeocoder sets the package-level geocoder key, so only one
// Google key can be active per process.
func NewGoogleReverseGeocoder(next weather.MapsProvider, apiKey string) *GoogleReverseGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleReverseGeocoder{
		MapsProvider: next,
		circuit:      common.NewCircuitBreaker("google-geocoding"),
		reverse:      geocoder.GeocodingReverse,
	}
}

// ReverseGeocode maps Google's formatted addresses onto the Azure-shaped
// result. The geocoder library is not context aware, so cancellation is
// honored at the call boundary only.
func (g *GoogleReverseGeocoder) ReverseGeocode(ctx context.Context, coords weather.GeoCoordinates) (weather.ReverseGeocodeResult, error) {
	type outcome struct {
		addresses []geocoder.Address
		err       error
	}

	done := make(chan outcome, 1)
	go func() {
		result, err := g.circuit.Execute(func() (interface{}, error) {
			return g.reverse(geocoder.Location{
				Latitude:  coords.Latitude,
				Longitude: coords.Longitude,
			})
		})
		addresses, _ := result.([]geocoder.Address)
		done <- outcome{addresses: addresses, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.ReverseGeocodeResult{}, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return weather.ReverseGeocodeResult{}, fmt.Errorf("google reverse geocode: %w", o.err)
		}
		result := weather.ReverseGeocodeResult{
			Addresses: make([]weather.AddressResult, 0, len(o.addresses)),
		}
		for _, a := range o.addresses {
			result.Addresses = append(result.Addresses, weather.AddressResult{
				Address: weather.Address{FreeformAddress: a.FormattedAddress},
			})
		}
		return result, nil
	}
}
