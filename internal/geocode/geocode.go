// Package geocode fills in missing city/state fields for submitted races by
// reverse-geocoding their coordinates. It is optional: without an API key the
// resolver is nil and submissions keep whatever location fields they came with.
package geocode

import (
	"fmt"

	"github.com/kelvins/geocoder"
)

// Resolver reverse-geocodes coordinates into a city and state code.
type Resolver struct{}

// NewResolver configures the geocoding backend with the given API key and
// returns a Resolver, or nil when no key is configured.
func NewResolver(apiKey string) *Resolver {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey
	return &Resolver{}
}

// CityState resolves the city and state for a coordinate pair.
func (r *Resolver) CityState(lat, lon float64) (city, state string, err error) {
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  lat,
		Longitude: lon,
	})
	if err != nil {
		return "", "", fmt.Errorf("reverse geocode: %w", err)
	}
	if len(addresses) == 0 {
		return "", "", fmt.Errorf("no address found for %f,%f", lat, lon)
	}
	return addresses[0].City, addresses[0].State, nil
}
