// Package geocode resolves place names to coordinates so callers can feed
// them into the coordinate-keyed weather cache.
package geocode

import (
	"errors"
	"fmt"

	"github.com/kelvins/geocoder"
)

// ErrUnavailable is returned when no geocoding API key is configured.
var ErrUnavailable = errors.New("geocoding is not configured")

// Coordinates is a resolved (latitude, longitude) pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Resolver turns a city/country pair into coordinates.
type Resolver interface {
	Resolve(city, country string) (Coordinates, error)
}

// GoogleResolver resolves place names through the Google Geocoding API.
type GoogleResolver struct {
	configured bool
}

// NewGoogleResolver wires the API key into the geocoder client. An empty key
// produces a resolver whose Resolve always reports ErrUnavailable, so the
// rest of the API surface keeps working without geocoding.
func NewGoogleResolver(apiKey string) *GoogleResolver {
	geocoder.ApiKey = apiKey
	return &GoogleResolver{configured: apiKey != ""}
}

func (r *GoogleResolver) Resolve(city, country string) (Coordinates, error) {
	if !r.configured {
		return Coordinates{}, ErrUnavailable
	}

	location, err := geocoder.Geocoding(geocoder.Address{
		City:    city,
		Country: country,
	})
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocoding %s, %s: %w", city, country, err)
	}

	return Coordinates{
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
	}, nil
}
