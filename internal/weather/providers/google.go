package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"

	"github.com/i474232898/weather-quicklook/internal/weather"
)

// geocoder keeps its API key in a package variable.
var googleMu sync.Mutex

// GoogleGeocoder implements weather.Resolver with the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey  string
	log     *zap.SugaredLogger
	forward func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder creates a resolver using the given API key.
func NewGoogleGeocoder(apiKey string, log *zap.SugaredLogger) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		log:     log,
		forward: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

// Resolve geocodes a free-text city query.
func (g *GoogleGeocoder) Resolve(ctx context.Context, query string) (weather.Place, error) {
	if err := ctx.Err(); err != nil {
		return weather.Place{}, fmt.Errorf("%w: %w", weather.ErrNotFound, err)
	}

	googleMu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := g.forward(geocoder.Address{City: query})
	var addrs []geocoder.Address
	var revErr error
	if err == nil {
		// The forward call only yields coordinates; the address parts come
		// from a reverse lookup of the match.
		addrs, revErr = g.reverse(loc)
	}
	googleMu.Unlock()
	if err != nil {
		g.log.Debugw("google geocoding failed", "query", query, "error", err)
		return weather.Place{}, fmt.Errorf("%w: %q: %w", weather.ErrNotFound, query, err)
	}

	a := geocoder.Address{City: query}
	if revErr == nil && len(addrs) > 0 {
		a = addrs[0]
		if a.City == "" {
			a.City = query
		}
	} else if revErr != nil {
		g.log.Debugw("google reverse lookup for label failed", "query", query, "error", revErr)
	}
	return weather.NewPlace(a.City, a.State, a.Country, loc.Latitude, loc.Longitude), nil
}

// Reverse returns the first address Google reports for the coordinates.
// Lookup errors yield no place.
func (g *GoogleGeocoder) Reverse(ctx context.Context, lat, lon float64) (*weather.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	googleMu.Lock()
	geocoder.ApiKey = g.apiKey
	addrs, err := g.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
	googleMu.Unlock()
	if err != nil {
		g.log.Debugw("google reverse geocoding returned no place", "lat", lat, "lon", lon, "error", err)
		return nil, nil
	}
	if len(addrs) == 0 {
		return nil, nil
	}

	p := googlePlace(addrs[0], lat, lon)
	return &p, nil
}

func googlePlace(a geocoder.Address, lat, lon float64) weather.Place {
	name := a.City
	if name == "" {
		name = a.FormattedAddress
	}
	return weather.NewPlace(name, a.State, a.Country, lat, lon)
}

var _ weather.Resolver = (*GoogleGeocoder)(nil)
