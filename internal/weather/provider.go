package weather

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a place query has no match or the
	// geocoding lookup itself failed.
	ErrNotFound = errors.New("place not found")
	// ErrFetch is returned when the forecast lookup failed.
	ErrFetch = errors.New("weather fetch failed")
	// ErrCapabilityUnavailable is returned when no geolocation source is configured.
	ErrCapabilityUnavailable = errors.New("geolocation is not supported")
	// ErrPermissionDenied is returned when the geolocation source refused or failed.
	ErrPermissionDenied = errors.New("location access denied")
)

// Resolver turns a free-text query or a coordinate pair into a Place.
type Resolver interface {
	// Resolve returns the best match for query, or an error wrapping ErrNotFound.
	Resolve(ctx context.Context, query string) (Place, error)
	// Reverse returns the place nearest to the coordinates. A nil Place with
	// a nil error means no place is known there.
	Reverse(ctx context.Context, lat, lon float64) (*Place, error)
}

// Forecaster fetches current conditions and the daily outlook for a position.
type Forecaster interface {
	// Forecast returns the raw provider response, or an error wrapping ErrFetch.
	Forecast(ctx context.Context, lat, lon float64) (*Forecast, error)
}

type bypassCacheKey struct{}

// BypassCache marks ctx so that caching Forecasters fetch a fresh response
// instead of serving a stored one. The fresh response is still stored.
func BypassCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassCacheKey{}, true)
}

// CacheBypassed reports whether ctx was marked by BypassCache.
func CacheBypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassCacheKey{}).(bool)
	return v
}

// Locator reports the device position.
type Locator interface {
	// Locate returns the current coordinates, or an error wrapping ErrPermissionDenied.
	Locate(ctx context.Context) (Coordinates, error)
}

// StaticLocator always reports the same position.
type StaticLocator Coordinates

// Locate implements Locator.
func (s StaticLocator) Locate(ctx context.Context) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, errors.Join(ErrPermissionDenied, err)
	}
	return Coordinates(s), nil
}
