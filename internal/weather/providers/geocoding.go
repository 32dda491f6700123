package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-quicklook/internal/weather"
)

const (
	DefaultGeocodingSearchURL  = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultGeocodingReverseURL = "https://geocoding-api.open-meteo.com/v1/reverse"
)

// OpenMeteoGeocoder implements weather.Resolver against the Open-Meteo
// geocoding API.
type OpenMeteoGeocoder struct {
	searchURL  string
	reverseURL string
	httpCfg    HTTPClientConfig
	search     *gobreaker.CircuitBreaker
	reverse    *gobreaker.CircuitBreaker
	log        *zap.SugaredLogger
}

// NewOpenMeteoGeocoder creates a resolver. Empty URLs select the defaults.
func NewOpenMeteoGeocoder(httpCfg HTTPClientConfig, searchURL, reverseURL string, log *zap.SugaredLogger) *OpenMeteoGeocoder {
	if searchURL == "" {
		searchURL = DefaultGeocodingSearchURL
	}
	if reverseURL == "" {
		reverseURL = DefaultGeocodingReverseURL
	}
	return &OpenMeteoGeocoder{
		searchURL:  searchURL,
		reverseURL: reverseURL,
		httpCfg:    httpCfg,
		search:     newCircuitBreaker("openmeteo-geocoding-search", log),
		reverse:    newTransportBreaker("openmeteo-geocoding-reverse", log),
		log:        log,
	}
}

type geocodingResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
}

type geocodingPayload struct {
	Results []geocodingResult `json:"results"`
}

func (r geocodingResult) place() weather.Place {
	return weather.NewPlace(r.Name, r.Admin1, r.Country, r.Latitude, r.Longitude)
}

// Resolve looks up the single best match for a place name.
func (g *OpenMeteoGeocoder) Resolve(ctx context.Context, query string) (weather.Place, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", "1")
	values.Set("language", "en")
	values.Set("format", "json")

	var payload geocodingPayload
	if err := getJSON(ctx, g.httpCfg, g.search, g.searchURL+"?"+values.Encode(), &payload); err != nil {
		g.log.Debugw("geocoding search failed", "query", query, "error", err)
		return weather.Place{}, fmt.Errorf("%w: %q: %w", weather.ErrNotFound, query, err)
	}
	if len(payload.Results) == 0 {
		return weather.Place{}, fmt.Errorf("%w: %q", weather.ErrNotFound, query)
	}

	return payload.Results[0].place(), nil
}

// Reverse looks up the place nearest to the coordinates. An error status or
// an empty result set yields (nil, nil); only a failed exchange is an error.
func (g *OpenMeteoGeocoder) Reverse(ctx context.Context, lat, lon float64) (*weather.Place, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("language", "en")
	values.Set("format", "json")

	var payload geocodingPayload
	err := getJSON(ctx, g.httpCfg, g.reverse, g.reverseURL+"?"+values.Encode(), &payload)
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		g.log.Debugw("reverse geocoding returned no place", "lat", lat, "lon", lon, "status", statusErr.Code)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}

	if len(payload.Results) == 0 {
		return nil, nil
	}
	p := payload.Results[0].place()
	return &p, nil
}

var _ weather.Resolver = (*OpenMeteoGeocoder)(nil)
