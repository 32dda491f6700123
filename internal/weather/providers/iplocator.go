package providers

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-quicklook/internal/weather"
)

// DefaultIPLocatorURL is the ip-api.com lookup for the caller's address.
const DefaultIPLocatorURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// IPLocator implements weather.Locator by geolocating the public IP address.
type IPLocator struct {
	url     string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

// NewIPLocator creates a locator. An empty url selects DefaultIPLocatorURL.
func NewIPLocator(httpCfg HTTPClientConfig, url string, log *zap.SugaredLogger) *IPLocator {
	if url == "" {
		url = DefaultIPLocatorURL
	}
	return &IPLocator{
		url:     url,
		httpCfg: httpCfg,
		circuit: newCircuitBreaker("ip-locator", log),
		log:     log,
	}
}

// Locate reports the approximate position. Any failure is a refusal.
func (l *IPLocator) Locate(ctx context.Context) (weather.Coordinates, error) {
	var payload struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}

	if err := getJSON(ctx, l.httpCfg, l.circuit, l.url, &payload); err != nil {
		l.log.Debugw("ip geolocation failed", "error", err)
		return weather.Coordinates{}, fmt.Errorf("%w: %w", weather.ErrPermissionDenied, err)
	}
	if payload.Status != "success" {
		return weather.Coordinates{}, fmt.Errorf("%w: %s", weather.ErrPermissionDenied, payload.Message)
	}

	return weather.Coordinates{Latitude: payload.Lat, Longitude: payload.Lon}, nil
}

var _ weather.Locator = (*IPLocator)(nil)
