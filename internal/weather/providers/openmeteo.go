package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-quicklook/internal/weather"
)

// DefaultForecastURL is the Open-Meteo forecast endpoint.
const DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

const dailyFields = "weathercode,temperature_2m_max,temperature_2m_min,precipitation_sum"

// OpenMeteoProvider implements weather.Forecaster for Open-Meteo.
type OpenMeteoProvider struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

// NewOpenMeteoProvider creates a forecast provider. An empty baseURL selects
// DefaultForecastURL.
func NewOpenMeteoProvider(httpCfg HTTPClientConfig, baseURL string, log *zap.SugaredLogger) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultForecastURL
	}
	return &OpenMeteoProvider{
		baseURL: baseURL,
		httpCfg: httpCfg,
		circuit: newCircuitBreaker("openmeteo-forecast", log),
		log:     log,
	}
}

// Forecast fetches current conditions and daily aggregates in a single
// request, with the timezone resolved by the provider.
func (p *OpenMeteoProvider) Forecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("daily", dailyFields)
	values.Set("current_weather", "true")
	values.Set("timezone", "auto")

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())

	var payload weather.Forecast
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &payload); err != nil {
		p.log.Debugw("forecast request failed", "lat", lat, "lon", lon, "error", err)
		return nil, fmt.Errorf("%w: %w", weather.ErrFetch, err)
	}

	p.log.Debugw("forecast fetched", "lat", lat, "lon", lon, "days", len(payload.Daily.Time), "timezone", payload.Timezone)
	return &payload, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ weather.Forecaster = (*OpenMeteoProvider)(nil)
