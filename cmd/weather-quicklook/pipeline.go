package main

import (
	"context"
	"net/http"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-quicklook/internal/cache"
	"github.com/i474232898/weather-quicklook/internal/config"
	"github.com/i474232898/weather-quicklook/internal/session"
	"github.com/i474232898/weather-quicklook/internal/weather"
	"github.com/i474232898/weather-quicklook/internal/weather/providers"
)

// pipeline holds the collaborators every session shares.
type pipeline struct {
	resolver   weather.Resolver
	forecaster weather.Forecaster
	locator    weather.Locator
	unit       weather.Unit
	log        *zap.SugaredLogger
	redis      *redisv9.Client
}

func buildPipeline(ctx context.Context, cfg *config.AppConfig, log *zap.SugaredLogger) *pipeline {
	// Shared HTTP client for outbound provider calls.
	httpCfg := providers.DefaultHTTPConfig(&http.Client{Timeout: cfg.HTTPTimeout})
	if cfg.RateLimit > 0 {
		httpCfg.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	p := &pipeline{unit: cfg.Unit, log: log}

	if cfg.GoogleAPIKey != "" {
		log.Infow("place resolution via google geocoding")
		p.resolver = providers.NewGoogleGeocoder(cfg.GoogleAPIKey, log)
	} else {
		p.resolver = providers.NewOpenMeteoGeocoder(httpCfg, cfg.GeocodingSearchURL, cfg.GeocodingReverseURL, log)
	}

	p.forecaster = providers.NewOpenMeteoProvider(httpCfg, cfg.ForecastURL, log)
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warnw("redis unavailable, forecast cache disabled", "addr", cfg.RedisAddr, "error", err)
			_ = client.Close()
		} else {
			p.redis = client
			p.forecaster = cache.NewForecastCache(p.forecaster, client, cfg.CacheTTL, log)
		}
	}

	switch cfg.Geolocation.Mode {
	case config.GeoStatic:
		p.locator = weather.StaticLocator{Latitude: cfg.Geolocation.Latitude, Longitude: cfg.Geolocation.Longitude}
	case config.GeoIP:
		p.locator = providers.NewIPLocator(httpCfg, cfg.Geolocation.IPURL, log)
	}

	return p
}

// NewSession creates a controller over the shared collaborators.
func (p *pipeline) NewSession(opts ...session.Option) *session.Controller {
	base := []session.Option{session.WithUnit(p.unit), session.WithLogger(p.log)}
	if p.locator != nil {
		base = append(base, session.WithLocator(p.locator))
	}
	return session.New(p.resolver, p.forecaster, append(base, opts...)...)
}

func (p *pipeline) Close() {
	if p.redis != nil {
		if err := p.redis.Close(); err != nil {
			p.log.Warnw("closing redis client", "error", err)
		}
	}
}
