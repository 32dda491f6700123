package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/i474232898/weather-quicklook/internal/weather"
)

// redisClient is the subset of the go-redis client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// ForecastCache wraps a Forecaster and keeps its responses in Redis.
// Cache failures never fail a lookup; they fall through to the provider.
type ForecastCache struct {
	next   weather.Forecaster
	client redisClient
	ttl    time.Duration
	log    *zap.SugaredLogger
}

// NewForecastCache creates the decorator.
func NewForecastCache(next weather.Forecaster, client redisClient, ttl time.Duration, log *zap.SugaredLogger) *ForecastCache {
	return &ForecastCache{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// NewRedisClient creates a go-redis client for addr.
func NewRedisClient(addr string) *redisv9.Client {
	return redisv9.NewClient(&redisv9.Options{Addr: addr})
}

// Key returns the cache key for a position, rounded to about 11 metres.
func Key(lat, lon float64) string {
	return fmt.Sprintf("forecast:%.4f:%.4f", lat, lon)
}

// Forecast returns the cached response when present, otherwise fetches
// and stores it. A context marked with weather.BypassCache always fetches.
func (c *ForecastCache) Forecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error) {
	key := Key(lat, lon)

	if weather.CacheBypassed(ctx) {
		c.log.Debugw("forecast cache bypassed", "key", key)
	} else if f, err := c.get(ctx, key); err == nil {
		c.log.Debugw("forecast cache hit", "key", key)
		return f, nil
	} else if !errors.Is(err, redisv9.Nil) {
		c.log.Warnw("forecast cache read failed", "key", key, "error", err)
	}

	f, err := c.next.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(f); err == nil {
		if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
			c.log.Warnw("forecast cache write failed", "key", key, "error", err)
		}
	}
	return f, nil
}

func (c *ForecastCache) get(ctx context.Context, key string) (*weather.Forecast, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var f weather.Forecast
	if err := json.Unmarshal([]byte(val), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

var _ weather.Forecaster = (*ForecastCache)(nil)
