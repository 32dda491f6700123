package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/i474232898/weather-quicklook/internal/weather"
)

// Geolocation modes.
const (
	GeoNone   = "none"
	GeoStatic = "static"
	GeoIP     = "ip"
)

type AppConfig struct {
	// Outbound HTTP. A zero timeout waits indefinitely.
	HTTPTimeout time.Duration
	RateLimit   float64 // requests per second across providers (0 = unlimited)
	RateBurst   int

	ForecastURL         string
	GeocodingSearchURL  string
	GeocodingReverseURL string

	// GoogleAPIKey switches place resolution to Google geocoding.
	GoogleAPIKey string

	Geolocation GeolocationConfig

	// Unit is the initial temperature unit of every session.
	Unit weather.Unit

	// Optional Redis forecast cache; empty RedisAddr disables it.
	RedisAddr string
	CacheTTL  time.Duration

	// HTTP API.
	Port           string
	RequestTimeout time.Duration
	MaxSessions    int
	SessionMaxAge  time.Duration

	// Background refresh of shown forecasts (0 = disabled).
	RefreshInterval time.Duration
	RefreshTimeout  time.Duration

	LogLevel string
}

// GeolocationConfig selects the device position source.
type GeolocationConfig struct {
	Mode      string
	Latitude  float64
	Longitude float64
	IPURL     string
}

// Load reads configuration from .env, an optional YAML file and the
// environment (QUICKLOOK_ prefix, "." becomes "_"), with defaults.
// An empty path looks for config.yaml in the working directory.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QUICKLOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.rate_limit", 0)
	v.SetDefault("http.rate_burst", 5)
	v.SetDefault("openmeteo.forecast_url", "")
	v.SetDefault("openmeteo.geocoding_search_url", "")
	v.SetDefault("openmeteo.geocoding_reverse_url", "")
	v.SetDefault("google.api_key", "")
	v.SetDefault("geolocation.mode", GeoNone)
	v.SetDefault("geolocation.latitude", 0)
	v.SetDefault("geolocation.longitude", 0)
	v.SetDefault("geolocation.ip_url", "")
	v.SetDefault("unit", "C")
	v.SetDefault("redis.addr", "")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.max_sessions", 1000)
	v.SetDefault("server.session_max_age", "24h")
	v.SetDefault("refresh.interval", "0s")
	v.SetDefault("refresh.timeout", "30s")
	v.SetDefault("log.level", "warn")
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		RateLimit:           v.GetFloat64("http.rate_limit"),
		RateBurst:           v.GetInt("http.rate_burst"),
		ForecastURL:         v.GetString("openmeteo.forecast_url"),
		GeocodingSearchURL:  v.GetString("openmeteo.geocoding_search_url"),
		GeocodingReverseURL: v.GetString("openmeteo.geocoding_reverse_url"),
		GoogleAPIKey:        v.GetString("google.api_key"),
		Geolocation: GeolocationConfig{
			Mode:      strings.ToLower(v.GetString("geolocation.mode")),
			Latitude:  v.GetFloat64("geolocation.latitude"),
			Longitude: v.GetFloat64("geolocation.longitude"),
			IPURL:     v.GetString("geolocation.ip_url"),
		},
		RedisAddr:   v.GetString("redis.addr"),
		Port:        v.GetString("server.port"),
		MaxSessions: v.GetInt("server.max_sessions"),
		LogLevel:    v.GetString("log.level"),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"http.timeout", &cfg.HTTPTimeout},
		{"cache.ttl", &cfg.CacheTTL},
		{"server.request_timeout", &cfg.RequestTimeout},
		{"server.session_max_age", &cfg.SessionMaxAge},
		{"refresh.interval", &cfg.RefreshInterval},
		{"refresh.timeout", &cfg.RefreshTimeout},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	unit, err := weather.ParseUnit(v.GetString("unit"))
	if err != nil {
		return nil, fmt.Errorf("invalid unit: %w", err)
	}
	cfg.Unit = unit

	switch cfg.Geolocation.Mode {
	case GeoNone, GeoStatic, GeoIP:
	default:
		return nil, fmt.Errorf("invalid geolocation.mode %q: want none, static or ip", cfg.Geolocation.Mode)
	}

	return cfg, nil
}

// NewLogger builds the application logger. "debug" selects the development
// encoder; other levels use the production JSON encoder.
func NewLogger(level string) (*zap.SugaredLogger, error) {
	if strings.EqualFold(level, "debug") {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return l.Sugar(), nil
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
