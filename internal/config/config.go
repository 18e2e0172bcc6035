package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultCountriesURL = "https://restcountries.com/v3.1"
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1"
	defaultWeatherURL   = "https://api.open-meteo.com/v1"

	defaultUpstreamTimeout = 10 * time.Second
	defaultRequestTimeout  = 25 * time.Second
)

// Upstream is the endpoint and per-call timeout of one provider.
type Upstream struct {
	URL     string
	Timeout time.Duration
}

// Config holds service configuration loaded from YAML, .env and the environment.
type Config struct {
	ServerPort string

	Countries Upstream
	Geocoding Upstream
	Weather   Upstream

	RequestTimeout time.Duration

	NameMinLength int
	NameMaxLength int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	DegradedWindow   time.Duration
	DegradedErrorPct int

	TrackedCountries []string
}

type upstreamFile struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Upstreams struct {
		Countries upstreamFile `yaml:"countries"`
		Geocoding upstreamFile `yaml:"geocoding"`
		Weather   upstreamFile `yaml:"weather"`
	} `yaml:"upstreams"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Validation struct {
		NameMinLength int `yaml:"name_min_length"`
		NameMaxLength int `yaml:"name_max_length"`
	} `yaml:"validation"`

	CircuitBreaker struct {
		Enabled          bool   `yaml:"enabled"`
		FailureThreshold int    `yaml:"failure_threshold"`
		SuccessThreshold int    `yaml:"success_threshold"`
		Timeout          string `yaml:"timeout"`
	} `yaml:"circuit_breaker"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`

	Metrics struct {
		TrackedCountries []string `yaml:"tracked_countries"`
	} `yaml:"metrics"`
}

// Load reads config/{ENV_NAME}.yaml (default dev) relative to the working
// directory. A .env file in the working directory, when present, is loaded
// first; it never overrides variables already set. SERVER_PORT,
// COUNTRY_API_URL, GEOCODING_API_URL and WEATHER_API_URL override the file.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	dotEnv := filepath.Join(cwd, ".env")
	if _, err := os.Stat(dotEnv); err == nil {
		if err := godotenv.Load(dotEnv); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("SERVER_PORT"), fc.Server.Port, "8080")

	cfg.Countries = loadUpstream(fc.Upstreams.Countries, os.Getenv("COUNTRY_API_URL"), defaultCountriesURL)
	cfg.Geocoding = loadUpstream(fc.Upstreams.Geocoding, os.Getenv("GEOCODING_API_URL"), defaultGeocodingURL)
	cfg.Weather = loadUpstream(fc.Upstreams.Weather, os.Getenv("WEATHER_API_URL"), defaultWeatherURL)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, defaultRequestTimeout)

	cfg.NameMinLength = fc.Validation.NameMinLength
	if cfg.NameMinLength <= 0 {
		cfg.NameMinLength = 1
	}
	cfg.NameMaxLength = fc.Validation.NameMaxLength
	if cfg.NameMaxLength <= 0 {
		cfg.NameMaxLength = 100
	}

	cfg.CircuitBreakerEnabled = fc.CircuitBreaker.Enabled
	cfg.CircuitBreakerFailureThreshold = fc.CircuitBreaker.FailureThreshold
	if cfg.CircuitBreakerFailureThreshold <= 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerSuccessThreshold = fc.CircuitBreaker.SuccessThreshold
	if cfg.CircuitBreakerSuccessThreshold <= 0 {
		cfg.CircuitBreakerSuccessThreshold = 2
	}
	cfg.CircuitBreakerTimeout = parseDuration(fc.CircuitBreaker.Timeout, 30*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 25
	}

	for _, c := range fc.Metrics.TrackedCountries {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			cfg.TrackedCountries = append(cfg.TrackedCountries, c)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadUpstream(f upstreamFile, envURL, defaultURL string) Upstream {
	return Upstream{
		URL:     firstNonEmpty(strings.TrimSpace(envURL), strings.TrimSpace(f.URL), defaultURL),
		Timeout: parseDurationOrZero(f.Timeout, defaultUpstreamTimeout),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Zero or negative durations are returned as-is for validate to reject.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate rejects non-positive upstream timeouts and inconsistent bounds.
// RequestTimeout is raised above the slowest upstream timeout when needed.
func validate(cfg *Config) error {
	upstreams := []struct {
		name string
		u    Upstream
	}{
		{"upstreams.countries", cfg.Countries},
		{"upstreams.geocoding", cfg.Geocoding},
		{"upstreams.weather", cfg.Weather},
	}
	var slowest time.Duration
	for _, up := range upstreams {
		if up.u.Timeout <= 0 {
			return fmt.Errorf("%s.timeout must be positive", up.name)
		}
		if up.u.Timeout > slowest {
			slowest = up.u.Timeout
		}
	}
	if cfg.RequestTimeout <= slowest {
		cfg.RequestTimeout = slowest + time.Second
	}
	if cfg.NameMinLength > cfg.NameMaxLength {
		return fmt.Errorf("validation.name_min_length (%d) exceeds name_max_length (%d)", cfg.NameMinLength, cfg.NameMaxLength)
	}
	if cfg.DegradedErrorPct > 100 {
		return fmt.Errorf("lifecycle.degraded_error_pct must be at most 100, got %d", cfg.DegradedErrorPct)
	}
	return nil
}
