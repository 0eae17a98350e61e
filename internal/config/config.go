package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"courtfinder/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultMaxRetries = 2

type Config struct {
	App        AppConfig        `yaml:"app"`
	Provider   ProviderConfig   `yaml:"provider"`
	Engine     EngineConfig     `yaml:"engine"`
	Registry   RegistryConfig   `yaml:"registry"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// ProviderConfig describes the eBuSy reservation endpoint.
type ProviderConfig struct {
	BaseURL        string      `yaml:"base_url"`
	Path           string      `yaml:"path"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	CacheTTL       int         `yaml:"cache_ttl_seconds"`
	Retry          RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	// MaxRetries is nil when unset; an explicit 0 disables retries.
	MaxRetries     *int    `yaml:"max_retries"`
	InitialDelayMS int     `yaml:"initial_delay_ms"`
	MaxDelayMS     int     `yaml:"max_delay_ms"`
	BackoffFactor  float64 `yaml:"backoff_factor"`
}

type EngineConfig struct {
	OpenHour               int    `yaml:"open_hour"`
	CloseHour              int    `yaml:"close_hour"`
	DefaultDurationMinutes int    `yaml:"default_duration_minutes"`
	SearchRadiusHours      int    `yaml:"search_radius_hours"`
	Timezone               string `yaml:"timezone"`
}

type RegistryConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return errors.New("provider base_url is required")
	}
	if u, err := url.Parse(c.Provider.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("provider base_url %q is not an absolute URL", c.Provider.BaseURL)
	}
	if c.Provider.CacheTTL < 0 {
		return errors.New("provider cache_ttl_seconds must not be negative")
	}
	if c.Provider.Retry.Retries() < 0 {
		return errors.New("provider retry.max_retries must not be negative")
	}

	return c.Engine.Validate()
}

func (e EngineConfig) Validate() error {
	if e.OpenHour < 0 || e.CloseHour > 24 || e.OpenHour >= e.CloseHour {
		return fmt.Errorf("invalid operating window %02d:00-%02d:00", e.OpenHour, e.CloseHour)
	}
	if e.DefaultDurationMinutes <= 0 {
		return errors.New("engine default_duration_minutes must be positive")
	}
	if e.SearchRadiusHours < 0 {
		return errors.New("engine search_radius_hours must not be negative")
	}
	if _, err := time.LoadLocation(e.Timezone); err != nil {
		return fmt.Errorf("engine timezone: %w", err)
	}
	return nil
}

// Window returns the configured operating window.
func (e EngineConfig) Window() models.OperatingWindow {
	return models.OperatingWindow{Open: e.OpenHour, Close: e.CloseHour}
}

// Location resolves the configured timezone; Validate guarantees it loads.
func (e EngineConfig) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Retries returns the configured retry count or the default when unset.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return defaultMaxRetries
	}
	return *r.MaxRetries
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (c *Config) applyDefaults() {
	if c.Provider.Path == "" {
		c.Provider.Path = "/lite-module/891"
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 10
	}
	if c.Provider.Retry.MaxRetries == nil {
		retries := defaultMaxRetries
		c.Provider.Retry.MaxRetries = &retries
	}
	if c.Provider.Retry.InitialDelayMS == 0 {
		c.Provider.Retry.InitialDelayMS = 200
	}
	if c.Provider.Retry.MaxDelayMS == 0 {
		c.Provider.Retry.MaxDelayMS = 2000
	}
	if c.Provider.Retry.BackoffFactor == 0 {
		c.Provider.Retry.BackoffFactor = 2
	}

	// Engine defaults
	if c.Engine.OpenHour == 0 && c.Engine.CloseHour == 0 {
		c.Engine.OpenHour = models.DefaultOpenHour
		c.Engine.CloseHour = models.DefaultCloseHour
	}
	if c.Engine.DefaultDurationMinutes == 0 {
		c.Engine.DefaultDurationMinutes = int(models.DefaultDuration / time.Minute)
	}
	if c.Engine.SearchRadiusHours == 0 {
		c.Engine.SearchRadiusHours = models.DefaultSearchRadiusHours
	}
	if c.Engine.Timezone == "" {
		c.Engine.Timezone = "Europe/Berlin"
	}

	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
}
