package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("EBUSY_BASE_URL", "https://club.example.org")

	yamlContent := `
app:
  name: courtfinder
provider:
  base_url: "${EBUSY_BASE_URL}"
  cache_ttl_seconds: 30
engine:
  timezone: UTC
api:
  enabled: true
  auth:
    enabled: true
    api_keys:
      - key: k1
        extra: e1
        permissions: ["read:availability"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "https://club.example.org", cfg.Provider.BaseURL)
	assert.Equal(t, "/lite-module/891", cfg.Provider.Path)
	assert.Equal(t, 30, cfg.Provider.CacheTTL)
	assert.Equal(t, 10, cfg.Provider.TimeoutSeconds)
	assert.Equal(t, 2, cfg.Provider.Retry.Retries())

	assert.Equal(t, 7, cfg.Engine.OpenHour)
	assert.Equal(t, 22, cfg.Engine.CloseHour)
	assert.Equal(t, 60, cfg.Engine.DefaultDurationMinutes)
	assert.Equal(t, 2, cfg.Engine.SearchRadiusHours)

	assert.True(t, cfg.API.HTTP.Enabled)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	require.Len(t, cfg.API.Auth.APIKeys, 1)
	assert.Equal(t, "k1", cfg.API.Auth.APIKeys[0].Key)
}

func TestLoadConfigRetriesDisabled(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
provider:
  base_url: "https://club.example.org"
  retry:
    max_retries: 0
engine:
  timezone: UTC
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg.Provider.Retry.MaxRetries)
	assert.Equal(t, 0, cfg.Provider.Retry.Retries())

	var unset RetryConfig
	assert.Equal(t, 2, unset.Retries())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			Provider: ProviderConfig{BaseURL: "https://club.example.org"},
			Engine: EngineConfig{
				OpenHour:               7,
				CloseHour:              22,
				DefaultDurationMinutes: 60,
				SearchRadiusHours:      2,
				Timezone:               "UTC",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.Provider.BaseURL = "" }, wantErr: true},
		{name: "relative base url", mutate: func(c *Config) { c.Provider.BaseURL = "/lite" }, wantErr: true},
		{name: "negative cache ttl", mutate: func(c *Config) { c.Provider.CacheTTL = -1 }, wantErr: true},
		{name: "inverted window", mutate: func(c *Config) { c.Engine.OpenHour = 22; c.Engine.CloseHour = 7 }, wantErr: true},
		{name: "close after midnight", mutate: func(c *Config) { c.Engine.CloseHour = 25 }, wantErr: true},
		{name: "zero duration", mutate: func(c *Config) { c.Engine.DefaultDurationMinutes = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { n := -1; c.Provider.Retry.MaxRetries = &n }, wantErr: true},
		{name: "unknown timezone", mutate: func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEngineWindowAndLocation(t *testing.T) {
	e := EngineConfig{OpenHour: 8, CloseHour: 20, Timezone: "UTC"}
	w := e.Window()
	assert.Equal(t, 8, w.Open)
	assert.Equal(t, 20, w.Close)
	assert.Equal(t, "UTC", e.Location().String())
}
