package api

import (
	"net/http"
	"testing"

	"courtfinder/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "courts-key", Extra: "courts-extra", Name: "kiosk", Permissions: []string{"read:courts"}},
				{Key: "all-key", Extra: "all-extra", Name: "assistant"},
			},
		},
	}
}

func doWithKey(t *testing.T, url, key, extra string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	if extra != "" {
		req.Header.Set("x-api-extra", extra)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestAuth(t *testing.T) {
	ts := newTestHTTPServer(t, authConfig(), &stubFetcher{}, nil)
	courts := ts.URL + "/api/v1/courts"
	day := ts.URL + "/api/v1/availability?date=14.06.2025"

	t.Run("MissingHeaders", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doWithKey(t, courts, "", ""))
		assert.Equal(t, http.StatusUnauthorized, doWithKey(t, courts, "courts-key", ""))
	})

	t.Run("InvalidKey", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doWithKey(t, courts, "wrong", "courts-extra"))
	})

	t.Run("InvalidExtra", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doWithKey(t, courts, "courts-key", "wrong"))
	})

	t.Run("ValidKey", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doWithKey(t, courts, "courts-key", "courts-extra"))
	})

	t.Run("WrongPermission", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, doWithKey(t, day, "courts-key", "courts-extra"))
	})

	t.Run("EmptyPermissionsAllowAll", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doWithKey(t, day, "all-key", "all-extra"))
		assert.Equal(t, http.StatusOK, doWithKey(t, courts, "all-key", "all-extra"))
	})

	t.Run("HealthIsOpen", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doWithKey(t, ts.URL+"/healthz", "", ""))
	})
}

func TestAuthDisabledAPI(t *testing.T) {
	cfg := authConfig()
	cfg.Enabled = false
	ts := newTestHTTPServer(t, cfg, &stubFetcher{}, nil)

	assert.Equal(t, http.StatusOK, doWithKey(t, ts.URL+"/api/v1/courts", "", ""))
}

func TestRateLimit(t *testing.T) {
	cfg := openConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 1}
	ts := newTestHTTPServer(t, cfg, &stubFetcher{}, nil)

	assert.Equal(t, http.StatusOK, doWithKey(t, ts.URL+"/api/v1/courts", "", ""))
	assert.Equal(t, http.StatusTooManyRequests, doWithKey(t, ts.URL+"/api/v1/courts", "", ""))

	// другой ключ получает свой бакет
	assert.Equal(t, http.StatusOK, doWithKey(t, ts.URL+"/api/v1/courts", "someone-else", ""))

	// пробы не лимитируются
	assert.Equal(t, http.StatusOK, doWithKey(t, ts.URL+"/healthz", "", ""))
	assert.Equal(t, http.StatusOK, doWithKey(t, ts.URL+"/healthz", "", ""))
}

func TestRequiredPermission(t *testing.T) {
	assert.Equal(t, permReadAvailability, requiredPermission("/api/v1/availability"))
	assert.Equal(t, permReadAvailability, requiredPermission("/api/v1/availability/check"))
	assert.Equal(t, permReadAvailability, requiredPermission("/api/v1/alternatives"))
	assert.Equal(t, permReadCourts, requiredPermission("/api/v1/courts"))
	assert.Equal(t, "", requiredPermission("/healthz"))
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/api/v1/courts", endpointLabel("/api/v1/courts"))
	assert.Equal(t, "other", endpointLabel("/api/v1/courts/../../etc"))
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b,"))
}
