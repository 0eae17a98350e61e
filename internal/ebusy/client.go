// Package ebusy fetches the club's daily reservations from the eBuSy booking system.
package ebusy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"courtfinder/internal/metrics"
	"courtfinder/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultPath    = "/lite-module/891"
	maxBodyBytes   = 5 << 20
	cacheKeyPrefix = "ebusy:reservations:"
	userAgent      = "courtfinder/1.0"
)

// Translator maps provider court ids to canonical registry ids.
type Translator interface {
	CanonicalID(providerID int64) (int, bool)
}

// Options configures the client. Zero values fall back to defaults.
type Options struct {
	BaseURL string
	Path    string
	Timeout time.Duration
	Retry   RetryPolicy
}

// Client retrieves the full reservation list of a day in a single call.
type Client struct {
	baseURL    string
	path       string
	httpClient *http.Client
	translator Translator
	retry      RetryPolicy
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// FetchResult carries the translated reservations of one day. When Status is
// FetchStatusUnavailable the list is empty and Err says why.
type FetchResult struct {
	Date         time.Time
	Reservations []models.Reservation
	Status       string
	Err          error
}

// Verified reports whether the reservations reflect the backend's data.
func (r *FetchResult) Verified() bool {
	return r != nil && r.Status != models.FetchStatusUnavailable
}

type reservationsPayload struct {
	Reservations *[]models.RawReservation `json:"reservations"`
}

// NewClient constructs a client with baseURL, translator and logger.
func NewClient(opts Options, translator Translator, logger *zerolog.Logger) *Client {
	if opts.Path == "" {
		opts.Path = defaultPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retry.MaxRetries < 0 {
		opts.Retry.MaxRetries = 0
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		path:       opts.Path,
		httpClient: &http.Client{Timeout: opts.Timeout},
		translator: translator,
		retry:      opts.Retry,
		logger:     logger,
	}
}

// UseRedisCache configures an optional short-lived snapshot cache. A ttl of
// zero keeps every query going to the backend.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// Fetch returns the reservations of date with provider court ids translated.
// Backend failures degrade to an empty, unverified result; only an unmapped
// provider court id is returned as an error.
func (c *Client) Fetch(ctx context.Context, date time.Time) (*FetchResult, error) {
	start := time.Now()
	dateStr := date.Format(models.ProviderDateLayout)
	log := c.logger.With().Str("date", dateStr).Logger()

	raw, status, err := c.load(ctx, dateStr)
	if err != nil {
		metrics.ObserveFetch(models.FetchStatusUnavailable, time.Since(start))
		log.Warn().Err(err).Msg("booking backend unavailable, assuming no reservations")
		return &FetchResult{Date: date, Reservations: []models.Reservation{}, Status: models.FetchStatusUnavailable, Err: err}, nil
	}

	reservations, err := c.translate(raw)
	if err != nil {
		metrics.ObserveFetch("integrity_error", time.Since(start))
		log.Error().Err(err).Msg("reservation payload references unknown court")
		return nil, err
	}

	outcome := status
	switch {
	case status == models.FetchStatusCached:
		outcome = "cache_hit"
	case len(reservations) == 0:
		outcome = "empty"
	}
	metrics.ObserveFetch(outcome, time.Since(start))

	if len(reservations) == 0 {
		log.Info().Str("source", status).Msg("no reservations for date")
	} else {
		log.Debug().Str("source", status).Int("reservations", len(reservations)).Msg("reservations fetched")
	}

	return &FetchResult{Date: date, Reservations: reservations, Status: status}, nil
}

func (c *Client) load(ctx context.Context, dateStr string) ([]models.RawReservation, string, error) {
	cacheKey := cacheKeyPrefix + dateStr
	var cached []models.RawReservation
	if c.readCache(ctx, cacheKey, &cached) {
		return cached, models.FetchStatusCached, nil
	}

	raw, err := c.fetchWithRetry(ctx, c.endpoint(dateStr))
	if err != nil {
		return nil, "", err
	}
	c.writeCache(ctx, cacheKey, raw)
	return raw, models.FetchStatusOK, nil
}

func (c *Client) endpoint(dateStr string) string {
	q := url.Values{}
	q.Set("timestamp", "")
	q.Set("currentDate", dateStr)
	return fmt.Sprintf("%s%s?%s", c.baseURL, c.path, q.Encode())
}

func (c *Client) fetchWithRetry(ctx context.Context, endpoint string) ([]models.RawReservation, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.retry.Wait(ctx, attempt); err != nil {
				return nil, &models.UpstreamUnavailableError{Op: "fetch reservations", Err: err}
			}
			c.logger.Debug().Int("attempt", attempt).Err(lastErr).Msg("retrying reservation fetch")
		}

		raw, retryable, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// fetchOnce performs one GET. The bool reports whether a failure is worth retrying.
func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]models.RawReservation, bool, error) {
	const op = "fetch reservations"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, &models.UpstreamUnavailableError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, &models.UpstreamUnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, &models.UpstreamUnavailableError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, &models.UpstreamUnavailableError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	var payload reservationsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, &models.UpstreamUnavailableError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	if payload.Reservations == nil {
		return nil, false, &models.UpstreamUnavailableError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New("response has no reservations field"),
		}
	}
	return *payload.Reservations, false, nil
}

// translate maps provider court ids to registry ids. Records without a court
// are passed through so the parser can report them.
func (c *Client) translate(raw []models.RawReservation) ([]models.Reservation, error) {
	out := make([]models.Reservation, 0, len(raw))
	for _, r := range raw {
		res := models.Reservation{Date: r.Date, FromTime: r.FromTime, ToTime: r.ToTime}
		if r.Court != nil {
			id, ok := c.translator.CanonicalID(*r.Court)
			if !ok {
				return nil, &models.DataIntegrityError{ProviderID: *r.Court}
			}
			res.Court = &id
			res.ProviderID = *r.Court
		}
		out = append(out, res)
	}
	return out, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug().Err(err).Str("key", key).Msg("reservation cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("reservation cache write failed")
	}
}
