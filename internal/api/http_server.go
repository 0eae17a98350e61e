package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"courtfinder/internal/config"
	"courtfinder/internal/metrics"
	"courtfinder/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	queryTimeout    = 15 * time.Second
)

// Querier is the availability engine as seen by the HTTP layer.
type Querier interface {
	NewRequest(date, start string, durationMinutes int, filter models.Filter) (models.BookingRequest, error)
	FindAlternatives(ctx context.Context, req models.BookingRequest) ([]models.Alternative, error)
	Search(ctx context.Context, req models.BookingRequest) (*models.SearchResult, error)
	DayAvailability(ctx context.Context, date time.Time) (*models.DayAvailability, error)
	Location() *time.Location
}

// CourtCatalog lists the club's courts.
type CourtCatalog interface {
	Version() int
	Courts() []models.Court
	CourtByName(name string) (models.Court, bool)
	Filter(f models.Filter) []models.Court
	Groups() models.CourtGroups
}

// HTTPServer exposes the availability engine as a read-only JSON API.
type HTTPServer struct {
	cfg     *config.APIConfig
	engine  Querier
	courts  CourtCatalog
	redis   *redis.Client
	server  *http.Server
	auth    *HTTPAuth
	logger  *zerolog.Logger
	timeout time.Duration
}

// NewHTTPServer wires routes and middleware. rdb may be nil when the
// reservation cache is disabled.
func NewHTTPServer(cfg *config.APIConfig, engine Querier, courts CourtCatalog, rdb *redis.Client, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:     cfg,
		engine:  engine,
		courts:  courts,
		redis:   rdb,
		auth:    NewHTTPAuth(*cfg),
		logger:  logger,
		timeout: queryTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealthz)
	mux.HandleFunc("/readyz", srv.handleReadyz)
	mux.HandleFunc("/api/v1/courts", srv.handleCourts)
	mux.HandleFunc("/api/v1/availability", srv.handleAvailability)
	mux.HandleFunc("/api/v1/availability/check", srv.handleCheck)
	mux.HandleFunc("/api/v1/alternatives", srv.handleAlternatives)

	handler := srv.requestIDMiddleware(srv.loggingMiddleware(corsMiddleware(srv.auth.Wrap(mux))))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      queryTimeout + 5*time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *HTTPServer) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		l := s.logger.With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpointLabel(r.URL.Path), strconv.Itoa(recorder.status))
		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-API-Key, X-API-Extra")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var knownEndpoints = map[string]struct{}{
	"/healthz":                   {},
	"/readyz":                    {},
	"/api/v1/courts":             {},
	"/api/v1/availability":       {},
	"/api/v1/availability/check": {},
	"/api/v1/alternatives":       {},
}

// endpointLabel keeps metric cardinality bounded.
func endpointLabel(path string) string {
	if _, ok := knownEndpoints[path]; ok {
		return path
	}
	return "other"
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, _ *http.Request, statusCode int, message string) {
	body := map[string]string{"error": message}
	if id := w.Header().Get(requestIDHeader); id != "" {
		body["request_id"] = id
	}
	writeJSON(w, statusCode, body)
}

// writeQueryError maps engine errors to HTTP statuses.
func writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrDataIntegrity), errors.Is(err, models.ErrMalformedRecord):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("booking data rejected")
		writeError(w, r, http.StatusBadGateway, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("query failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
