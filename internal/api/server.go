// Package api serves filtered, sorted and paged entity lists over HTTP.
//
//	GET /api/{resource}?filter=...&sort=...&psize=...&pnum=...
//	GET /healthz
//	GET /metrics
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/roach88/filterql/internal/config"
)

// Limits bounds list requests.
type Limits struct {
	MaxFilterLength int
	MaxSortLength   int
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultLimits mirrors the configuration defaults.
var DefaultLimits = Limits{
	MaxFilterLength: config.DefaultMaxFilterLength,
	MaxSortLength:   config.DefaultMaxSortLength,
	DefaultPageSize: config.DefaultPageSize,
	MaxPageSize:     config.DefaultMaxPageSize,
}

// LimitsFrom converts the query configuration.
func LimitsFrom(q config.QueryConfig) Limits {
	return Limits{
		MaxFilterLength: q.MaxFilterLength,
		MaxSortLength:   q.MaxSortLength,
		DefaultPageSize: q.DefaultPageSize,
		MaxPageSize:     q.MaxPageSize,
	}
}

// ServerOption configures the API server
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger      *zap.Logger
	limits      Limits
	registry    *prometheus.Registry
	middlewares []func(http.Handler) http.Handler
}

// WithLogger sets the request logger. The default discards everything.
func WithLogger(l *zap.Logger) ServerOption {
	return func(cfg *serverConfig) { cfg.logger = l }
}

// WithLimits sets request bounds.
func WithLimits(l Limits) ServerOption {
	return func(cfg *serverConfig) { cfg.limits = l }
}

// WithRegistry sets the Prometheus registry metrics are registered with
// and served from.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(cfg *serverConfig) { cfg.registry = reg }
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// NewServer creates the HTTP router serving resources.
func NewServer(resources []Resource, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		logger: zap.NewNop(),
		limits: DefaultLimits,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = prometheus.NewRegistry()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(cfg.logger))
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	routes := &Routes{
		resources: make(map[string]Resource, len(resources)),
		limits:    cfg.limits,
		logger:    cfg.logger,
		metrics:   NewMetrics(cfg.registry),
	}
	for _, res := range resources {
		routes.resources[res.Name] = res
	}

	r.Get("/healthz", healthHandler)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.registry, promhttp.HandlerOpts{}))
	r.Get("/api/{resource}", routes.list)

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}
