// Package api serves the navigation engine over HTTP JSON: stateless
// expand and list endpoints, server-hosted sessions for browser clients,
// snapshot export, GraphQL, and the operational endpoints (health,
// readiness, liveness, prometheus metrics).
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/sclgraph/pkg/auth"
	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/export"
	"github.com/dd0wney/sclgraph/pkg/health"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/treestate"
)

// maxBodyBytes caps request bodies. Requests here are a handful of
// identifiers; anything near the cap is abuse.
const maxBodyBytes = 1 << 20

// Config carries the server's collaborators. Navigator, Listing and
// Sessions are required. Exporter, GraphQL, JWT and APIKeys are
// optional; the matching endpoints report their absence.
type Config struct {
	Listen    string
	Navigator *explore.Navigator
	Listing   *listing.Engine
	Sessions  *treestate.Manager
	Exporter  *export.Exporter
	GraphQL   http.Handler
	Health    *health.HealthChecker
	JWT       *auth.JWTManager
	APIKeys   *auth.APIKeyVerifier
	Logger    logging.Logger
	Metrics   *metrics.Registry
}

// Server is the HTTP API server.
type Server struct {
	listen    string
	navigator *explore.Navigator
	listing   *listing.Engine
	sessions  *treestate.Manager
	exporter  *export.Exporter
	graphql   http.Handler
	health    *health.HealthChecker
	jwt       *auth.JWTManager
	apiKeys   *auth.APIKeyVerifier
	logger    logging.Logger
	metrics   *metrics.Registry

	httpServer *http.Server
	startTime  time.Time
	stop       chan struct{}
}

// NewServer wires a server from its collaborators.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Health == nil {
		cfg.Health = health.NewHealthChecker()
	}
	return &Server{
		listen:    cfg.Listen,
		navigator: cfg.Navigator,
		listing:   cfg.Listing,
		sessions:  cfg.Sessions,
		exporter:  cfg.Exporter,
		graphql:   cfg.GraphQL,
		health:    cfg.Health,
		jwt:       cfg.JWT,
		apiKeys:   cfg.APIKeys,
		logger:    cfg.Logger.With(logging.Component("api")),
		metrics:   cfg.Metrics,
		startTime: time.Now(),
		stop:      make(chan struct{}),
	}
}

// Handler assembles the route table and middleware chain. The chain is,
// outermost first: panic recovery, CORS, body limit, auth, metrics,
// logging. Probe and metrics endpoints stay outside auth so schedulers
// and scrapers need no credentials.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Operational endpoints
	mux.HandleFunc("/health", s.health.HTTPHandler())
	mux.HandleFunc("/ready", s.health.ReadinessHandler())
	mux.HandleFunc("/live", s.health.LivenessHandler())
	mux.Handle("/metrics", s.metricsHandler())

	// Navigation endpoints
	mux.HandleFunc("/expand", s.handleExpand)
	mux.HandleFunc("/list", s.handleList)

	// Session endpoints
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/sessions/", s.handleSession)

	// GraphQL endpoint
	mux.HandleFunc("/graphql", s.handleGraphQL)

	var h http.Handler = mux
	h = s.loggingMiddleware(h)
	h = s.metricsMiddleware(h)
	h = s.authMiddleware(h)
	h = s.bodySizeLimitMiddleware(h, maxBodyBytes)
	h = s.corsMiddleware(h)
	h = s.panicRecoveryMiddleware(h)
	return h
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.listen,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.metrics != nil {
		go s.updateMetricsPeriodically()
	}

	s.logger.Info("API server starting",
		logging.String("addr", s.listen),
		logging.Bool("auth", s.authEnabled()),
		logging.Bool("graphql", s.graphql != nil),
		logging.Bool("export", s.exporter != nil))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the metrics ticker.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if s.graphql == nil {
		s.respondError(w, http.StatusServiceUnavailable, "GraphQL endpoint not available")
		return
	}
	s.graphql.ServeHTTP(w, r)
}

func (s *Server) metricsHandler() http.Handler {
	if s.metrics == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.respondError(w, http.StatusServiceUnavailable, "Metrics not enabled")
		})
	}
	return promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{})
}
