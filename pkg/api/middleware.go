package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/sclgraph/pkg/auth"
	"github.com/dd0wney/sclgraph/pkg/logging"
)

// panicRecoveryMiddleware keeps a panicking handler from taking the
// server down and returns a proper error response instead.
func (s *Server) panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("Panic in HTTP handler",
					logging.String("method", r.Method),
					logging.Path(r.URL.Path),
					logging.Any("panic", err),
					logging.String("stack", string(debug.Stack())))
				http.Error(w,
					fmt.Sprintf("Internal server error: %v", err),
					http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		s.logger.Info("Request",
			logging.String("method", r.Method),
			logging.Path(r.URL.Path),
			logging.Int("status", wrapper.statusCode),
			logging.Latency(time.Since(start)))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bodySizeLimitMiddleware rejects oversized request bodies. The
// Content-Length check refuses declared large requests before reading;
// MaxBytesReader covers chunked encoding and lying clients.
func (s *Server) bodySizeLimitMiddleware(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxBytes {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

// Context key for storing claims
type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the JWT claims the auth middleware stored,
// or nil for API-key and unauthenticated requests.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

func (s *Server) authEnabled() bool {
	return s.jwt != nil || (s.apiKeys != nil && s.apiKeys.Enabled())
}

// publicPaths need no credentials: probes and the metrics scrape.
func publicPath(path string) bool {
	switch path {
	case "/health", "/ready", "/live", "/metrics":
		return true
	}
	return false
}

// authMiddleware validates a Bearer JWT or an X-API-Key header. It is a
// pass-through when neither verifier is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	if !s.authEnabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// Try JWT token first (Authorization: Bearer <token>)
		authHeader := r.Header.Get("Authorization")
		if s.jwt != nil && strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := s.jwt.ValidateToken(r.Context(), token)
			if err != nil {
				s.logger.Warn("Token validation failed", logging.Error(err))
				s.respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// Try API key (X-API-Key: <key>)
		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" && s.apiKeys != nil {
			if err := s.apiKeys.Verify(apiKey); err != nil {
				s.logger.Warn("API key validation failed", logging.Error(err))
				s.respondError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		s.respondError(w, http.StatusUnauthorized,
			"Missing authentication (Bearer token or X-API-Key header required)")
	})
}

// metricsMiddleware tracks request counts, latency, response sizes and
// the in-flight gauge. It is a pass-through without a registry.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		s.metrics.HTTPRequestsInFlight.Inc()
		defer s.metrics.HTTPRequestsInFlight.Dec()

		wrapper := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		status := strconv.Itoa(wrapper.statusCode)
		s.metrics.RecordHTTPRequest(r.Method, routeLabel(r.URL.Path), status, time.Since(start))
		s.metrics.HTTPResponseSizeBytes.WithLabelValues(r.Method, routeLabel(r.URL.Path)).
			Observe(float64(wrapper.bytesWritten))
	})
}

// routeLabel collapses session subpaths so metric cardinality stays
// bounded by the route table, not by session ids.
func routeLabel(path string) string {
	if !strings.HasPrefix(path, "/sessions/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/sessions/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return "/sessions/{id}/" + rest[i+1:]
	}
	return "/sessions/{id}"
}

// statusResponseWriter captures the status code for the request log.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// metricsResponseWriter additionally counts bytes written.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *metricsResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

// updateMetricsPeriodically refreshes uptime, runtime and session gauges
// every 10 seconds until Shutdown.
func (s *Server) updateMetricsPeriodically() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.metrics.UptimeSeconds.Set(time.Since(s.startTime).Seconds())
			s.metrics.GoRoutines.Set(float64(runtime.NumGoroutine()))

			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			s.metrics.MemoryAllocBytes.Set(float64(m.Alloc))
			s.metrics.MemorySysBytes.Set(float64(m.Sys))
		}
	}
}
