package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"gameradar/internal/catalog"
	"gameradar/internal/log"
	"gameradar/internal/notify"
	"gameradar/internal/reconciler"
	"gameradar/internal/services"
)

// Deps are the components the API exposes. Scheduler, Gate and Recent may
// be nil; the matching endpoints then degrade.
type Deps struct {
	Catalog    *catalog.Catalog
	Games      *services.GameService
	Reconciler *reconciler.Reconciler
	Scheduler  *reconciler.Scheduler
	Gate       *notify.Gate
	Recent     *notify.Recorder
	Logger     *log.Logger
}

// appMetrics are the counters reported by /metrics.
type appMetrics struct {
	uptime        time.Time
	totalRequests int64
	gamesAdded    int64
	imports       int64
}

type Server struct {
	http.Server

	catalog    *catalog.Catalog
	games      *services.GameService
	reconciler *reconciler.Reconciler
	scheduler  *reconciler.Scheduler
	gate       *notify.Gate
	recent     *notify.Recorder

	logger      *log.Logger
	structured  *log.StructuredLogger
	rateLimiter *rateLimiter
	security    *securityMetrics
	appMetrics  *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		catalog:     deps.Catalog,
		games:       deps.Games,
		reconciler:  deps.Reconciler,
		scheduler:   deps.Scheduler,
		gate:        deps.Gate,
		recent:      deps.Recent,
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(defaultMutationLimit, defaultMutationWindow),
		security:    &securityMetrics{},
		appMetrics:  &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metricsHandler())

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", s.handleRenameCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("DELETE /api/categories/{id}/games/{placeId}", s.handleRemoveGame)

	mux.HandleFunc("POST /api/games", s.handleAddGame)
	mux.HandleFunc("POST /api/games/{placeId}/move", s.handleMoveGame)

	mux.HandleFunc("GET /api/export.csv", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("POST /api/export/sheets", s.handleExportSheets)

	mux.HandleFunc("POST /api/poll", s.handlePoll)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	mux.HandleFunc("POST /api/notifications/permission", s.handleNotificationPermission)

	var h http.Handler = s.withSecurityHeaders(mux)
	h = log.RequestIDMiddleware(requestIDFrom)(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		atomic.AddInt64(&s.appMetrics.totalRequests, 1)

		clientIP := extractClientIP(r)
		if reason, flagged := detectSuspiciousRequest(r, s.security); flagged {
			log.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				"reason", reason,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"user_agent", r.Header.Get("User-Agent"))
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		allowed, retryIn := true, time.Duration(0)
		if isMutating(r.Method) {
			allowed, retryIn = s.rateLimiter.allow(clientIP, s.security)
		}
		if allowed {
			next.ServeHTTP(rw, r)
		} else {
			log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"retry_in", retryIn.String())
			rw.Header().Set("Retry-After", retryAfterSeconds(retryIn))
			ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later").Write(rw)
		}

		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// retryAfterSeconds rounds d up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
