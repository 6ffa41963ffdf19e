package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "gameradar"

// metricsHandler exposes the server's counters on a private registry. The
// values are read at scrape time from the counters the handlers already
// maintain, so nothing is double counted.
func (s *Server) metricsHandler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	counter := func(name, help string, load func() int64) {
		reg.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: metricsNamespace, Name: name, Help: help},
			func() float64 { return float64(load()) },
		))
	}
	gauge := func(name, help string, load func() float64) {
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: metricsNamespace, Name: name, Help: help},
			load,
		))
	}

	counter("http_requests_total", "HTTP requests served.",
		func() int64 { return atomic.LoadInt64(&s.appMetrics.totalRequests) })
	counter("games_added_total", "Games added through the API.",
		func() int64 { return atomic.LoadInt64(&s.appMetrics.gamesAdded) })
	counter("imports_total", "Successful CSV imports.",
		func() int64 { return atomic.LoadInt64(&s.appMetrics.imports) })
	counter("rate_limit_hits_total", "Mutating requests rejected by the rate limiter.",
		func() int64 { return atomic.LoadInt64(&s.security.rateLimitHits) })
	counter("suspicious_requests_total", "Requests that looked like scans.",
		func() int64 { return atomic.LoadInt64(&s.security.suspiciousRequests) })
	gauge("active_rate_limit_clients", "Client IPs with an open rate limit window.",
		func() float64 { return float64(s.rateLimiter.ActiveClients()) })
	gauge("uptime_seconds", "Seconds since the server was built.",
		func() float64 { return time.Since(s.appMetrics.uptime).Seconds() })

	if s.catalog != nil {
		gauge("tracked_games", "Games currently tracked.",
			func() float64 { return float64(s.catalog.Snapshot().TotalGames()) })
	}
	if s.reconciler != nil {
		counter("polls_total", "Completed poll cycles.",
			func() int64 { return s.reconciler.Status().Polls })
		counter("poll_failures_total", "Poll cycles that failed.",
			func() int64 { return s.reconciler.Status().Failures })
		counter("game_updates_total", "Game updates detected.",
			func() int64 { return s.reconciler.Status().TotalUpdates })
	}
	if s.scheduler != nil {
		counter("poll_skipped_total", "Ticks skipped while a poll was running.", s.scheduler.Skipped)
	}

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
