package monitor

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"printwatch/internal/logger"
	"printwatch/internal/middleware"
)

// startHTTPServer starts the operational listener with /metrics, /health
// and /stats endpoints.
func (m *Monitor) startHTTPServer() {
	log := logger.WithComponent("monitor")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", m.healthHandler)
	mux.HandleFunc("/stats", m.statsHandler)

	m.httpServer = &http.Server{
		Addr: m.cfg.MetricsAddr,
		Handler: middleware.Chain(
			mux,
			middleware.Recovery,
			middleware.Logging,
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		log.Info().Str("addr", m.cfg.MetricsAddr).Msg("starting HTTP server")
		if err := m.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()
}

// healthHandler reports the process healthy as long as the job source is
// not persistently unavailable.
func (m *Monitor) healthHandler(w http.ResponseWriter, r *http.Request) {
	failures := m.consecutive.Load()
	if failures >= persistentFailureThreshold {
		http.Error(w,
			fmt.Sprintf("unhealthy: job source down for %d consecutive polls", failures),
			http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// statsHandler returns current statistics
func (m *Monitor) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats := m.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"cycles": %d,
		"scanned": %d,
		"flagged": %d,
		"skipped": %d,
		"fetch_failures": %d
	}`,
		stats.Cycles,
		stats.Scanned,
		stats.Flagged,
		stats.Skipped,
		stats.FetchFailures,
	)
}
