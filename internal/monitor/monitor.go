package monitor

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"printwatch/internal/logger"
	"printwatch/internal/metrics"
	"printwatch/internal/models"
	"printwatch/internal/rules"
	"printwatch/internal/source"
)

// A stats line is logged every statsEvery poll cycles.
const statsEvery = 10

// Consecutive fetch failures before /health reports the source as down.
const persistentFailureThreshold = 3

// AlertSink receives every alert exactly once.
type AlertSink interface {
	Emit(alert *models.Alert) error
}

// Config holds monitor configuration
type Config struct {
	Source   source.JobSource
	Rules    *rules.Ruleset
	Sink     AlertSink
	Interval time.Duration

	// Clock defaults to the wall clock when nil
	Clock Clock

	// MetricsAddr enables the /metrics, /health and /stats listener when
	// non-empty
	MetricsAddr string
}

// Monitor is the polling scheduler: every interval it fetches newly
// available jobs from the source, evaluates each in arrival order, and
// forwards flagged jobs to the sink. The loop is single-threaded; the only
// concurrent reader of its counters is the operational HTTP listener.
type Monitor struct {
	cfg        Config
	clock      Clock
	httpServer *http.Server
	wg         sync.WaitGroup

	// Metrics
	scanned       atomic.Uint64
	flagged       atomic.Uint64
	skipped       atomic.Uint64
	fetchFailures atomic.Uint64
	consecutive   atomic.Uint64
	cycles        atomic.Uint64
}

// New constructs a Monitor with the given config.
func New(cfg Config) *Monitor {
	if cfg.Clock == nil {
		cfg.Clock = NewRealClock()
	}

	return &Monitor{
		cfg:   cfg,
		clock: cfg.Clock,
	}
}

// Run polls until the context is cancelled. The current tick is always
// completed before Run returns, so no partially handled job survives a
// shutdown.
func (m *Monitor) Run(ctx context.Context) error {
	log := logger.WithComponent("monitor")
	log.Info().
		Dur("interval", m.cfg.Interval).
		Msg("monitor starting")

	if m.cfg.MetricsAddr != "" {
		m.startHTTPServer()
	}

	ticker := m.clock.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	// First cycle runs immediately, later ones on the tick
	m.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown signal received")
			return m.shutdown()
		case <-ticker.C():
			m.poll(ctx)
		}
	}
}

// poll runs one fetch-and-evaluate cycle. Every cycle counts, failed
// fetches included.
func (m *Monitor) poll(ctx context.Context) {
	log := logger.WithComponent("monitor")
	start := m.clock.Now()

	if cycles := m.cycles.Add(1); cycles%statsEvery == 0 {
		defer func() {
			stats := m.Stats()
			log.Info().
				Uint64("cycles", stats.Cycles).
				Uint64("scanned", stats.Scanned).
				Uint64("flagged", stats.Flagged).
				Uint64("skipped", stats.Skipped).
				Uint64("fetch_failures", stats.FetchFailures).
				Msg("stats")
		}()
	}

	jobs, err := m.cfg.Source.Fetch(ctx)

	// A source may hand back jobs it read before failing; they are still
	// evaluated in arrival order
	for _, job := range jobs {
		m.handleJob(job)
	}

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		failures := m.consecutive.Add(1)
		m.fetchFailures.Add(1)
		metrics.FetchErrorsTotal.Inc()
		metrics.SourceUp.Set(0)
		log.Warn().
			Err(err).
			Uint64("consecutive_failures", failures).
			Msg("job source unavailable, retrying at next tick")
		return
	}

	if m.consecutive.Swap(0) > 0 {
		log.Info().Msg("job source recovered")
	}
	metrics.SourceUp.Set(1)
	metrics.PollBatchSize.Observe(float64(len(jobs)))
	metrics.PollDuration.Observe(m.clock.Now().Sub(start).Seconds())
}

// handleJob evaluates a single job. Any failure here, including a panic,
// is isolated to this job: it is logged, counted, and the loop moves on.
func (m *Monitor) handleJob(job models.PrintJob) {
	log := logger.WithComponent("monitor")

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			log.Error().
				Interface("panic", r).
				Bytes("stack", stack).
				Str("document", job.DocumentName).
				Msg("job evaluation panic recovered")
			metrics.PanicsRecovered.WithLabelValues("monitor").Inc()
			metrics.JobsSkippedTotal.WithLabelValues("panic").Inc()
			m.skipped.Add(1)
		}
	}()

	job.Normalize()
	if err := job.Validate(); err != nil {
		log.Warn().
			Err(err).
			Str("document", job.DocumentName).
			Str("user", job.User).
			Msg("invalid job record skipped")
		metrics.JobsSkippedTotal.WithLabelValues("invalid").Inc()
		m.skipped.Add(1)
		return
	}

	m.scanned.Add(1)
	metrics.JobsScannedTotal.Inc()

	alert := m.cfg.Rules.Evaluate(job)
	if alert == nil {
		return
	}

	m.flagged.Add(1)
	reasons := make([]string, len(alert.Reasons))
	for i, reason := range alert.Reasons {
		reasons[i] = string(reason)
		metrics.AlertsTotal.WithLabelValues(string(reason)).Inc()
	}

	log.Warn().
		Strs("reasons", reasons).
		Str("document", job.DocumentName).
		Str("user", job.User).
		Str("printer", job.Printer).
		Int("pages", job.Pages).
		Msg("suspicious print job")

	// Sink failures are logged and counted by the sink; the alert is
	// dropped and the loop keeps running
	_ = m.cfg.Sink.Emit(alert)
}

// shutdown stops the operational listener, if one was started.
func (m *Monitor) shutdown() error {
	log := logger.WithComponent("monitor")

	if m.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		log.Info().Msg("stopping HTTP server")
		if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
	}

	m.wg.Wait()
	log.Info().Msg("monitor stopped")
	return nil
}

// Stats returns monitor statistics
func (m *Monitor) Stats() Stats {
	return Stats{
		Scanned:       m.scanned.Load(),
		Flagged:       m.flagged.Load(),
		Skipped:       m.skipped.Load(),
		FetchFailures: m.fetchFailures.Load(),
		Cycles:        m.cycles.Load(),
	}
}

// Stats holds monitor metrics
type Stats struct {
	Scanned       uint64
	Flagged       uint64
	Skipped       uint64
	FetchFailures uint64
	Cycles        uint64
}
