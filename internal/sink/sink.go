package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"printwatch/internal/logger"
	"printwatch/internal/metrics"
	"printwatch/internal/models"
)

// Sink errors
var (
	ErrSinkClosed = errors.New("sink is closed")
)

// Sink appends encoded alert records to a writer, optionally echoing each
// record to a second writer. Writes are best-effort: a failed append is
// logged, counted, and the alert is dropped without retry.
type Sink struct {
	out    io.Writer
	echo   io.Writer
	enc    Encoder
	closer io.Closer
	closed atomic.Bool

	// Metrics
	written atomic.Uint64
	dropped atomic.Uint64
}

// New creates a sink writing to out. echo may be nil to disable echoing.
func New(out io.Writer, enc Encoder, echo io.Writer) *Sink {
	return &Sink{
		out:  out,
		echo: echo,
		enc:  enc,
	}
}

// Open creates a sink appending to the log file at path, creating it if
// absent. echo may be nil.
func Open(path string, enc Encoder, echo io.Writer) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open alert log: %w", err)
	}

	s := New(f, enc, echo)
	s.closer = f
	return s, nil
}

// Emit writes one alert record. A write failure is reported once, the
// alert is dropped, and the error is returned for accounting; the caller
// is expected to keep running.
func (s *Sink) Emit(alert *models.Alert) error {
	if s.closed.Load() {
		return ErrSinkClosed
	}

	log := logger.WithComponent("sink")

	data, err := s.enc.Encode(alert)
	if err != nil {
		s.dropped.Add(1)
		metrics.AlertsDroppedTotal.Inc()
		log.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to encode alert")
		return err
	}

	if s.echo != nil {
		// Echo is advisory output; its failure does not drop the alert
		if _, err := s.echo.Write(data); err != nil {
			log.Warn().Err(err).Msg("failed to echo alert")
		}
	}

	if _, err := s.out.Write(data); err != nil {
		s.dropped.Add(1)
		metrics.SinkWriteErrors.Inc()
		metrics.AlertsDroppedTotal.Inc()
		log.Error().
			Err(err).
			Str("alert_id", alert.ID).
			Msg("failed to persist alert, record dropped")
		return err
	}

	s.written.Add(1)
	metrics.AlertsEmittedTotal.Inc()
	return nil
}

// Close closes the underlying log file, if the sink owns one.
func (s *Sink) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Stats returns sink statistics
func (s *Sink) Stats() Stats {
	return Stats{
		Written: s.written.Load(),
		Dropped: s.dropped.Load(),
	}
}

// Stats holds sink metrics
type Stats struct {
	Written uint64
	Dropped uint64
}
