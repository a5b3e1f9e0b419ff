package source

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"printwatch/internal/logger"
	"printwatch/internal/models"
)

// Kafka consumes JSON-encoded print job records from a topic. This is the
// event-subscription variant of the job feed: Fetch drains whatever the
// broker has buffered within a short read window and returns it as one
// poll batch, preserving partition order.
type Kafka struct {
	reader    *kafka.Reader
	drainWait time.Duration
	now       func() time.Time
}

// NewKafka creates a job source reading from the given brokers and topic.
func NewKafka(brokers []string, topic, groupID string) *Kafka {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  250 * time.Millisecond,
	})

	return &Kafka{
		reader:    reader,
		drainWait: 500 * time.Millisecond,
		now:       time.Now,
	}
}

// Fetch reads messages until the drain window elapses. An empty window is
// a normal empty poll, not an error. A record that fails to decode is
// logged and skipped; broker errors are returned as transient fetch
// failures together with whatever was already read.
func (s *Kafka) Fetch(ctx context.Context) ([]models.PrintJob, error) {
	log := logger.WithComponent("kafka_source")

	drainCtx, cancel := context.WithTimeout(ctx, s.drainWait)
	defer cancel()

	var jobs []models.PrintJob
	for {
		msg, err := s.reader.ReadMessage(drainCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				// Drain window elapsed or shutdown requested
				if ctx.Err() != nil {
					return jobs, ctx.Err()
				}
				return jobs, nil
			}
			return jobs, err
		}

		job, err := decodeTicket(msg.Value, s.now().UTC())
		if err != nil {
			log.Warn().
				Err(err).
				Str("topic", msg.Topic).
				Int64("offset", msg.Offset).
				Msg("undecodable job record skipped")
			continue
		}

		jobs = append(jobs, job)
	}
}

// Close closes the underlying reader.
func (s *Kafka) Close() error {
	return s.reader.Close()
}
