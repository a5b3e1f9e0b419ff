package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rjeczalik/notify"

	"printwatch/internal/logger"
	"printwatch/internal/models"
)

// SpoolDir watches a directory for job ticket files, one JSON-encoded job
// per file. Tickets are consumed: a file is removed once its job has been
// read. Events observed between two Fetch calls are buffered; if the
// buffer overflows, the overflowing tickets stay on disk and are picked up
// by the sweep of the following Fetch.
type SpoolDir struct {
	dir    string
	events chan notify.EventInfo
	now    func() time.Time
	remove func(path string) error

	// Tickets already handled whose file could not be removed yet. A path
	// in this set is never delivered again; its removal is retried on
	// later fetches.
	consumed map[string]struct{}
}

// NewSpoolDir creates a job source watching the given directory.
func NewSpoolDir(dir string) (*SpoolDir, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("spool dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spool dir: %s is not a directory", dir)
	}

	events := make(chan notify.EventInfo, 128)
	if err := notify.Watch(dir, events, notify.Create, notify.Rename); err != nil {
		return nil, fmt.Errorf("watch spool dir: %w", err)
	}

	return &SpoolDir{
		dir:      dir,
		events:   events,
		now:      time.Now,
		remove:   os.Remove,
		consumed: make(map[string]struct{}),
	}, nil
}

// Fetch drains the buffered filesystem events and then sweeps the
// directory for any remaining tickets, returning jobs in arrival order. A
// corrupt ticket is logged, removed and skipped; it never fails the fetch.
func (s *SpoolDir) Fetch(ctx context.Context) ([]models.PrintJob, error) {
	var jobs []models.PrintJob

	seen := make(map[string]struct{})

drain:
	for {
		select {
		case <-ctx.Done():
			return jobs, ctx.Err()
		case ei := <-s.events:
			path := ei.Path()
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			if job, ok := s.consumeTicket(path); ok {
				jobs = append(jobs, job)
			}
		default:
			break drain
		}
	}

	// Sweep for tickets whose events were dropped or that predate the watch
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return jobs, fmt.Errorf("read spool dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if _, ok := seen[path]; ok {
			continue
		}
		if job, ok := s.consumeTicket(path); ok {
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

// Close stops the filesystem watch.
func (s *SpoolDir) Close() error {
	notify.Stop(s.events)
	return nil
}

// consumeTicket reads, decodes and removes a single ticket file.
func (s *SpoolDir) consumeTicket(path string) (models.PrintJob, bool) {
	log := logger.WithComponent("spooldir_source")

	if filepath.Ext(path) != ".json" {
		return models.PrintJob{}, false
	}

	if _, ok := s.consumed[path]; ok {
		// Already delivered; only the removal is outstanding
		if err := s.remove(path); err == nil || os.IsNotExist(err) {
			delete(s.consumed, path)
		}
		return models.PrintJob{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// Create events can fire before the writer is done; the sweep of
		// the next Fetch retries the file
		log.Warn().Err(err).Str("path", path).Msg("unreadable job ticket")
		return models.PrintJob{}, false
	}

	job, err := decodeTicket(data, s.now().UTC())
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("corrupt job ticket dropped")
		if err := s.remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove corrupt ticket")
			s.consumed[path] = struct{}{}
		}
		return models.PrintJob{}, false
	}

	if err := s.remove(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to remove consumed ticket")
		s.consumed[path] = struct{}{}
	}

	return job, true
}
