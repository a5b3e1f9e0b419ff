package source

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"printwatch/internal/logger"
	"printwatch/internal/models"
)

// runCommandFunc executes an external command and returns its stdout.
// Injected so tests can feed canned spooler listings.
type runCommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CUPS reads completed jobs from the local CUPS spooler via lpstat.
// Each Fetch lists the completed queue and returns only the jobs that were
// not present in the previous listing, so a job is delivered at most once.
type CUPS struct {
	run  runCommandFunc
	now  func() time.Time
	seen map[string]struct{}
}

// NewCUPS creates a job source backed by the lpstat command.
func NewCUPS() *CUPS {
	return &CUPS{
		run:  runCommand,
		now:  time.Now,
		seen: make(map[string]struct{}),
	}
}

// Fetch lists the completed spooler queue and returns the newly observed
// jobs in the order lpstat reports them.
func (s *CUPS) Fetch(ctx context.Context) ([]models.PrintJob, error) {
	out, err := s.run(ctx, "lpstat", "-W", "completed", "-o")
	if err != nil {
		return nil, fmt.Errorf("lpstat: %w", err)
	}

	return s.parseListing(out), nil
}

// Close releases nothing; lpstat runs per fetch.
func (s *CUPS) Close() error {
	return nil
}

// parseListing parses one job per line. The listing format is
//
//	<printer>-<jobid> <user> <document> <printer> ... <pages>
//
// Lines with fewer fields are skipped. The seen set is replaced with the
// ids of the current listing: CUPS keeps completed jobs visible for a
// while and anything that has aged out of the listing never reappears, so
// the set stays bounded by the spooler's own history.
func (s *CUPS) parseListing(out []byte) []models.PrintJob {
	log := logger.WithComponent("cups_source")

	var jobs []models.PrintJob
	current := make(map[string]struct{})

	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}

		id := fields[0]
		current[id] = struct{}{}
		if _, ok := s.seen[id]; ok {
			continue
		}

		pages := 0
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil && n > 0 {
			pages = n
		}

		job := models.PrintJob{
			DocumentName: fields[2],
			User:         fields[1],
			Printer:      fields[3],
			Pages:        pages,
			SubmittedAt:  s.now().UTC(),
		}

		log.Debug().
			Str("job_id", id).
			Str("document", job.DocumentName).
			Str("user", job.User).
			Msg("new spooler job observed")

		jobs = append(jobs, job)
	}

	s.seen = current
	return jobs
}
