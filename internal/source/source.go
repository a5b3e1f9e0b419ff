package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"printwatch/internal/config"
	"printwatch/internal/models"
)

// JobSource is the capability interface for a print job feed. Fetch returns
// the jobs that became available since the previous call, in arrival order,
// and never delivers the same job twice within a process lifetime.
type JobSource interface {
	Fetch(ctx context.Context) ([]models.PrintJob, error)
	Close() error
}

// New constructs the job source selected by the configuration. The
// configuration is assumed to be validated.
func New(cfg *config.Config) (JobSource, error) {
	switch cfg.Source {
	case config.SourceCUPS:
		return NewCUPS(), nil
	case config.SourceSpoolDir:
		return NewSpoolDir(cfg.SpoolDir)
	case config.SourceKafka:
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID), nil
	default:
		return nil, fmt.Errorf("unknown job source %q", cfg.Source)
	}
}

// jobTicket is the wire format for job records arriving as JSON, with a
// string timestamp for flexible parsing.
type jobTicket struct {
	DocumentName string `json:"document_name"`
	User         string `json:"user"`
	Printer      string `json:"printer"`
	Pages        int    `json:"pages"`
	SubmittedAt  string `json:"submitted_at,omitempty"`
}

// decodeTicket converts a JSON job ticket into a PrintJob. A missing or
// unparseable timestamp falls back to the observation time.
func decodeTicket(data []byte, now time.Time) (models.PrintJob, error) {
	var ticket jobTicket
	if err := json.Unmarshal(data, &ticket); err != nil {
		return models.PrintJob{}, fmt.Errorf("decode job ticket: %w", err)
	}

	submitted := now
	if strings.TrimSpace(ticket.SubmittedAt) != "" {
		if ts, err := models.ParseTimestamp(ticket.SubmittedAt); err == nil {
			submitted = ts
		}
	}

	return models.PrintJob{
		DocumentName: ticket.DocumentName,
		User:         ticket.User,
		Printer:      ticket.Printer,
		Pages:        ticket.Pages,
		SubmittedAt:  submitted,
	}, nil
}
