package models

import (
	"time"

	"github.com/google/uuid"
)

// Reason identifies the rule that flagged a print job
type Reason string

const (
	ReasonSensitiveKeyword Reason = "sensitive_keyword"
	ReasonSuspiciousUser   Reason = "suspicious_user"
	ReasonOversizedJob     Reason = "oversized_job"
)

// IsValid checks if the reason is one of the known rule names
func (r Reason) IsValid() bool {
	switch r {
	case ReasonSensitiveKeyword, ReasonSuspiciousUser, ReasonOversizedJob:
		return true
	default:
		return false
	}
}

// Alert is a flagged print job together with every rule that fired for it.
// An alert is created only when at least one rule matched and is handed to
// the sink exactly once; it is never mutated after creation.
type Alert struct {
	// Unique identifier for the alert
	ID string `json:"id"`

	// The job that triggered the alert
	Job PrintJob `json:"job"`

	// Every rule that fired, in evaluation order
	Reasons []Reason `json:"reasons"`

	// Keywords from the sensitive list found in the document name, if any
	Keywords []string `json:"keywords,omitempty"`

	// Timestamp when the rules were evaluated
	DetectedAt time.Time `json:"detected_at"`
}

// NewAlert creates an alert for a flagged job
func NewAlert(job PrintJob, reasons []Reason) *Alert {
	return &Alert{
		ID:         uuid.New().String(),
		Job:        job,
		Reasons:    reasons,
		DetectedAt: time.Now().UTC(),
	}
}

// WithKeywords records the matched sensitive keywords on the alert
func (a *Alert) WithKeywords(keywords []string) *Alert {
	a.Keywords = keywords
	return a
}

// HasReason reports whether the alert carries the given reason
func (a *Alert) HasReason(r Reason) bool {
	for _, reason := range a.Reasons {
		if reason == r {
			return true
		}
	}
	return false
}
