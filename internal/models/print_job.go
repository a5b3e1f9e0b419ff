package models

import (
	"errors"
	"time"
)

// PrintJob represents a single job observed on the print spooler.
// A job is immutable once it has been fetched from the source.
type PrintJob struct {
	// Name of the printed document as reported by the spooler
	DocumentName string `json:"document_name"`

	// Account that submitted the job
	User string `json:"user"`

	// Destination printer
	Printer string `json:"printer"`

	// Total page count; 0 when the spooler could not report it
	Pages int `json:"pages"`

	// Timestamp when the job was submitted or observed
	SubmittedAt time.Time `json:"submitted_at"`
}

// Validation errors
var (
	ErrEmptyDocumentName = errors.New("document name cannot be empty")
	ErrEmptyUser         = errors.New("user cannot be empty")
	ErrNegativePages     = errors.New("page count cannot be negative")
	ErrZeroTimestamp     = errors.New("timestamp cannot be zero")
	ErrInvalidTimestamp  = errors.New("invalid timestamp format")
)

// Validate checks if the PrintJob has all required fields and valid values
func (j *PrintJob) Validate() error {
	if j.DocumentName == "" {
		return ErrEmptyDocumentName
	}

	if j.User == "" {
		return ErrEmptyUser
	}

	if j.Pages < 0 {
		return ErrNegativePages
	}

	if j.SubmittedAt.IsZero() {
		return ErrZeroTimestamp
	}

	return nil
}
