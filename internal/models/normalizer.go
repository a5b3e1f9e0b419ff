package models

import (
	"strings"
	"time"
)

// SupportedTimestampFormats lists formats we attempt to parse
var SupportedTimestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.UnixDate,
}

// Normalize applies field normalization to a PrintJob
// - trims whitespace from all string fields
// - clamps an unknown (negative) page count reported by the spooler to zero
//
// User is deliberately left case-sensitive: the watch list matches exact
// account names.
func (j *PrintJob) Normalize() {
	j.DocumentName = strings.TrimSpace(j.DocumentName)
	j.User = strings.TrimSpace(j.User)
	j.Printer = strings.TrimSpace(j.Printer)

	if j.Pages < 0 {
		j.Pages = 0
	}
}

// ParseTimestamp attempts to parse a timestamp string into time.Time
func ParseTimestamp(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)

	for _, format := range SupportedTimestampFormats {
		if t, err := time.Parse(format, ts); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrInvalidTimestamp
}
