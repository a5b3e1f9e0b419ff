package sink

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"printwatch/internal/config"
	"printwatch/internal/models"
)

// Encoder renders one alert as a single line, terminating newline included.
type Encoder interface {
	Encode(alert *models.Alert) ([]byte, error)
}

// NewEncoder returns the encoder for a canonical output format name.
func NewEncoder(format string) (Encoder, error) {
	switch format {
	case config.FormatPlain:
		return PlainEncoder{}, nil
	case config.FormatJSON:
		return JSONEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownFormat, format)
	}
}

// PlainEncoder renders a human-readable text line per alert.
type PlainEncoder struct{}

// Encode renders the alert as a key=value line.
func (PlainEncoder) Encode(alert *models.Alert) ([]byte, error) {
	reasons := make([]string, len(alert.Reasons))
	for i, r := range alert.Reasons {
		reasons[i] = string(r)
	}

	line := fmt.Sprintf("%s ALERT reasons=%s user=%q document=%q printer=%q pages=%d id=%s",
		alert.DetectedAt.Format(time.RFC3339),
		strings.Join(reasons, ","),
		alert.Job.User,
		alert.Job.DocumentName,
		alert.Job.Printer,
		alert.Job.Pages,
		alert.ID,
	)

	if len(alert.Keywords) > 0 {
		line += fmt.Sprintf(" keywords=%s", strings.Join(alert.Keywords, ","))
	}

	return []byte(line + "\n"), nil
}

// JSONEncoder renders one self-describing JSON object per line.
type JSONEncoder struct{}

// Encode marshals the alert as a single JSON line.
func (JSONEncoder) Encode(alert *models.Alert) ([]byte, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
