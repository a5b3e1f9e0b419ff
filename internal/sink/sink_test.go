package sink_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/models"
	"printwatch/internal/sink"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

func testAlert() *models.Alert {
	job := models.PrintJob{
		DocumentName: "Confidential.pdf",
		User:         "mallory",
		Printer:      "office-hp",
		Pages:        150,
		SubmittedAt:  time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
	}
	return models.NewAlert(job, []models.Reason{
		models.ReasonSensitiveKeyword,
		models.ReasonSuspiciousUser,
		models.ReasonOversizedJob,
	}).WithKeywords([]string{"confidential"})
}

// errorWriter fails every write
type errorWriter struct{}

func (errorWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestPlainFormat(t *testing.T) {
	var buf bytes.Buffer
	enc, err := sink.NewEncoder(config.FormatPlain)
	if err != nil {
		t.Fatalf("NewEncoder returned error: %v", err)
	}

	s := sink.New(&buf, enc, nil)
	if err := s.Emit(testAlert()); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Error("record should end with a newline")
	}
	for _, want := range []string{
		"ALERT",
		"sensitive_keyword,suspicious_user,oversized_job",
		`user="mallory"`,
		`document="Confidential.pdf"`,
		"pages=150",
		"keywords=confidential",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("plain record missing %q: %s", want, line)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	enc, err := sink.NewEncoder(config.FormatJSON)
	if err != nil {
		t.Fatalf("NewEncoder returned error: %v", err)
	}

	alert := testAlert()
	s := sink.New(&buf, enc, nil)
	if err := s.Emit(alert); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}

	var decoded models.Alert
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if decoded.ID != alert.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, alert.ID)
	}
	if len(decoded.Reasons) != 3 {
		t.Errorf("Reasons = %v, want 3 reasons", decoded.Reasons)
	}
	if decoded.Job.User != "mallory" {
		t.Errorf("Job.User = %q, want mallory", decoded.Job.User)
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := sink.NewEncoder("xml"); !errors.Is(err, config.ErrUnknownFormat) {
		t.Errorf("NewEncoder error = %v, want ErrUnknownFormat", err)
	}
}

func TestEcho(t *testing.T) {
	var out, echo bytes.Buffer
	enc, _ := sink.NewEncoder(config.FormatPlain)

	s := sink.New(&out, enc, &echo)
	if err := s.Emit(testAlert()); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}

	if out.String() != echo.String() {
		t.Error("echo output should match the persisted record")
	}
}

func TestWriteFailureDropsAlert(t *testing.T) {
	enc, _ := sink.NewEncoder(config.FormatPlain)
	s := sink.New(errorWriter{}, enc, nil)

	if err := s.Emit(testAlert()); err == nil {
		t.Fatal("expected write error")
	}

	stats := s.Stats()
	if stats.Written != 0 {
		t.Errorf("Written = %d, want 0", stats.Written)
	}
	if stats.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", stats.Dropped)
	}

	// The sink keeps accepting alerts after a failure
	if err := s.Emit(testAlert()); err == nil {
		t.Fatal("expected write error on second emit")
	}
	if got := s.Stats().Dropped; got != 2 {
		t.Errorf("Dropped = %d, want 2", got)
	}
}

func TestWriteFailureStillEchoes(t *testing.T) {
	var echo bytes.Buffer
	enc, _ := sink.NewEncoder(config.FormatPlain)
	s := sink.New(errorWriter{}, enc, &echo)

	_ = s.Emit(testAlert())
	if echo.Len() == 0 {
		t.Error("echo should receive the record even when the append fails")
	}
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	enc, _ := sink.NewEncoder(config.FormatPlain)

	for i := 0; i < 2; i++ {
		s, err := sink.Open(path, enc, nil)
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		if err := s.Emit(testAlert()); err != nil {
			t.Fatalf("Emit returned error: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read alert log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("alert log has %d records, want 2 (append across reopen)", len(lines))
	}
}

func TestEmitAfterClose(t *testing.T) {
	enc, _ := sink.NewEncoder(config.FormatPlain)
	s := sink.New(&bytes.Buffer{}, enc, nil)

	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := s.Emit(testAlert()); err != sink.ErrSinkClosed {
		t.Errorf("Emit after close error = %v, want ErrSinkClosed", err)
	}
}
