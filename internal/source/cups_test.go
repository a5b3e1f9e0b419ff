package source

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"printwatch/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

const listingA = `office-hp-101 alice quarterly_report.pdf office-hp 2048 12
office-hp-102 mallory Confidential.pdf office-hp 4096 150
`

const listingB = `office-hp-102 mallory Confidential.pdf office-hp 4096 150
office-hp-103 bob lunch_menu.pdf office-hp 512 1
`

func stubRunner(outputs ...string) runCommandFunc {
	i := 0
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		out := outputs[i%len(outputs)]
		i++
		return []byte(out), nil
	}
}

func TestCUPSFetchParsesListing(t *testing.T) {
	s := NewCUPS()
	s.run = stubRunner(listingA)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	jobs, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}

	first := jobs[0]
	if first.User != "alice" {
		t.Errorf("User = %q, want alice", first.User)
	}
	if first.DocumentName != "quarterly_report.pdf" {
		t.Errorf("DocumentName = %q", first.DocumentName)
	}
	if first.Printer != "office-hp" {
		t.Errorf("Printer = %q", first.Printer)
	}
	if first.Pages != 12 {
		t.Errorf("Pages = %d, want 12", first.Pages)
	}
	if first.SubmittedAt.IsZero() {
		t.Error("SubmittedAt should be set")
	}
}

func TestCUPSFetchDeliversEachJobOnce(t *testing.T) {
	s := NewCUPS()
	s.run = stubRunner(listingA, listingB)
	s.now = time.Now

	first, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("first Fetch returned error: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first poll: got %d jobs, want 2", len(first))
	}

	// Job 102 is still in the listing; only 103 is new
	second, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("second Fetch returned error: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("second poll: got %d jobs, want 1", len(second))
	}
	if second[0].User != "bob" {
		t.Errorf("User = %q, want bob", second[0].User)
	}
}

func TestCUPSFetchSkipsShortLines(t *testing.T) {
	s := NewCUPS()
	s.run = stubRunner("garbage line\n\noffice-hp-201 alice doc.pdf office-hp 99 3\n")
	s.now = time.Now

	jobs, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
}

func TestCUPSFetchUnknownPageCount(t *testing.T) {
	s := NewCUPS()
	s.run = stubRunner("office-hp-301 alice doc.pdf office-hp 99 unknown\n")
	s.now = time.Now

	jobs, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	if jobs[0].Pages != 0 {
		t.Errorf("Pages = %d, want 0 for unreported count", jobs[0].Pages)
	}
}

func TestCUPSFetchCommandFailure(t *testing.T) {
	wantErr := errors.New("lpstat not found")
	s := NewCUPS()
	s.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, wantErr
	}

	if _, err := s.Fetch(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Fetch error = %v, want wrapped %v", err, wantErr)
	}
}
