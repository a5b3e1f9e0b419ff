package rules_test

import (
	"testing"
	"time"

	"printwatch/internal/models"
	"printwatch/internal/rules"
)

func job(doc, user string, pages int) models.PrintJob {
	return models.PrintJob{
		DocumentName: doc,
		User:         user,
		Printer:      "office-hp",
		Pages:        pages,
		SubmittedAt:  time.Now(),
	}
}

func TestNewRejectsNonPositiveMaxPages(t *testing.T) {
	for _, maxPages := range []int{0, -1, -100} {
		if _, err := rules.New(nil, nil, maxPages); err != rules.ErrNonPositiveMaxPages {
			t.Errorf("New(maxPages=%d) error = %v, want ErrNonPositiveMaxPages", maxPages, err)
		}
	}
}

func TestEvaluateNoMatch(t *testing.T) {
	r, err := rules.New([]string{"confidential", "secret"}, []string{"mallory"}, 10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	// No keyword, unlisted user, within the page limit
	if alert := r.Evaluate(job("meeting_notes.pdf", "alice", 10)); alert != nil {
		t.Errorf("expected no alert, got reasons %v", alert.Reasons)
	}
}

func TestEvaluateReasons(t *testing.T) {
	r, err := rules.New([]string{"confidential", "secret"}, []string{"mallory"}, 10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	tests := []struct {
		name string
		job  models.PrintJob
		want []models.Reason
	}{
		{
			"keyword only",
			job("confidential_budget.xlsx", "alice", 3),
			[]models.Reason{models.ReasonSensitiveKeyword},
		},
		{
			"keyword match is case-insensitive",
			job("Confidential.pdf", "alice", 3),
			[]models.Reason{models.ReasonSensitiveKeyword},
		},
		{
			"user only",
			job("holiday_photos.pdf", "mallory", 3),
			[]models.Reason{models.ReasonSuspiciousUser},
		},
		{
			"user match is case-sensitive",
			job("holiday_photos.pdf", "Mallory", 3),
			nil,
		},
		{
			"oversized only",
			job("manual.pdf", "alice", 11),
			[]models.Reason{models.ReasonOversizedJob},
		},
		{
			"page count at threshold does not fire",
			job("manual.pdf", "alice", 10),
			nil,
		},
		{
			"all three rules fire",
			job("Top-Secret-plans.pdf", "mallory", 500),
			[]models.Reason{
				models.ReasonSensitiveKeyword,
				models.ReasonSuspiciousUser,
				models.ReasonOversizedJob,
			},
		},
		{
			"keyword and oversized",
			job("secret-archive.pdf", "alice", 200),
			[]models.Reason{
				models.ReasonSensitiveKeyword,
				models.ReasonOversizedJob,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := r.Evaluate(tt.job)

			if tt.want == nil {
				if alert != nil {
					t.Fatalf("expected no alert, got reasons %v", alert.Reasons)
				}
				return
			}

			if alert == nil {
				t.Fatalf("expected alert with reasons %v, got nil", tt.want)
			}
			if len(alert.Reasons) != len(tt.want) {
				t.Fatalf("Reasons = %v, want %v", alert.Reasons, tt.want)
			}
			for i, reason := range tt.want {
				if alert.Reasons[i] != reason {
					t.Errorf("Reasons[%d] = %s, want %s", i, alert.Reasons[i], reason)
				}
			}
		})
	}
}

func TestEvaluateRecordsMatchedKeywords(t *testing.T) {
	r, err := rules.New([]string{"secret", "confidential"}, nil, 100)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	alert := r.Evaluate(job("secret_confidential_merger.docx", "alice", 2))
	if alert == nil {
		t.Fatal("expected alert")
	}
	if len(alert.Keywords) != 2 {
		t.Fatalf("Keywords = %v, want both matched keywords", alert.Keywords)
	}
}

func TestKeywordsNormalizedAtConstruction(t *testing.T) {
	// Mixed-case configuration still matches lower-case documents
	r, err := rules.New([]string{"  CONFIDENTIAL "}, nil, 100)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if alert := r.Evaluate(job("confidential.pdf", "alice", 1)); alert == nil {
		t.Error("expected keyword alert for lower-cased configured keyword")
	}
}

func TestEvaluateHasNoSideEffects(t *testing.T) {
	r, err := rules.New([]string{"secret"}, nil, 10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	j := job("secret.pdf", "alice", 50)
	first := r.Evaluate(j)
	second := r.Evaluate(j)

	if first == nil || second == nil {
		t.Fatal("expected alerts from both evaluations")
	}
	if len(first.Reasons) != len(second.Reasons) {
		t.Errorf("evaluations disagree: %v vs %v", first.Reasons, second.Reasons)
	}
}
