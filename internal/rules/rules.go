package rules

import (
	"errors"
	"strings"

	"printwatch/internal/models"
)

// Rule construction errors
var (
	ErrNonPositiveMaxPages = errors.New("max pages threshold must be positive")
)

// Ruleset holds the compiled alert rules. Keywords are lower-cased once at
// construction so matching never normalizes per job; the user watch list is
// kept verbatim because account matching is case-sensitive.
type Ruleset struct {
	keywords []string
	users    map[string]struct{}
	maxPages int
}

// New compiles a ruleset from the configured keyword list, user watch list
// and page threshold.
func New(keywords []string, users []string, maxPages int) (*Ruleset, error) {
	if maxPages <= 0 {
		return nil, ErrNonPositiveMaxPages
	}

	r := &Ruleset{
		keywords: make([]string, 0, len(keywords)),
		users:    make(map[string]struct{}, len(users)),
		maxPages: maxPages,
	}

	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		r.keywords = append(r.keywords, kw)
	}

	for _, u := range users {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		r.users[u] = struct{}{}
	}

	return r, nil
}

// Evaluate inspects a single job against every rule and returns an alert
// carrying all reasons that fired, or nil when the job is normal. The
// evaluation has no side effects.
//
// Reasons are appended in a fixed order (keyword, user, oversized) so the
// result is independent of configuration order.
func (r *Ruleset) Evaluate(job models.PrintJob) *models.Alert {
	var (
		reasons []models.Reason
		matched []string
	)

	name := strings.ToLower(job.DocumentName)
	for _, kw := range r.keywords {
		if strings.Contains(name, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		reasons = append(reasons, models.ReasonSensitiveKeyword)
	}

	if _, found := r.users[job.User]; found {
		reasons = append(reasons, models.ReasonSuspiciousUser)
	}

	if job.Pages > r.maxPages {
		reasons = append(reasons, models.ReasonOversizedJob)
	}

	if len(reasons) == 0 {
		return nil
	}

	return models.NewAlert(job, reasons).WithKeywords(matched)
}
