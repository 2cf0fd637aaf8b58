// Package feedback stores clinician reviews of triage suggestions.
// Records are de-identified: they reference a report ID and the fired rule
// codes, never the patient identifier or the answered symptoms.
package feedback

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/onco-triage-server/internal/domain"
)

// Feedback represents a clinician's review of one triage suggestion.
type Feedback struct {
	ID                   int64             `json:"id,omitempty"`
	ReportID             string            `json:"report_id"`             // Assessment the review refers to
	SuggestedDisposition domain.Priority   `json:"suggested_disposition"` // Engine's recommendation
	ClinicianDisposition domain.Priority   `json:"clinician_disposition"` // Clinician's decision
	Agreed               bool              `json:"agreed"`                // Did the clinician agree with the suggestion?
	FiredRules           []domain.RuleCode `json:"fired_rules,omitempty"` // Rules behind the suggestion
	Notes                string            `json:"notes,omitempty"`       // Clinician notes
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// Store defines the interface for feedback storage operations.
type Store interface {
	// Save stores or updates feedback. A second review of the same report
	// replaces the first.
	Save(ctx context.Context, feedback *Feedback) error

	// Get retrieves the feedback for a report, or nil when there is none.
	Get(ctx context.Context, reportID string) (*Feedback, error)

	// List returns all feedback entries with pagination.
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)

	// Count returns the total number of feedback entries.
	Count(ctx context.Context) (int64, error)

	// Delete removes a feedback entry by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all feedback to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports feedback from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}

// FeedbackExport represents the JSON export format.
type FeedbackExport struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// joinRules encodes rule codes for a TEXT column.
func joinRules(codes []domain.RuleCode) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func splitRules(s string) []domain.RuleCode {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	codes := make([]domain.RuleCode, len(parts))
	for i, p := range parts {
		codes[i] = domain.RuleCode(p)
	}
	return codes
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// feedbackColumns is the column list read by scanFeedback.
const feedbackColumns = `id, report_id, suggested_disposition, clinician_disposition, agreed,
			fired_rules, notes, created_at, updated_at`

// scanFeedback scans a row into a Feedback struct.
func scanFeedback(s scanner) (*Feedback, error) {
	fb := &Feedback{}
	var suggested, clinician, rules string

	err := s.Scan(
		&fb.ID, &fb.ReportID, &suggested, &clinician, &fb.Agreed,
		&rules, &fb.Notes, &fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fb.SuggestedDisposition, err = domain.ParsePriority(suggested); err != nil {
		return nil, err
	}
	if fb.ClinicianDisposition, err = domain.ParsePriority(clinician); err != nil {
		return nil, err
	}
	fb.FiredRules = splitRules(rules)
	return fb, nil
}

// Validate checks the fields a review must carry.
func (f *Feedback) Validate() error {
	if strings.TrimSpace(f.ReportID) == "" {
		return domain.NewMissingContextError("report_id")
	}
	if !f.SuggestedDisposition.IsValid() {
		return domain.NewOutOfRangeError("suggested_disposition", int(f.SuggestedDisposition))
	}
	if !f.ClinicianDisposition.IsValid() {
		return domain.NewOutOfRangeError("clinician_disposition", int(f.ClinicianDisposition))
	}
	return nil
}

// Submission is a review as sent by a client, with dispositions still in
// their wire form.
type Submission struct {
	ReportID             string            `json:"report_id"`
	SuggestedDisposition string            `json:"suggested_disposition"`
	ClinicianDisposition string            `json:"clinician_disposition"`
	FiredRules           []domain.RuleCode `json:"fired_rules,omitempty"`
	Notes                string            `json:"notes,omitempty"`
}

// ToFeedback converts the submission, reporting every invalid field at once.
func (s Submission) ToFeedback() (*Feedback, error) {
	var errs domain.ValidationErrors

	if strings.TrimSpace(s.ReportID) == "" {
		errs = append(errs, domain.NewMissingContextError("report_id"))
	}
	suggested, verr := parseDisposition("suggested_disposition", s.SuggestedDisposition)
	if verr != nil {
		errs = append(errs, verr)
	}
	clinician, verr := parseDisposition("clinician_disposition", s.ClinicianDisposition)
	if verr != nil {
		errs = append(errs, verr)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &Feedback{
		ReportID:             strings.TrimSpace(s.ReportID),
		SuggestedDisposition: suggested,
		ClinicianDisposition: clinician,
		Agreed:               suggested == clinician,
		FiredRules:           s.FiredRules,
		Notes:                strings.TrimSpace(s.Notes),
	}, nil
}

func parseDisposition(field, value string) (domain.Priority, *domain.ValidationError) {
	if strings.TrimSpace(value) == "" {
		return domain.Continue, domain.NewMissingContextError(field)
	}
	p, err := domain.ParsePriority(value)
	if err != nil {
		return domain.Continue, domain.NewOutOfRangeError(field, value)
	}
	return p, nil
}
