package feedback

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onco-triage-server/internal/domain"
)

func TestSubmission_ToFeedback(t *testing.T) {
	fb, err := Submission{
		ReportID:             " rpt-9 ",
		SuggestedDisposition: "Interconsultation",
		ClinicianDisposition: "INTERCONSULTATION",
		FiredRules:           []domain.RuleCode{"GI-NAUSEA-ADJUST"},
		Notes:                "agree ",
	}.ToFeedback()
	require.NoError(t, err)

	assert.Equal(t, "rpt-9", fb.ReportID)
	assert.Equal(t, domain.Interconsultation, fb.SuggestedDisposition)
	assert.True(t, fb.Agreed)
	assert.Equal(t, "agree", fb.Notes)
}

func TestSubmission_ToFeedbackErrors(t *testing.T) {
	tests := []struct {
		name   string
		sub    Submission
		fields map[string]string
	}{
		{
			name: "everything missing",
			sub:  Submission{},
			fields: map[string]string{
				"report_id":             domain.ErrMissingRequiredContext,
				"suggested_disposition": domain.ErrMissingRequiredContext,
				"clinician_disposition": domain.ErrMissingRequiredContext,
			},
		},
		{
			name: "unknown disposition",
			sub:  Submission{ReportID: "r", SuggestedDisposition: "CONTINUE", ClinicianDisposition: "7"},
			fields: map[string]string{
				"clinician_disposition": domain.ErrOutOfRangeInput,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.sub.ToFeedback()
			var errs domain.ValidationErrors
			require.True(t, errors.As(err, &errs))

			got := map[string]string{}
			for _, e := range errs {
				got[e.Field] = e.Code
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestFeedback_Validate(t *testing.T) {
	assert.NoError(t, (&Feedback{ReportID: "r"}).Validate())
	assert.Error(t, (&Feedback{ReportID: "r", ClinicianDisposition: domain.Priority(9)}).Validate())
	assert.Error(t, (&Feedback{}).Validate())
}

func TestRuleEncoding(t *testing.T) {
	codes := []domain.RuleCode{"CTX-PALLIATIVE", "CV-BLEEDING-C-E"}
	assert.Equal(t, "CTX-PALLIATIVE,CV-BLEEDING-C-E", joinRules(codes))
	assert.Equal(t, codes, splitRules(joinRules(codes)))
	assert.Nil(t, splitRules(""))
}

func TestOpen(t *testing.T) {
	logger, _ := test.NewNullLogger()

	store, err := Open(domain.FeedbackConfig{Driver: "SQLite", SQLitePath: filepath.Join(t.TempDir(), "nested", "fb.db")}, "", logger)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	assert.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())

	_, err = Open(domain.FeedbackConfig{Driver: "mongo"}, "", logger)
	assert.ErrorContains(t, err, "unknown feedback driver")
}
