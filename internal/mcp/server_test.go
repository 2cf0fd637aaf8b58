package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/feedback"
	"github.com/onco-triage-server/internal/intake"
	"github.com/onco-triage-server/internal/service"
)

func newTestServer(t *testing.T, withFeedback bool) (*Server, feedback.Store) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	var store feedback.Store
	if withFeedback {
		s, err := feedback.NewSQLiteStore(filepath.Join(dir, "feedback.db"))
		require.NoError(t, err)
		store = s
	}

	server, err := NewServer(Options{
		Info:      ServerInfo{Name: "onco-triage-test", Version: "v0.0.0"},
		Triage:    service.NewTriageService(logger, nil, nil),
		Parser:    intake.NewParser(intake.Policy{}),
		Feedback:  store,
		ExportDir: dir,
		Logger:    logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return server, store
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func nauseaForm() intake.Form {
	return intake.Form{
		PatientID:       "44555666",
		TreatmentTiming: "<7d",
		ECOG:            2,
		Gastrointestinal: intake.GastrointestinalForm{
			Enabled:     true,
			Nausea:      true,
			NauseaGrade: 3,
		},
	}
}

func TestNewServer(t *testing.T) {
	server, _ := newTestServer(t, true)
	assert.Equal(t, []string{
		ToolEvaluateTriage,
		ToolExportTriageReport,
		ToolListTriageRules,
		ToolSubmitTriageFeedback,
	}, server.Tools())

	withoutStore, _ := newTestServer(t, false)
	assert.NotContains(t, withoutStore.Tools(), ToolSubmitTriageFeedback)

	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestEvaluateTriageTool(t *testing.T) {
	server, _ := newTestServer(t, false)

	res, out, err := server.handleEvaluateTriage(context.Background(), nil, nauseaForm())
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.True(t, strings.HasPrefix(textOf(t, res), "Recommendation: Urgent Care"))

	assessment, ok := out.(*service.Assessment)
	require.True(t, ok)
	assert.Equal(t, domain.UrgentCare, assessment.Result.Recommendation)
	assert.Equal(t, []domain.RuleCode{service.RuleNauseaSevere}, assessment.Result.FiredRules)
}

func TestEvaluateTriageTool_Rejected(t *testing.T) {
	server, _ := newTestServer(t, false)

	form := nauseaForm()
	form.ECOG = 7
	res, out, err := server.handleEvaluateTriage(context.Background(), nil, form)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "'ecog'")
}

func TestExportTriageReportTool(t *testing.T) {
	server, _ := newTestServer(t, false)

	res, out, err := server.handleExportTriageReport(context.Background(), nil, ExportParams{
		Form:       nauseaForm(),
		Format:     "csv",
		SaveToFile: true,
	})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	result, ok := out.(ExportResult)
	require.True(t, ok)
	assert.Equal(t, "triage_44555666.csv", result.FileName)
	assert.True(t, strings.HasPrefix(result.Content, "field,value\nRecommendation,Urgent Care\n"))

	saved, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, result.Content, string(saved))
	assert.Equal(t, server.exportDir, filepath.Dir(result.Path))
}

func TestExportTriageReportTool_PathTraversal(t *testing.T) {
	server, _ := newTestServer(t, false)

	form := nauseaForm()
	form.PatientID = "../../etc/x"
	_, out, err := server.handleExportTriageReport(context.Background(), nil, ExportParams{
		Form:       form,
		Format:     "text",
		SaveToFile: true,
	})
	require.NoError(t, err)
	result := out.(ExportResult)
	assert.Equal(t, server.exportDir, filepath.Dir(result.Path))
}

func TestExportTriageReportTool_BadFormat(t *testing.T) {
	server, _ := newTestServer(t, false)

	res, _, err := server.handleExportTriageReport(context.Background(), nil, ExportParams{Form: nauseaForm(), Format: "docx"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListTriageRulesTool(t *testing.T) {
	server, _ := newTestServer(t, false)

	tests := []struct {
		section string
		count   int
	}{
		{"", 18},
		{"Cardiovascular", 3},
		{"context", 1},
		{"pulmonary", 0},
	}

	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			res, out, err := server.handleListTriageRules(context.Background(), nil, ListRulesParams{Section: tt.section})
			require.NoError(t, err)
			result := out.(ListRulesResult)
			assert.Equal(t, tt.count, result.Count)
			assert.Len(t, result.Rules, tt.count)
			assert.NotEmpty(t, textOf(t, res))
		})
	}
}

func TestSubmitTriageFeedbackTool(t *testing.T) {
	server, store := newTestServer(t, true)
	ctx := context.Background()

	res, out, err := server.handleSubmitTriageFeedback(ctx, nil, feedback.Submission{
		ReportID:             "rpt-42",
		SuggestedDisposition: "URGENT_CARE",
		ClinicianDisposition: "URGENT_CARE",
		FiredRules:           []domain.RuleCode{service.RuleNauseaSevere},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "agreed with the suggested Urgent Care")

	fb := out.(*feedback.Feedback)
	assert.True(t, fb.Agreed)

	stored, err := store.Get(ctx, "rpt-42")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, fb.ID, stored.ID)

	res, _, err = server.handleSubmitTriageFeedback(ctx, nil, feedback.Submission{ReportID: "rpt-43"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestRulesResource(t *testing.T) {
	server, _ := newTestServer(t, false)

	res, err := server.readRulesResource(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, RulesResourceURI, res.Contents[0].URI)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var body RulesResource
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &body))
	assert.Equal(t, "v0.0.0", body.Version)
	assert.Len(t, body.Rules, 18)
	assert.ElementsMatch(t, []domain.Section{
		domain.SectionContext,
		domain.SectionGastrointestinal,
		domain.SectionDermatologic,
		domain.SectionNeurologic,
		domain.SectionCardiovascular,
	}, body.Sections)
	assert.Equal(t, body.Rules[0].Section, body.Sections[0])
}
