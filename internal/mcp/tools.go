package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/feedback"
	"github.com/onco-triage-server/internal/intake"
	"github.com/onco-triage-server/internal/report"
	"github.com/onco-triage-server/internal/service"
)

const (
	ToolEvaluateTriage       = "evaluate_triage"
	ToolExportTriageReport   = "export_triage_report"
	ToolListTriageRules      = "list_triage_rules"
	ToolSubmitTriageFeedback = "submit_triage_feedback"
)

// ExportParams defines parameters for export_triage_report
type ExportParams struct {
	Form       intake.Form `json:"form"`
	Format     string      `json:"format,omitempty"`
	SaveToFile bool        `json:"save_to_file,omitempty"`
}

// ExportResult is the structured output of export_triage_report
type ExportResult struct {
	ReportID string `json:"report_id"`
	Format   string `json:"format"`
	FileName string `json:"file_name"`
	Path     string `json:"path,omitempty"`
	Content  string `json:"content"`
}

// ListRulesParams defines parameters for list_triage_rules
type ListRulesParams struct {
	Section string `json:"section,omitempty"`
}

// ListRulesResult is the structured output of list_triage_rules
type ListRulesResult struct {
	Rules []domain.TriageRule `json:"rules"`
	Count int                 `json:"count"`
}

// handleEvaluateTriage handles the evaluate_triage tool invocation
func (s *Server) handleEvaluateTriage(ctx context.Context, req *mcp.CallToolRequest, form intake.Form) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolEvaluateTriage).Info("Tool invoked")

	assessment, err := s.evaluate(ctx, form)
	if err != nil {
		return s.createErrorResult("Evaluation rejected", err), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: report.RenderText(assessment.Result)},
		},
	}, assessment, nil
}

// handleExportTriageReport handles the export_triage_report tool invocation
func (s *Server) handleExportTriageReport(ctx context.Context, req *mcp.CallToolRequest, params ExportParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolExportTriageReport).Info("Tool invoked")

	format, err := report.ParseFormat(params.Format)
	if err != nil {
		return s.createErrorResult("Invalid format", err), nil, nil
	}

	assessment, err := s.evaluate(ctx, params.Form)
	if err != nil {
		return s.createErrorResult("Evaluation rejected", err), nil, nil
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, report.FromAssessment(assessment)); err != nil {
		return nil, nil, err
	}

	result := ExportResult{
		ReportID: assessment.ReportID,
		Format:   string(format),
		FileName: report.FileName(assessment.Identification.PatientID, format.Extension()),
		Content:  buf.String(),
	}

	if params.SaveToFile {
		if s.exportDir == "" {
			return s.createErrorResult("Saving is not available", errors.New("no export directory configured")), nil, nil
		}
		// Patient identifiers are free text; keep the file inside the export directory.
		path := filepath.Join(s.exportDir, filepath.Base(result.FileName))
		if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
			return nil, nil, fmt.Errorf("failed to save report: %w", err)
		}
		result.Path = path
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: result.Content},
		},
	}, result, nil
}

// handleListTriageRules handles the list_triage_rules tool invocation
func (s *Server) handleListTriageRules(ctx context.Context, req *mcp.CallToolRequest, params ListRulesParams) (*mcp.CallToolResult, any, error) {
	section := domain.Section(strings.ToLower(strings.TrimSpace(params.Section)))

	rules := []domain.TriageRule{}
	for _, r := range s.triage.Rules() {
		if section == "" || r.Section == section {
			rules = append(rules, r)
		}
	}

	var b strings.Builder
	for _, r := range rules {
		fmt.Fprintf(&b, "%s [%s] %s -> %s\n", r.Code, r.Section, r.Condition, r.Level.Label())
	}
	if len(rules) == 0 {
		b.WriteString("No rules match the requested section.\n")
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: b.String()},
		},
	}, ListRulesResult{Rules: rules, Count: len(rules)}, nil
}

// handleSubmitTriageFeedback handles the submit_triage_feedback tool invocation
func (s *Server) handleSubmitTriageFeedback(ctx context.Context, req *mcp.CallToolRequest, params feedback.Submission) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolSubmitTriageFeedback).Info("Tool invoked")

	fb, err := params.ToFeedback()
	if err != nil {
		return s.createErrorResult("Invalid feedback", err), nil, nil
	}
	if err := s.feedback.Save(ctx, fb); err != nil {
		return s.createErrorResult("Failed to save feedback", err), nil, nil
	}

	verdict := "disagreed with"
	if fb.Agreed {
		verdict = "agreed with"
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Feedback recorded for report %s: clinician %s the suggested %s.",
					fb.ReportID, verdict, fb.SuggestedDisposition.Label()),
			},
		},
	}, fb, nil
}

func (s *Server) evaluate(ctx context.Context, form intake.Form) (*service.Assessment, error) {
	snapshot, err := s.parser.Parse(form)
	if err != nil {
		return nil, err
	}
	return s.triage.Evaluate(ctx, snapshot)
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
