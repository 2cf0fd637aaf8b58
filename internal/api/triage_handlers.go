package api

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/intake"
	"github.com/onco-triage-server/internal/report"
	"github.com/onco-triage-server/internal/service"
)

// handleListRules returns the decision table in evaluation order
func (s *Server) handleListRules(c *gin.Context) {
	rules := s.triage.Rules()
	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"count": len(rules),
	})
}

// handleEvaluate scores a submitted questionnaire
func (s *Server) handleEvaluate(c *gin.Context) {
	assessment, ok := s.evaluateForm(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// handleExport scores a questionnaire and returns it as a downloadable record
func (s *Server) handleExport(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Unsupported export format", err)
		return
	}

	assessment, ok := s.evaluateForm(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, report.FromAssessment(assessment)); err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "Failed to render report", err)
		return
	}

	filename := report.FileName(assessment.Identification.PatientID, format.Extension())
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Header("X-Report-ID", assessment.ReportID)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) evaluateForm(c *gin.Context) (*service.Assessment, bool) {
	var form intake.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Malformed request body", err)
		return nil, false
	}

	snapshot, err := s.parser.Parse(form)
	if err != nil {
		s.respondEvaluationError(c, err)
		return nil, false
	}

	assessment, err := s.triage.Evaluate(c.Request.Context(), snapshot)
	if err != nil {
		s.respondEvaluationError(c, err)
		return nil, false
	}
	return assessment, true
}

func (s *Server) respondEvaluationError(c *gin.Context, err error) {
	if errs, ok := asValidationErrors(err); ok {
		s.respondValidation(c, errs)
		return
	}
	s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "Evaluation failed", err)
}
