package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/feedback"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// handleSaveFeedback records (or replaces) the review of a report
func (s *Server) handleSaveFeedback(c *gin.Context) {
	var req feedback.Submission
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Malformed request body", err)
		return
	}

	fb, err := req.ToFeedback()
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	if err := s.feedback.Save(c.Request.Context(), fb); err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": fb.ReportID,
		"agreed":    fb.Agreed,
	}).Info("Feedback saved")

	c.JSON(http.StatusCreated, fb)
}

// handleListFeedback pages through stored reviews, newest first
func (s *Server) handleListFeedback(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil || limit <= 0 || limit > maxPageSize {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "limit must be between 1 and 500", err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "offset must be a non-negative integer", err)
		return
	}

	ctx := c.Request.Context()
	items, err := s.feedback.List(ctx, limit, offset)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	total, err := s.feedback.Count(ctx)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if items == nil {
		items = []*feedback.Feedback{}
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// handleGetFeedback returns the review recorded for a report
func (s *Server) handleGetFeedback(c *gin.Context) {
	fb, err := s.feedback.Get(c.Request.Context(), c.Param("report_id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if fb == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrNotFoundCode, "No feedback for this report", nil)
		return
	}
	c.JSON(http.StatusOK, fb)
}

// handleDeleteFeedback removes a review by its numeric ID
func (s *Server) handleDeleteFeedback(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "id must be a positive integer", err)
		return
	}

	if err := s.feedback.Delete(c.Request.Context(), id); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleExportFeedback downloads every review as JSON
func (s *Server) handleExportFeedback(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.feedback.ExportJSON(c.Request.Context(), &buf); err != nil {
		s.respondStoreError(c, err)
		return
	}

	name := "triage_feedback_" + time.Now().UTC().Format("20060102") + ".json"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
