package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/repository"
)

// defaultStatsWindow is the span reported when no range is given.
const defaultStatsWindow = 30 * 24 * time.Hour

// handleDispositionStats returns daily disposition counters and their totals
func (s *Server) handleDispositionStats(c *gin.Context) {
	if s.stats == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrDatabaseError, "Disposition statistics are not enabled", nil)
		return
	}

	to := time.Now().UTC()
	from := to.Add(-defaultStatsWindow)

	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.DateOnly, raw); err != nil {
			s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "from must be formatted as YYYY-MM-DD", err)
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.DateOnly, raw); err != nil {
			s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "to must be formatted as YYYY-MM-DD", err)
			return
		}
	}
	if to.Before(from) {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid range",
			fmt.Errorf("to (%s) is before from (%s)", to.Format(time.DateOnly), from.Format(time.DateOnly)))
		return
	}

	counts, err := s.stats.Range(c.Request.Context(), from, to)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "Failed to load statistics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":   from.Format(time.DateOnly),
		"to":     to.Format(time.DateOnly),
		"counts": counts,
		"totals": repository.Totals(counts),
	})
}
