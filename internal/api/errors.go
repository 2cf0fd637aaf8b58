package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/middleware"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  *domain.TriageError     `json:"error"`
	Fields domain.ValidationErrors `json:"fields,omitempty"`
}

func (s *Server) respondError(c *gin.Context, status int, code, message string, err error) {
	details := ""
	if err != nil && status < http.StatusInternalServerError {
		details = err.Error()
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"correlation_id": c.GetString(middleware.CorrelationIDKey),
			"code":           code,
		}).Error(message)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: domain.NewTriageError(code, message, details, c.GetString(middleware.CorrelationIDKey)),
	})
}

// respondValidation answers 422 listing every invalid field.
func (s *Server) respondValidation(c *gin.Context, errs domain.ValidationErrors) {
	code := domain.ErrOutOfRangeInput
	if !errs.HasCode(domain.ErrOutOfRangeInput) && errs.HasCode(domain.ErrMissingRequiredContext) {
		code = domain.ErrMissingRequiredContext
	}

	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:  domain.NewTriageError(code, "Submission failed validation", "", c.GetString(middleware.CorrelationIDKey)),
		Fields: errs,
	})
}

// respondStoreError maps domain and backend failures to HTTP statuses.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	if errs, ok := asValidationErrors(err); ok {
		s.respondValidation(c, errs)
		return
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrDatabaseError, "Storage temporarily unavailable", err)
		return
	}
	s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "Storage operation failed", err)
}

// asValidationErrors unwraps either a single ValidationError or a list.
func asValidationErrors(err error) (domain.ValidationErrors, bool) {
	var list domain.ValidationErrors
	if errors.As(err, &list) {
		return list, true
	}
	var single *domain.ValidationError
	if errors.As(err, &single) {
		return domain.ValidationErrors{single}, true
	}
	return nil, false
}
