package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/onco-triage-server/internal/domain"
)

// Assessment is one evaluated report as returned to callers.
type Assessment struct {
	ReportID       string                  `json:"report_id"`
	GeneratedAt    time.Time               `json:"generated_at"`
	Identification domain.Identification   `json:"identification"`
	Result         domain.EvaluationResult `json:"result"`
}

// TriageService wraps the recommendation engine with input checks, report
// identity and logging
type TriageService struct {
	logger   *logrus.Logger
	engine   domain.Evaluator
	recorder domain.DispositionRecorder
	now      func() time.Time
}

// NewTriageService creates a new triage service. recorder may be nil when no
// statistics database is configured.
func NewTriageService(logger *logrus.Logger, engine domain.Evaluator, recorder domain.DispositionRecorder) *TriageService {
	if engine == nil {
		engine = NewRecommendationEngine()
	}
	return &TriageService{
		logger:   logger,
		engine:   engine,
		recorder: recorder,
		now:      time.Now,
	}
}

// Evaluate validates the snapshot and runs the decision table against it
func (s *TriageService) Evaluate(ctx context.Context, snapshot domain.PatientSnapshot) (*Assessment, error) {
	if err := snapshot.Validate(); err != nil {
		s.logger.WithError(err).Warn("Rejected triage snapshot")
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	startTime := time.Now()
	result := s.engine.Evaluate(snapshot)

	assessment := &Assessment{
		ReportID:       uuid.New().String(),
		GeneratedAt:    s.now().UTC(),
		Identification: snapshot.Identification,
		Result:         result,
	}

	// Never log the patient identifier; the report ID is enough to correlate.
	s.logger.WithFields(logrus.Fields(result.LogFields())).
		WithField("report_id", assessment.ReportID).
		WithField("duration", time.Since(startTime)).
		Info("Completed triage evaluation")

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, assessment.GeneratedAt, result.Recommendation); err != nil {
			s.logger.WithError(err).WithField("report_id", assessment.ReportID).Warn("Failed to record disposition")
		}
	}

	return assessment, nil
}

// Rules returns the decision table in evaluation order
func (s *TriageService) Rules() []domain.TriageRule {
	return s.engine.Rules()
}
