package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/onco-triage-server/internal/domain"
)

// DispositionCount is the number of evaluations ending in one disposition on one day.
type DispositionCount struct {
	Day         time.Time       `json:"day"`
	Disposition domain.Priority `json:"disposition"`
	Total       int64           `json:"total"`
}

// pgxQuerier is the subset of *pgxpool.Pool the repository needs.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DispositionTallyRepository keeps de-identified daily counters of final
// dispositions. It implements domain.DispositionRecorder.
type DispositionTallyRepository struct {
	db  pgxQuerier
	log *logrus.Logger
}

// NewDispositionTallyRepository creates a new tally repository
func NewDispositionTallyRepository(db pgxQuerier, logger *logrus.Logger) *DispositionTallyRepository {
	return &DispositionTallyRepository{
		db:  db,
		log: logger,
	}
}

// Record increments the counter for the day (UTC) and disposition.
func (r *DispositionTallyRepository) Record(ctx context.Context, day time.Time, recommendation domain.Priority) error {
	if !recommendation.IsValid() {
		return fmt.Errorf("recording disposition: %w", domain.ErrInvalidPriority)
	}

	query := `
		INSERT INTO disposition_tally (day, disposition, total, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (day, disposition) DO UPDATE SET
			total = disposition_tally.total + 1,
			updated_at = NOW()`

	_, err := r.db.Exec(ctx, query, truncateDay(day), recommendation.String())
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"disposition": recommendation.String(),
			"error":       err,
		}).Error("Failed to record disposition")
		return fmt.Errorf("recording disposition: %w", err)
	}

	return nil
}

// Range lists the counters between from and to inclusive, oldest day first.
func (r *DispositionTallyRepository) Range(ctx context.Context, from, to time.Time) ([]DispositionCount, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is before %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	query := `
		SELECT day, disposition, total
		FROM disposition_tally
		WHERE day BETWEEN $1 AND $2
		ORDER BY day ASC, disposition ASC`

	rows, err := r.db.Query(ctx, query, truncateDay(from), truncateDay(to))
	if err != nil {
		return nil, fmt.Errorf("querying disposition tally: %w", err)
	}
	defer rows.Close()

	counts := []DispositionCount{}
	for rows.Next() {
		var c DispositionCount
		var disposition string
		if err := rows.Scan(&c.Day, &disposition, &c.Total); err != nil {
			return nil, fmt.Errorf("scanning disposition tally: %w", err)
		}
		if c.Disposition, err = domain.ParsePriority(disposition); err != nil {
			return nil, fmt.Errorf("scanning disposition tally: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating disposition tally: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"from":  from.Format(time.DateOnly),
		"to":    to.Format(time.DateOnly),
		"count": len(counts),
	}).Debug("Loaded disposition tally")

	return counts, nil
}

// Totals sums counts per disposition.
func Totals(counts []DispositionCount) map[domain.Priority]int64 {
	totals := make(map[domain.Priority]int64, len(domain.Priorities()))
	for _, p := range domain.Priorities() {
		totals[p] = 0
	}
	for _, c := range counts {
		totals[c.Disposition] += c.Total
	}
	return totals
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
