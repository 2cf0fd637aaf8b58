package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/onco-triage-server/internal/domain"
)

// WriteCSV flattens result into field,value rows: the recommendation first,
// then every detail in order, then each observation numbered from 1.
func WriteCSV(w io.Writer, result domain.EvaluationResult) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"field", "value"},
		{"Recommendation", result.Recommendation.Label()},
	}
	for _, d := range result.Details {
		rows = append(rows, []string{d.Label, d.Value})
	}
	for i, msg := range result.Messages {
		rows = append(rows, []string{fmt.Sprintf("Observation %d", i+1), msg})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv report: %w", err)
	}
	return nil
}
