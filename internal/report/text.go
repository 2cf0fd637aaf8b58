package report

import (
	"fmt"
	"strings"

	"github.com/onco-triage-server/internal/domain"
)

// RenderText returns the on-screen summary of a result.
func RenderText(result domain.EvaluationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Recommendation: %s\n", result.Recommendation.Label())
	fmt.Fprintf(&b, "%s\n", result.Recommendation.Guidance())

	b.WriteString("\nObservations:\n")
	if len(result.Messages) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, msg := range result.Messages {
		fmt.Fprintf(&b, "  - %s\n", msg)
	}

	b.WriteString("\nAnswers:\n")
	for _, d := range result.Details {
		fmt.Fprintf(&b, "  %s: %s\n", d.Label, d.Value)
	}

	return b.String()
}
