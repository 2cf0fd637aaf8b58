package domain

import "fmt"

// RuleCode identifies one row of the triage decision table.
type RuleCode string

// Section is a block of the symptom questionnaire. Sections are evaluated in
// declaration order.
type Section string

const (
	SectionContext          Section = "context"
	SectionGastrointestinal Section = "gastrointestinal"
	SectionDermatologic     Section = "dermatologic"
	SectionNeurologic       Section = "neurologic"
	SectionCardiovascular   Section = "cardiovascular"
)

// TriageRule is a decision-table entry. Advisory rules carry Level Continue and
// Escalates false; they add a message without moving the recommendation.
type TriageRule struct {
	Code      RuleCode `json:"code"`
	Section   Section  `json:"section"`
	Condition string   `json:"condition"`
	Level     Priority `json:"level"`
	Escalates bool     `json:"escalates"`
	Message   string   `json:"message"`
}

// Render formats the rule's message. Only templated messages use args.
func (r TriageRule) Render(args ...any) string {
	if len(args) == 0 {
		return r.Message
	}
	return fmt.Sprintf(r.Message, args...)
}
