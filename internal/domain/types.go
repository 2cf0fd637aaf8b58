// Package domain contains the core entities and closed enumerations for oncology
// symptom triage: the disposition ladder, the severity scales used per symptom and
// the context values collected alongside them.
//
// Severity grades arrive from the intake layer already validated. Nothing in this
// package parses display labels; every scale is a closed set of codes.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Priority is the triage disposition. The numeric value is the clinical urgency,
// so ordinary integer comparison gives the escalation order.
type Priority int

const (
	Continue Priority = iota
	Interconsultation
	UrgentCare
	EmergencyUrgentCare
)

// Validation errors for triage vocabulary
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidPriority   = errors.New("invalid triage priority")
	ErrInvalidGrade      = errors.New("invalid severity grade")
	ErrInvalidTiming     = errors.New("invalid treatment timing")
	ErrInvalidPalliative = errors.New("invalid palliative status")
)

var priorityCodes = [...]string{
	Continue:            "CONTINUE",
	Interconsultation:   "INTERCONSULTATION",
	UrgentCare:          "URGENT_CARE",
	EmergencyUrgentCare: "EMERGENCY_URGENT_CARE",
}

var priorityLabels = [...]string{
	Continue:            "Continue",
	Interconsultation:   "Interconsultation",
	UrgentCare:          "Urgent Care",
	EmergencyUrgentCare: "Emergency Urgent Care",
}

// Priorities returns every disposition in ascending order of urgency.
func Priorities() []Priority {
	return []Priority{Continue, Interconsultation, UrgentCare, EmergencyUrgentCare}
}

// RaiseTo returns the higher of current and candidate. It is the only way a
// recommendation changes during an evaluation, so a level can never go down.
func RaiseTo(current, candidate Priority) Priority {
	if candidate > current {
		return candidate
	}
	return current
}

// IsValid reports whether p is one of the four dispositions.
func (p Priority) IsValid() bool {
	return p >= Continue && p <= EmergencyUrgentCare
}

// String returns the stable wire code of the disposition.
func (p Priority) String() string {
	if !p.IsValid() {
		return "UNKNOWN"
	}
	return priorityCodes[p]
}

// Label returns the human-readable disposition name.
func (p Priority) Label() string {
	if !p.IsValid() {
		return "Unknown"
	}
	return priorityLabels[p]
}

// Guidance returns the instruction shown to the clinician with the final disposition.
func (p Priority) Guidance() string {
	switch p {
	case EmergencyUrgentCare:
		return "Refer to EMERGENCY urgent care. Activate the emergency protocol and document vital signs."
	case UrgentCare:
		return "Refer to urgent care for immediate evaluation."
	case Interconsultation:
		return "Coordinate a short-term interconsultation with the corresponding service."
	default:
		return "Continue follow-up and reinforce education on alarm signs."
	}
}

// MarshalText encodes the disposition as its wire code.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText accepts a wire code or a display label, case-insensitively.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePriority resolves a wire code, display label or numeric level.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	for _, p := range Priorities() {
		if strings.EqualFold(s, p.String()) || strings.EqualFold(s, p.Label()) {
			return p, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Priority(n).IsValid() {
		return Priority(n), nil
	}
	return Continue, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Grade04 is the 0–4 ordinal scale: 0 asymptomatic, 4 life-threatening.
type Grade04 int

// Valid reports whether g is within 0–4.
func (g Grade04) Valid() bool { return g >= 0 && g <= 4 }

// Grade03 is the 0–3 ordinal scale: 0 asymptomatic, 3 severe.
type Grade03 int

// Valid reports whether g is within 0–3.
func (g Grade03) Valid() bool { return g >= 0 && g <= 3 }

// LetterGrade is the A–E scale. GradeNone is the "0 = asymptomatic" sentinel
// used by the fields that allow it.
type LetterGrade string

const (
	GradeNone LetterGrade = "0"
	GradeA    LetterGrade = "A"
	GradeB    LetterGrade = "B"
	GradeC    LetterGrade = "C"
	GradeD    LetterGrade = "D"
	GradeE    LetterGrade = "E"
)

// Rank returns 0 for the sentinel, 1..5 for A..E and -1 for anything else.
// The zero value counts as the sentinel.
func (g LetterGrade) Rank() int {
	switch g {
	case GradeNone, "":
		return 0
	case GradeA:
		return 1
	case GradeB:
		return 2
	case GradeC:
		return 3
	case GradeD:
		return 4
	case GradeE:
		return 5
	default:
		return -1
	}
}

// String returns the grade code.
func (g LetterGrade) String() string { return string(g) }

// IsNone reports whether g is the absence sentinel.
func (g LetterGrade) IsNone() bool { return g == GradeNone || g == "" }

// Within reports whether g is the sentinel (when allowed) or a letter up to max.
func (g LetterGrade) Within(allowNone bool, max LetterGrade) bool {
	r := g.Rank()
	if r == 0 {
		return allowNone
	}
	return r > 0 && r <= max.Rank()
}

// In reports whether g is one of grades.
func (g LetterGrade) In(grades ...LetterGrade) bool {
	for _, candidate := range grades {
		if g == candidate {
			return true
		}
	}
	return false
}

// ParseLetterGrade maps a user selection to a LetterGrade. Empty, "0" and "No"
// all mean the symptom is absent.
func ParseLetterGrade(s string) (LetterGrade, error) {
	switch v := strings.ToUpper(strings.TrimSpace(s)); v {
	case "", "0", "NO":
		return GradeNone, nil
	case "A", "B", "C", "D", "E":
		return LetterGrade(v), nil
	default:
		return GradeNone, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
}

// TreatmentTiming is the time since the last systemic treatment dose.
type TreatmentTiming string

const (
	TimingUnder7Days TreatmentTiming = "<7d"
	TimingOver7Days  TreatmentTiming = ">7d"
	TimingRestWeek   TreatmentTiming = "rest_week"
)

// Valid reports whether t is a known timing bucket.
func (t TreatmentTiming) Valid() bool {
	switch t {
	case TimingUnder7Days, TimingOver7Days, TimingRestWeek:
		return true
	}
	return false
}

// Label returns the display form of the timing bucket.
func (t TreatmentTiming) Label() string {
	switch t {
	case TimingUnder7Days:
		return "< 7 days"
	case TimingOver7Days:
		return "> 7 days"
	case TimingRestWeek:
		return "Rest week"
	default:
		return string(t)
	}
}

// RTWeek is the current week bucket of an ongoing radiotherapy course.
type RTWeek string

const (
	RTWeekUnder7Days RTWeek = "<7d"
	RTWeekOver7Days  RTWeek = ">7d"
	RTWeekOver14Days RTWeek = ">14d"
)

// Valid reports whether w is a known bucket.
func (w RTWeek) Valid() bool {
	switch w {
	case RTWeekUnder7Days, RTWeekOver7Days, RTWeekOver14Days:
		return true
	}
	return false
}

// Label returns the display form of the bucket.
func (w RTWeek) Label() string {
	switch w {
	case RTWeekUnder7Days:
		return "< 7 days"
	case RTWeekOver7Days:
		return "> 7 days"
	case RTWeekOver14Days:
		return "> 14 days"
	default:
		return string(w)
	}
}

// RTSinceEnd is the time elapsed since a finished radiotherapy course.
type RTSinceEnd string

const (
	RTEndUnder7Days RTSinceEnd = "<7d"
	RTEndOver7Days  RTSinceEnd = ">7d"
)

// Valid reports whether e is a known bucket.
func (e RTSinceEnd) Valid() bool {
	return e == RTEndUnder7Days || e == RTEndOver7Days
}

// Label returns the display form of the bucket.
func (e RTSinceEnd) Label() string {
	switch e {
	case RTEndUnder7Days:
		return "< 7 days"
	case RTEndOver7Days:
		return "> 7 days"
	default:
		return string(e)
	}
}

// PalliativeStatus records whether the patient is under palliative care.
type PalliativeStatus string

const (
	PalliativeNA  PalliativeStatus = "N/A"
	PalliativeYes PalliativeStatus = "Yes"
	PalliativeNo  PalliativeStatus = "No"
)

// Valid reports whether s is a known status.
func (s PalliativeStatus) Valid() bool {
	return s == PalliativeNA || s == PalliativeYes || s == PalliativeNo
}
