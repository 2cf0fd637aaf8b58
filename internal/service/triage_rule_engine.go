package service

import (
	"strconv"
	"strings"

	"github.com/onco-triage-server/internal/domain"
)

// Rule codes of the triage decision table, in evaluation order.
const (
	RulePalliativeReferral  domain.RuleCode = "CTX-PALLIATIVE"
	RuleLoperamideDosing    domain.RuleCode = "GI-LOPERAMIDE-DOSING"
	RuleLoperamideOveruse   domain.RuleCode = "GI-LOPERAMIDE-OVERUSE"
	RuleNauseaSevere        domain.RuleCode = "GI-NAUSEA-2-3"
	RuleNauseaStartAntiemet domain.RuleCode = "GI-NAUSEA-1-START"
	RuleNauseaAdjustRegimen domain.RuleCode = "GI-NAUSEA-1-ADJUST"
	RuleVomitingSevere      domain.RuleCode = "GI-VOMITING-B-E"
	RuleVomitingMild        domain.RuleCode = "GI-VOMITING-A"
	RuleAbdominalPainD      domain.RuleCode = "GI-ABDOMINAL-PAIN-D"
	RuleMucositis3          domain.RuleCode = "DERM-MUCOSITIS-3"
	RuleErythemaSevere      domain.RuleCode = "DERM-ERYTHEMA-D-E"
	RuleAcne3               domain.RuleCode = "DERM-ACNE-3"
	RuleHandFoot3           domain.RuleCode = "DERM-HAND-FOOT-3"
	RuleNeuropathy2         domain.RuleCode = "NEURO-NEUROPATHY-2"
	RuleOtotoxicity         domain.RuleCode = "NEURO-OTOTOXICITY"
	RuleBleedingSevere      domain.RuleCode = "CV-BLEEDING-C-E"
	RuleBleedingMild        domain.RuleCode = "CV-BLEEDING-A-B"
	RuleHypertension4       domain.RuleCode = "CV-HYPERTENSION-4"
)

// Detail labels written to EvaluationResult.Details.
const (
	LabelPatientID      = "Patient ID"
	LabelDate           = "Evaluation date"
	LabelTiming         = "Treatment timing"
	LabelRTReceived     = "RT received"
	LabelRTOngoing      = "RT ongoing"
	LabelRTWeek         = "RT week (ongoing)"
	LabelRTSinceEnd     = "Time since RT end"
	LabelECOG           = "ECOG"
	LabelPalliative     = "Palliative care"
	LabelDiarrhea       = "GI - Diarrhea"
	LabelNausea         = "GI - Nausea"
	LabelVomiting       = "GI - Vomiting"
	LabelAbdominalPain  = "GI - Abdominal pain"
	LabelMucositis      = "Derm - Mucositis"
	LabelErythema       = "Derm - Erythema/desquamation"
	LabelAcne           = "Derm - Acne"
	LabelHandFoot       = "Derm - Hand-foot syndrome"
	LabelNeuropathy     = "Neuro - Neuropathy"
	LabelOtotoxicity    = "Neuro - Ototoxicity"
	LabelBleeding       = "CV - Bleeding"
	LabelHypertension   = "CV - Hypertension"
	LabelOther          = "Other"
	ototoxicityPresence = "Suspected/Present"
)

// RecommendationEngine applies the oncology triage decision table. It holds only
// the immutable rule catalog, so one engine can serve any number of concurrent
// evaluations.
type RecommendationEngine struct {
	rules map[domain.RuleCode]domain.TriageRule
	order []domain.RuleCode
}

// NewRecommendationEngine creates a new engine with the full rule catalog
func NewRecommendationEngine() *RecommendationEngine {
	engine := &RecommendationEngine{
		rules: make(map[domain.RuleCode]domain.TriageRule),
	}

	engine.initializeRules()

	return engine
}

// initializeRules registers the decision table
func (e *RecommendationEngine) initializeRules() {
	// Context
	e.advisory(RulePalliativeReferral, domain.SectionContext, "ECOG 3–4 and palliative care = No",
		"Advisory: ECOG 3–4 without palliative care → consider palliative care referral/follow-up.")

	// Gastrointestinal
	e.advisory(RuleLoperamideDosing, domain.SectionGastrointestinal, "diarrhea present, loperamide not yet used",
		"Loperamide: 2 tablets at onset, then 1 after each loose stool (max 7/day).")
	e.escalation(RuleLoperamideOveruse, domain.SectionGastrointestinal, "loperamide used, >7 tablets in 24h", domain.UrgentCare,
		">7 loperamide tablets in 24h → Urgent Care")
	e.escalation(RuleNauseaSevere, domain.SectionGastrointestinal, "nausea grade 2 or 3", domain.UrgentCare,
		"Grade 2–3 nausea → Urgent Care")
	e.advisory(RuleNauseaStartAntiemet, domain.SectionGastrointestinal, "nausea grade 1, no antiemetic",
		"Nausea grade 1: start an antiemetic (e.g. 30 drops before meals).")
	e.advisory(RuleNauseaAdjustRegimen, domain.SectionGastrointestinal, "nausea grade 1, antiemetic in use",
		"Nausea grade 1 on antiemetic: adjust the regimen with the treating physician.")
	e.escalation(RuleVomitingSevere, domain.SectionGastrointestinal, "vomiting grade B, C, D or E", domain.UrgentCare,
		"Vomiting %s → Urgent Care")
	e.advisory(RuleVomitingMild, domain.SectionGastrointestinal, "vomiting grade A",
		"Vomiting A: antiemetic and monitoring.")
	e.escalation(RuleAbdominalPainD, domain.SectionGastrointestinal, "abdominal pain grade D", domain.UrgentCare,
		"Abdominal pain D → Urgent Care")

	// Dermatologic
	e.escalation(RuleMucositis3, domain.SectionDermatologic, "mucositis grade 3", domain.UrgentCare,
		"Mucositis D(3) → Urgent Care")
	e.escalation(RuleErythemaSevere, domain.SectionDermatologic, "erythema/desquamation grade D or E", domain.UrgentCare,
		"Erythema/desquamation D–E → Urgent Care")
	e.escalation(RuleAcne3, domain.SectionDermatologic, "acne grade 3", domain.UrgentCare,
		"Acne 3 → Urgent Care")
	e.escalation(RuleHandFoot3, domain.SectionDermatologic, "hand-foot syndrome grade 3", domain.UrgentCare,
		"Hand-foot syndrome 3 → Urgent Care")

	// Neurologic
	e.escalation(RuleNeuropathy2, domain.SectionNeurologic, "neuropathy grade ≥2", domain.Interconsultation,
		"Neuropathy ≥2 → Interconsultation")
	e.escalation(RuleOtotoxicity, domain.SectionNeurologic, "ototoxicity suspected or present", domain.Interconsultation,
		"Ototoxicity → Interconsultation")

	// Cardiovascular
	e.escalation(RuleBleedingSevere, domain.SectionCardiovascular, "bleeding grade C, D or E", domain.EmergencyUrgentCare,
		"Bleeding C–E → EMERGENCY Urgent Care")
	e.escalation(RuleBleedingMild, domain.SectionCardiovascular, "bleeding grade A or B", domain.UrgentCare,
		"Bleeding A–B → Urgent Care")
	e.escalation(RuleHypertension4, domain.SectionCardiovascular, "hypertension grade ≥4", domain.UrgentCare,
		"Hypertension grade 4 → Urgent Care")
}

func (e *RecommendationEngine) escalation(code domain.RuleCode, section domain.Section, condition string, level domain.Priority, message string) {
	e.register(domain.TriageRule{
		Code:      code,
		Section:   section,
		Condition: condition,
		Level:     level,
		Escalates: true,
		Message:   message,
	})
}

func (e *RecommendationEngine) advisory(code domain.RuleCode, section domain.Section, condition, message string) {
	e.register(domain.TriageRule{
		Code:      code,
		Section:   section,
		Condition: condition,
		Level:     domain.Continue,
		Message:   message,
	})
}

func (e *RecommendationEngine) register(rule domain.TriageRule) {
	e.rules[rule.Code] = rule
	e.order = append(e.order, rule.Code)
}

// Rules returns the catalog in evaluation order.
func (e *RecommendationEngine) Rules() []domain.TriageRule {
	rules := make([]domain.TriageRule, 0, len(e.order))
	for _, code := range e.order {
		rules = append(rules, e.rules[code])
	}
	return rules
}

// Rule returns the catalog entry for code.
func (e *RecommendationEngine) Rule(code domain.RuleCode) (domain.TriageRule, bool) {
	rule, ok := e.rules[code]
	return rule, ok
}

// Evaluate maps a validated snapshot to a recommendation, the observations that
// justify it and the answered fields. It never fails and never touches state
// outside the returned value.
func (e *RecommendationEngine) Evaluate(snapshot domain.PatientSnapshot) domain.EvaluationResult {
	acc := &evaluation{
		engine: e,
		result: domain.EvaluationResult{
			Recommendation: domain.Continue,
			Messages:       []string{},
			Details:        domain.Details{},
			FiredRules:     []domain.RuleCode{},
		},
	}

	acc.context(snapshot)
	if snapshot.GI.Enabled {
		acc.gastrointestinal(snapshot.GI)
	}
	if snapshot.Derm.Enabled {
		acc.dermatologic(snapshot.Derm)
	}
	if snapshot.Neuro.Enabled {
		acc.neurologic(snapshot.Neuro)
	}
	if snapshot.CV.Enabled {
		acc.cardiovascular(snapshot.CV)
	}
	if other := strings.TrimSpace(snapshot.Other); other != "" {
		acc.note(LabelOther, other)
	}

	return acc.result
}

// evaluation is the per-call accumulator.
type evaluation struct {
	engine *RecommendationEngine
	result domain.EvaluationResult
}

// fire appends the rule's message and raises the recommendation to the rule's level.
func (a *evaluation) fire(code domain.RuleCode, args ...any) {
	rule := a.engine.rules[code]
	a.result.Recommendation = domain.RaiseTo(a.result.Recommendation, rule.Level)
	a.result.Messages = append(a.result.Messages, rule.Render(args...))
	a.result.FiredRules = append(a.result.FiredRules, code)
}

func (a *evaluation) note(label, value string) {
	a.result.Details.Add(label, value)
}

func (a *evaluation) context(s domain.PatientSnapshot) {
	id := s.Identification
	a.note(LabelPatientID, id.DisplayPatientID())
	a.note(LabelDate, id.DateISO())
	a.note(LabelTiming, id.Timing.Label())

	rt := s.Radiotherapy
	a.note(LabelRTReceived, yesNo(rt.Received))
	if rt.Received {
		a.note(LabelRTOngoing, yesNo(rt.Ongoing))
		if rt.Ongoing {
			a.note(LabelRTWeek, rt.Week.Label())
		} else {
			a.note(LabelRTSinceEnd, rt.SinceEnd.Label())
		}
	}

	a.note(LabelECOG, strconv.Itoa(s.Performance.ECOG))
	a.note(LabelPalliative, string(s.Performance.Palliative))
	if (s.Performance.ECOG == 3 || s.Performance.ECOG == 4) && s.Performance.Palliative == domain.PalliativeNo {
		a.fire(RulePalliativeReferral)
	}
}

func (a *evaluation) gastrointestinal(gi domain.GastrointestinalPanel) {
	if gi.Diarrhea {
		// Loperamide advice does not depend on the grade; grade 0 only hides the detail row.
		if gi.DiarrheaGrade > 0 {
			a.note(LabelDiarrhea, grade(gi.DiarrheaGrade))
		}
		if !gi.Loperamide {
			a.fire(RuleLoperamideDosing)
		} else if gi.LoperamideOver7 {
			a.fire(RuleLoperamideOveruse)
		}
	}

	if gi.Nausea && gi.NauseaGrade > 0 {
		a.note(LabelNausea, grade(gi.NauseaGrade))
		switch {
		case gi.NauseaGrade >= 2:
			a.fire(RuleNauseaSevere)
		case gi.Antiemetic:
			a.fire(RuleNauseaAdjustRegimen)
		default:
			a.fire(RuleNauseaStartAntiemet)
		}
	}

	if !gi.Vomiting.IsNone() {
		a.note(LabelVomiting, grade(gi.Vomiting))
		if gi.Vomiting.In(domain.GradeB, domain.GradeC, domain.GradeD, domain.GradeE) {
			a.fire(RuleVomitingSevere, gi.Vomiting)
		} else {
			a.fire(RuleVomitingMild)
		}
	}

	if !gi.AbdominalPain.IsNone() {
		a.note(LabelAbdominalPain, grade(gi.AbdominalPain))
		if gi.AbdominalPain == domain.GradeD {
			a.fire(RuleAbdominalPainD)
		}
	}
}

func (a *evaluation) dermatologic(derm domain.DermatologicPanel) {
	if derm.Mucositis && derm.MucositisGrade > 0 {
		a.note(LabelMucositis, grade(derm.MucositisGrade))
		if derm.MucositisGrade == 3 {
			a.fire(RuleMucositis3)
		}
	}

	if derm.Erythema && !derm.ErythemaGrade.IsNone() {
		a.note(LabelErythema, grade(derm.ErythemaGrade))
		if derm.ErythemaGrade.In(domain.GradeD, domain.GradeE) {
			a.fire(RuleErythemaSevere)
		}
	}

	if derm.Acne && derm.AcneGrade > 0 {
		a.note(LabelAcne, grade(derm.AcneGrade))
		if derm.AcneGrade == 3 {
			a.fire(RuleAcne3)
		}
	}

	if derm.HandFoot && derm.HandFootGrade > 0 {
		a.note(LabelHandFoot, grade(derm.HandFootGrade))
		if derm.HandFootGrade == 3 {
			a.fire(RuleHandFoot3)
		}
	}
}

func (a *evaluation) neurologic(neuro domain.NeurologicPanel) {
	if neuro.Neuropathy && neuro.NeuropathyGrade > 0 {
		a.note(LabelNeuropathy, grade(neuro.NeuropathyGrade))
		if neuro.NeuropathyGrade >= 2 {
			a.fire(RuleNeuropathy2)
		}
	}

	if neuro.Ototoxicity {
		a.note(LabelOtotoxicity, ototoxicityPresence)
		a.fire(RuleOtotoxicity)
	}
}

func (a *evaluation) cardiovascular(cv domain.CardiovascularPanel) {
	if !cv.Bleeding.IsNone() {
		a.note(LabelBleeding, grade(cv.Bleeding))
		if cv.Bleeding.In(domain.GradeC, domain.GradeD, domain.GradeE) {
			a.fire(RuleBleedingSevere)
		} else {
			a.fire(RuleBleedingMild)
		}
	}

	if cv.Hypertension && cv.HypertensionGrade > 0 {
		a.note(LabelHypertension, grade(cv.HypertensionGrade))
		if cv.HypertensionGrade >= 4 {
			a.fire(RuleHypertension4)
		}
	}
}

func grade(g interface{ String() string }) string {
	return "Grade " + g.String()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
