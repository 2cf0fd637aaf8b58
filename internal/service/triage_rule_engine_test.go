package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onco-triage-server/internal/domain"
)

func baseSnapshot() domain.PatientSnapshot {
	return domain.PatientSnapshot{
		Identification: domain.Identification{
			PatientID: "30111222",
			Date:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			Timing:    domain.TimingUnder7Days,
		},
		Performance: domain.PerformanceStatus{ECOG: 0, Palliative: domain.PalliativeNA},
	}
}

// fullSnapshot turns every gate on with at least one firing rule per section.
func fullSnapshot() domain.PatientSnapshot {
	s := baseSnapshot()
	s.Radiotherapy = domain.Radiotherapy{Received: true, Ongoing: true, Week: domain.RTWeekOver7Days}
	s.GI = domain.GastrointestinalPanel{
		Enabled:       true,
		Diarrhea:      true,
		DiarrheaGrade: 2,
		Nausea:        true,
		NauseaGrade:   1,
		Vomiting:      domain.GradeA,
		AbdominalPain: domain.GradeD,
	}
	s.Derm = domain.DermatologicPanel{Enabled: true, Acne: true, AcneGrade: 3, Erythema: true, ErythemaGrade: domain.GradeB}
	s.Neuro = domain.NeurologicPanel{Enabled: true, Neuropathy: true, NeuropathyGrade: 2, Ototoxicity: true}
	s.CV = domain.CardiovascularPanel{Enabled: true, Bleeding: domain.GradeB, Hypertension: true, HypertensionGrade: 4}
	s.Other = "  fatigue since Monday  "
	return s
}

func TestRecommendationEngine_Rules(t *testing.T) {
	engine := NewRecommendationEngine()
	rules := engine.Rules()

	require.Len(t, rules, 18)
	assert.Equal(t, RulePalliativeReferral, rules[0].Code)
	assert.Equal(t, RuleHypertension4, rules[len(rules)-1].Code)

	seen := make(map[domain.RuleCode]bool)
	for _, r := range rules {
		assert.False(t, seen[r.Code], "duplicate rule %s", r.Code)
		seen[r.Code] = true
		assert.NotEmpty(t, r.Message)
		if r.Escalates {
			assert.Greater(t, r.Level, domain.Continue, "%s escalates but proposes Continue", r.Code)
		} else {
			assert.Equal(t, domain.Continue, r.Level, "%s is advisory", r.Code)
		}
	}

	bleeding, ok := engine.Rule(RuleBleedingSevere)
	require.True(t, ok)
	assert.Equal(t, domain.EmergencyUrgentCare, bleeding.Level)

	_, ok = engine.Rule("UNKNOWN")
	assert.False(t, ok)
}

func TestRecommendationEngine_Scenarios(t *testing.T) {
	engine := NewRecommendationEngine()

	t.Run("A baseline", func(t *testing.T) {
		result := engine.Evaluate(baseSnapshot())

		assert.Equal(t, domain.Continue, result.Recommendation)
		assert.Empty(t, result.Messages)
		assert.Equal(t, []string{
			LabelPatientID, LabelDate, LabelTiming, LabelRTReceived, LabelECOG, LabelPalliative,
		}, result.Details.Labels())

		id, _ := result.Details.Get(LabelPatientID)
		assert.Equal(t, "30111222", id)
		date, _ := result.Details.Get(LabelDate)
		assert.Equal(t, "2026-03-14", date)
	})

	t.Run("B urgent escalation", func(t *testing.T) {
		s := baseSnapshot()
		s.GI = domain.GastrointestinalPanel{Enabled: true, Vomiting: domain.GradeC}

		result := engine.Evaluate(s)

		assert.Equal(t, domain.UrgentCare, result.Recommendation)
		assert.Contains(t, result.Messages, "Vomiting C → Urgent Care")
		v, ok := result.Details.Get(LabelVomiting)
		assert.True(t, ok)
		assert.Equal(t, "Grade C", v)
	})

	t.Run("C emergency dominates", func(t *testing.T) {
		s := baseSnapshot()
		s.CV = domain.CardiovascularPanel{Enabled: true, Bleeding: domain.GradeD}
		s.GI = domain.GastrointestinalPanel{Enabled: true, Vomiting: domain.GradeA}

		result := engine.Evaluate(s)

		assert.Equal(t, domain.EmergencyUrgentCare, result.Recommendation)
		assert.Equal(t, []string{
			"Vomiting A: antiemetic and monitoring.",
			"Bleeding C–E → EMERGENCY Urgent Care",
		}, result.Messages)
	})

	t.Run("D interconsultation", func(t *testing.T) {
		s := baseSnapshot()
		s.Neuro = domain.NeurologicPanel{Enabled: true, Neuropathy: true, NeuropathyGrade: 2}

		result := engine.Evaluate(s)

		assert.Equal(t, domain.Interconsultation, result.Recommendation)
		assert.Equal(t, []string{"Neuropathy ≥2 → Interconsultation"}, result.Messages)
	})

	t.Run("E advisory without escalation", func(t *testing.T) {
		s := baseSnapshot()
		s.Performance = domain.PerformanceStatus{ECOG: 4, Palliative: domain.PalliativeNo}

		result := engine.Evaluate(s)

		assert.Equal(t, domain.Continue, result.Recommendation)
		assert.Equal(t, []string{
			"Advisory: ECOG 3–4 without palliative care → consider palliative care referral/follow-up.",
		}, result.Messages)
		assert.Equal(t, []domain.RuleCode{RulePalliativeReferral}, result.FiredRules)
	})
}

func TestRecommendationEngine_RuleTable(t *testing.T) {
	engine := NewRecommendationEngine()

	tests := []struct {
		name     string
		mutate   func(*domain.PatientSnapshot)
		level    domain.Priority
		messages []string
		label    string
		value    string
		hidden   string
	}{
		{
			name: "diarrhea without loperamide gets dosing advice",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, Diarrhea: true, DiarrheaGrade: 1}
			},
			level:    domain.Continue,
			messages: []string{"Loperamide: 2 tablets at onset, then 1 after each loose stool (max 7/day)."},
			label:    LabelDiarrhea,
			value:    "Grade 1",
		},
		{
			name: "loperamide overuse",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, Diarrhea: true, DiarrheaGrade: 3, Loperamide: true, LoperamideOver7: true}
			},
			level:    domain.UrgentCare,
			messages: []string{">7 loperamide tablets in 24h → Urgent Care"},
			label:    LabelDiarrhea,
			value:    "Grade 3",
		},
		{
			name: "loperamide overuse escalates at grade 0",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, Diarrhea: true, DiarrheaGrade: 0, Loperamide: true, LoperamideOver7: true}
			},
			level:    domain.UrgentCare,
			messages: []string{">7 loperamide tablets in 24h → Urgent Care"},
			hidden:   LabelDiarrhea,
		},
		{
			name: "dosing advice at grade 0",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, Diarrhea: true, DiarrheaGrade: 0}
			},
			level:    domain.Continue,
			messages: []string{"Loperamide: 2 tablets at onset, then 1 after each loose stool (max 7/day)."},
			hidden:   LabelDiarrhea,
		},
		{
			name: "loperamide within dose is silent",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, Diarrhea: true, DiarrheaGrade: 2, Loperamide: true}
			},
			level:    domain.Continue,
			messages: []string{},
			label:    LabelDiarrhea,
			value:    "Grade 2",
		},
		{
			name: "nausea grade 3",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, Nausea: true, NauseaGrade: 3, Antiemetic: true}
			},
			level:    domain.UrgentCare,
			messages: []string{"Grade 2–3 nausea → Urgent Care"},
			label:    LabelNausea,
			value:    "Grade 3",
		},
		{
			name: "nausea grade 1 without antiemetic",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, Nausea: true, NauseaGrade: 1}
			},
			level:    domain.Continue,
			messages: []string{"Nausea grade 1: start an antiemetic (e.g. 30 drops before meals)."},
			label:    LabelNausea,
			value:    "Grade 1",
		},
		{
			name: "nausea grade 1 on antiemetic",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, Nausea: true, NauseaGrade: 1, Antiemetic: true}
			},
			level:    domain.Continue,
			messages: []string{"Nausea grade 1 on antiemetic: adjust the regimen with the treating physician."},
			label:    LabelNausea,
			value:    "Grade 1",
		},
		{
			name: "vomiting E",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, Vomiting: domain.GradeE}
			},
			level:    domain.UrgentCare,
			messages: []string{"Vomiting E → Urgent Care"},
			label:    LabelVomiting,
			value:    "Grade E",
		},
		{
			name: "abdominal pain D",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, AbdominalPain: domain.GradeD}
			},
			level:    domain.UrgentCare,
			messages: []string{"Abdominal pain D → Urgent Care"},
			label:    LabelAbdominalPain,
			value:    "Grade D",
		},
		{
			name: "abdominal pain C is recorded only",
			mutate: func(s *domain.PatientSnapshot) {
				s.GI = domain.GastrointestinalPanel{Enabled: true, AbdominalPain: domain.GradeC}
			},
			level:    domain.Continue,
			messages: []string{},
			label:    LabelAbdominalPain,
			value:    "Grade C",
		},
		{
			name: "mucositis 3",
			mutate: func(s *domain.PatientSnapshot) {
				s.Derm = domain.DermatologicPanel{Enabled: true, Mucositis: true, MucositisGrade: 3}
			},
			level:    domain.UrgentCare,
			messages: []string{"Mucositis D(3) → Urgent Care"},
			label:    LabelMucositis,
			value:    "Grade 3",
		},
		{
			name: "erythema E",
			mutate: func(s *domain.PatientSnapshot) {
				s.Derm = domain.DermatologicPanel{Enabled: true, Erythema: true, ErythemaGrade: domain.GradeE}
			},
			level:    domain.UrgentCare,
			messages: []string{"Erythema/desquamation D–E → Urgent Care"},
			label:    LabelErythema,
			value:    "Grade E",
		},
		{
			name: "acne 3",
			mutate: func(s *domain.PatientSnapshot) {
				s.Derm = domain.DermatologicPanel{Enabled: true, Acne: true, AcneGrade: 3}
			},
			level:    domain.UrgentCare,
			messages: []string{"Acne 3 → Urgent Care"},
			label:    LabelAcne,
			value:    "Grade 3",
		},
		{
			name: "hand-foot 3",
			mutate: func(s *domain.PatientSnapshot) {
				s.Derm = domain.DermatologicPanel{Enabled: true, HandFoot: true, HandFootGrade: 3}
			},
			level:    domain.UrgentCare,
			messages: []string{"Hand-foot syndrome 3 → Urgent Care"},
			label:    LabelHandFoot,
			value:    "Grade 3",
		},
		{
			name: "neuropathy 1 is recorded only",
			mutate: func(s *domain.PatientSnapshot) {
				s.Neuro = domain.NeurologicPanel{Enabled: true, Neuropathy: true, NeuropathyGrade: 1}
			},
			level:    domain.Continue,
			messages: []string{},
			label:    LabelNeuropathy,
			value:    "Grade 1",
		},
		{
			name: "ototoxicity",
			mutate: func(s *domain.PatientSnapshot) {
				s.Neuro = domain.NeurologicPanel{Enabled: true, Ototoxicity: true}
			},
			level:    domain.Interconsultation,
			messages: []string{"Ototoxicity → Interconsultation"},
			label:    LabelOtotoxicity,
			value:    "Suspected/Present",
		},
		{
			name: "bleeding A",
			mutate: func(s *domain.PatientSnapshot) {
				s.CV = domain.CardiovascularPanel{Enabled: true, Bleeding: domain.GradeA}
			},
			level:    domain.UrgentCare,
			messages: []string{"Bleeding A–B → Urgent Care"},
			label:    LabelBleeding,
			value:    "Grade A",
		},
		{
			name: "bleeding C",
			mutate: func(s *domain.PatientSnapshot) {
				s.CV = domain.CardiovascularPanel{Enabled: true, Bleeding: domain.GradeC}
			},
			level:    domain.EmergencyUrgentCare,
			messages: []string{"Bleeding C–E → EMERGENCY Urgent Care"},
			label:    LabelBleeding,
			value:    "Grade C",
		},
		{
			name: "hypertension 4",
			mutate: func(s *domain.PatientSnapshot) {
				s.CV = domain.CardiovascularPanel{Enabled: true, Hypertension: true, HypertensionGrade: 4}
			},
			level:    domain.UrgentCare,
			messages: []string{"Hypertension grade 4 → Urgent Care"},
			label:    LabelHypertension,
			value:    "Grade 4",
		},
		{
			name: "hypertension 3 is recorded only",
			mutate: func(s *domain.PatientSnapshot) {
				s.CV = domain.CardiovascularPanel{Enabled: true, Hypertension: true, HypertensionGrade: 3}
			},
			level:    domain.Continue,
			messages: []string{},
			label:    LabelHypertension,
			value:    "Grade 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSnapshot()
			tt.mutate(&s)

			result := engine.Evaluate(s)

			assert.Equal(t, tt.level, result.Recommendation)
			assert.Equal(t, tt.messages, result.Messages)
			if tt.label != "" {
				v, ok := result.Details.Get(tt.label)
				require.True(t, ok, "missing detail %q", tt.label)
				assert.Equal(t, tt.value, v)
			}
			if tt.hidden != "" {
				_, ok := result.Details.Get(tt.hidden)
				assert.False(t, ok, "unexpected detail %q", tt.hidden)
			}
		})
	}
}

func TestRecommendationEngine_ContextDetails(t *testing.T) {
	engine := NewRecommendationEngine()

	t.Run("ongoing radiotherapy", func(t *testing.T) {
		s := baseSnapshot()
		s.Identification.PatientID = ""
		s.Identification.Timing = domain.TimingRestWeek
		s.Radiotherapy = domain.Radiotherapy{Received: true, Ongoing: true, Week: domain.RTWeekOver14Days}

		result := engine.Evaluate(s)

		assert.Equal(t, domain.Details{
			{Label: LabelPatientID, Value: "N/A"},
			{Label: LabelDate, Value: "2026-03-14"},
			{Label: LabelTiming, Value: "Rest week"},
			{Label: LabelRTReceived, Value: "Yes"},
			{Label: LabelRTOngoing, Value: "Yes"},
			{Label: LabelRTWeek, Value: "> 14 days"},
			{Label: LabelECOG, Value: "0"},
			{Label: LabelPalliative, Value: "N/A"},
		}, result.Details)
	})

	t.Run("finished radiotherapy", func(t *testing.T) {
		s := baseSnapshot()
		s.Radiotherapy = domain.Radiotherapy{Received: true, SinceEnd: domain.RTEndUnder7Days}

		result := engine.Evaluate(s)

		v, ok := result.Details.Get(LabelRTSinceEnd)
		assert.True(t, ok)
		assert.Equal(t, "< 7 days", v)
		assert.False(t, result.Details.Has(LabelRTWeek))
	})

	t.Run("palliative advisory needs an explicit No", func(t *testing.T) {
		for _, status := range []domain.PalliativeStatus{domain.PalliativeNA, domain.PalliativeYes} {
			s := baseSnapshot()
			s.Performance = domain.PerformanceStatus{ECOG: 3, Palliative: status}
			assert.Empty(t, engine.Evaluate(s).Messages, "palliative=%s", status)
		}

		s := baseSnapshot()
		s.Performance = domain.PerformanceStatus{ECOG: 2, Palliative: domain.PalliativeNo}
		assert.Empty(t, engine.Evaluate(s).Messages)
	})

	t.Run("other is trimmed and recorded last", func(t *testing.T) {
		result := engine.Evaluate(fullSnapshot())

		last := result.Details[len(result.Details)-1]
		assert.Equal(t, LabelOther, last.Label)
		assert.Equal(t, "fatigue since Monday", last.Value)

		s := baseSnapshot()
		s.Other = "   "
		assert.False(t, engine.Evaluate(s).Details.Has(LabelOther))
	})
}

func TestRecommendationEngine_Monotonicity(t *testing.T) {
	engine := NewRecommendationEngine()

	snapshots := []domain.PatientSnapshot{baseSnapshot(), fullSnapshot()}
	for _, bleeding := range []domain.LetterGrade{domain.GradeNone, domain.GradeA, domain.GradeC} {
		for _, nausea := range []domain.Grade03{0, 1, 2} {
			s := baseSnapshot()
			s.Performance = domain.PerformanceStatus{ECOG: 3, Palliative: domain.PalliativeNo}
			s.CV = domain.CardiovascularPanel{Enabled: true, Bleeding: bleeding}
			s.GI = domain.GastrointestinalPanel{Enabled: true, Nausea: true, NauseaGrade: nausea}
			s.Neuro = domain.NeurologicPanel{Enabled: true, Ototoxicity: true}
			snapshots = append(snapshots, s)
		}
	}

	for _, s := range snapshots {
		result := engine.Evaluate(s)
		require.Len(t, result.FiredRules, len(result.Messages))

		expected := domain.Continue
		for _, code := range result.FiredRules {
			rule, ok := engine.Rule(code)
			require.True(t, ok)
			expected = domain.RaiseTo(expected, rule.Level)
		}
		assert.Equal(t, expected, result.Recommendation)
	}
}

func TestRecommendationEngine_Deterministic(t *testing.T) {
	engine := NewRecommendationEngine()
	s := fullSnapshot()

	first := engine.Evaluate(s)
	second := engine.Evaluate(s)
	assert.Equal(t, first, second)

	// A second engine shares nothing with the first.
	assert.Equal(t, first, NewRecommendationEngine().Evaluate(s))
	assert.Equal(t, fullSnapshot(), s)
}

func TestRecommendationEngine_GateIndependence(t *testing.T) {
	engine := NewRecommendationEngine()
	full := engine.Evaluate(fullSnapshot())

	sections := []struct {
		section domain.Section
		prefix  string
		disable func(*domain.PatientSnapshot)
	}{
		{domain.SectionGastrointestinal, "GI - ", func(s *domain.PatientSnapshot) { s.GI.Enabled = false }},
		{domain.SectionDermatologic, "Derm - ", func(s *domain.PatientSnapshot) { s.Derm.Enabled = false }},
		{domain.SectionNeurologic, "Neuro - ", func(s *domain.PatientSnapshot) { s.Neuro.Enabled = false }},
		{domain.SectionCardiovascular, "CV - ", func(s *domain.PatientSnapshot) { s.CV.Enabled = false }},
	}

	for _, tt := range sections {
		t.Run(string(tt.section), func(t *testing.T) {
			s := fullSnapshot()
			tt.disable(&s)
			result := engine.Evaluate(s)

			var wantDetails domain.Details
			for _, d := range full.Details {
				if !strings.HasPrefix(d.Label, tt.prefix) {
					wantDetails = append(wantDetails, d)
				}
			}
			assert.Equal(t, wantDetails, result.Details)

			wantMessages := []string{}
			wantRules := []domain.RuleCode{}
			wantLevel := domain.Continue
			for i, code := range full.FiredRules {
				rule, _ := engine.Rule(code)
				if rule.Section == tt.section {
					continue
				}
				wantMessages = append(wantMessages, full.Messages[i])
				wantRules = append(wantRules, code)
				wantLevel = domain.RaiseTo(wantLevel, rule.Level)
			}
			assert.Equal(t, wantMessages, result.Messages)
			assert.Equal(t, wantRules, result.FiredRules)
			assert.Equal(t, wantLevel, result.Recommendation)
		})
	}
}

func TestRecommendationEngine_SentinelSkipping(t *testing.T) {
	engine := NewRecommendationEngine()

	s := baseSnapshot()
	s.GI = domain.GastrointestinalPanel{
		Enabled:       true,
		Diarrhea:      true,
		DiarrheaGrade: 0,
		Loperamide:    true,
		Nausea:        true,
		NauseaGrade:   0,
		Vomiting:      domain.GradeNone,
		AbdominalPain: domain.GradeNone,
	}
	s.Derm = domain.DermatologicPanel{Enabled: true, Mucositis: true, Acne: true, HandFoot: true}
	s.Neuro = domain.NeurologicPanel{Enabled: true, Neuropathy: true}
	s.CV = domain.CardiovascularPanel{Enabled: true, Bleeding: "", Hypertension: true}

	result := engine.Evaluate(s)
	baseline := engine.Evaluate(baseSnapshot())

	assert.Equal(t, baseline, result)
}
