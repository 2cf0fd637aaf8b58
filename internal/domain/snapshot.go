package domain

import (
	"strconv"
	"time"
)

// PatientSnapshot is one completed symptom report. It is built once by the intake
// layer and never mutated afterwards. Each section's Enabled flag gates whether the
// rest of that section is meaningful.
type PatientSnapshot struct {
	Identification Identification        `json:"identification"`
	Radiotherapy   Radiotherapy          `json:"radiotherapy"`
	Performance    PerformanceStatus     `json:"performance"`
	GI             GastrointestinalPanel `json:"gastrointestinal"`
	Derm           DermatologicPanel     `json:"dermatologic"`
	Neuro          NeurologicPanel       `json:"neurologic"`
	CV             CardiovascularPanel   `json:"cardiovascular"`
	Other          string                `json:"other,omitempty"`
}

// Identification holds the context shown at the top of every report.
type Identification struct {
	PatientID string          `json:"patient_id"`
	Date      time.Time       `json:"date"`
	Timing    TreatmentTiming `json:"treatment_timing"`
}

// Radiotherapy describes the radiotherapy course, if any.
type Radiotherapy struct {
	Received bool       `json:"received"`
	Ongoing  bool       `json:"ongoing,omitempty"`
	Week     RTWeek     `json:"week,omitempty"`
	SinceEnd RTSinceEnd `json:"since_end,omitempty"`
}

// PerformanceStatus carries the ECOG score and palliative-care status.
type PerformanceStatus struct {
	ECOG       int              `json:"ecog"`
	Palliative PalliativeStatus `json:"palliative"`
}

// GastrointestinalPanel groups the GI symptoms.
type GastrointestinalPanel struct {
	Enabled         bool        `json:"enabled"`
	Diarrhea        bool        `json:"diarrhea"`
	DiarrheaGrade   Grade04     `json:"diarrhea_grade"`
	Loperamide      bool        `json:"loperamide"`
	LoperamideOver7 bool        `json:"loperamide_over_7"`
	Nausea          bool        `json:"nausea"`
	NauseaGrade     Grade03     `json:"nausea_grade"`
	Antiemetic      bool        `json:"antiemetic"`
	Vomiting        LetterGrade `json:"vomiting"`
	AbdominalPain   LetterGrade `json:"abdominal_pain"`
}

// DermatologicPanel groups the skin and mucosa symptoms.
type DermatologicPanel struct {
	Enabled        bool        `json:"enabled"`
	Mucositis      bool        `json:"mucositis"`
	MucositisGrade Grade03     `json:"mucositis_grade"`
	Erythema       bool        `json:"erythema"`
	ErythemaGrade  LetterGrade `json:"erythema_grade"`
	Acne           bool        `json:"acne"`
	AcneGrade      Grade03     `json:"acne_grade"`
	HandFoot       bool        `json:"hand_foot"`
	HandFootGrade  Grade03     `json:"hand_foot_grade"`
}

// NeurologicPanel groups the neurologic symptoms.
type NeurologicPanel struct {
	Enabled         bool    `json:"enabled"`
	Neuropathy      bool    `json:"neuropathy"`
	NeuropathyGrade Grade03 `json:"neuropathy_grade"`
	Ototoxicity     bool    `json:"ototoxicity"`
}

// CardiovascularPanel groups the cardiovascular symptoms.
type CardiovascularPanel struct {
	Enabled           bool        `json:"enabled"`
	Bleeding          LetterGrade `json:"bleeding"`
	Hypertension      bool        `json:"hypertension"`
	HypertensionGrade Grade04     `json:"hypertension_grade"`
}

// Validate checks every value against its enumerated domain. Fields behind a
// closed gate are not inspected: whatever the collaborator left there is ignored
// by the engine anyway.
func (s PatientSnapshot) Validate() error {
	var errs ValidationErrors

	check := func(ok bool, field string, value interface{}) {
		if !ok {
			errs = append(errs, NewOutOfRangeError(field, value))
		}
	}

	check(s.Identification.Timing.Valid(), "identification.treatment_timing", s.Identification.Timing)
	if s.Radiotherapy.Received {
		if s.Radiotherapy.Ongoing {
			check(s.Radiotherapy.Week.Valid(), "radiotherapy.week", s.Radiotherapy.Week)
		} else {
			check(s.Radiotherapy.SinceEnd.Valid(), "radiotherapy.since_end", s.Radiotherapy.SinceEnd)
		}
	}
	check(s.Performance.ECOG >= 0 && s.Performance.ECOG <= 4, "performance.ecog", s.Performance.ECOG)
	check(s.Performance.Palliative.Valid(), "performance.palliative", s.Performance.Palliative)

	if gi := s.GI; gi.Enabled {
		check(gi.DiarrheaGrade.Valid(), "gastrointestinal.diarrhea_grade", gi.DiarrheaGrade)
		check(gi.NauseaGrade.Valid(), "gastrointestinal.nausea_grade", gi.NauseaGrade)
		check(gi.Vomiting.Within(true, GradeE), "gastrointestinal.vomiting", gi.Vomiting)
		check(gi.AbdominalPain.Within(true, GradeD), "gastrointestinal.abdominal_pain", gi.AbdominalPain)
	}

	if derm := s.Derm; derm.Enabled {
		check(derm.MucositisGrade.Valid(), "dermatologic.mucositis_grade", derm.MucositisGrade)
		if derm.Erythema {
			check(derm.ErythemaGrade.Within(false, GradeE), "dermatologic.erythema_grade", derm.ErythemaGrade)
		}
		check(derm.AcneGrade.Valid(), "dermatologic.acne_grade", derm.AcneGrade)
		check(derm.HandFootGrade.Valid(), "dermatologic.hand_foot_grade", derm.HandFootGrade)
	}

	if s.Neuro.Enabled {
		check(s.Neuro.NeuropathyGrade.Valid(), "neurologic.neuropathy_grade", s.Neuro.NeuropathyGrade)
	}

	if cv := s.CV; cv.Enabled {
		check(cv.Bleeding.Within(true, GradeE), "cardiovascular.bleeding", cv.Bleeding)
		check(cv.HypertensionGrade.Valid(), "cardiovascular.hypertension_grade", cv.HypertensionGrade)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DisplayPatientID returns the identifier or "N/A" when it was left empty.
func (id Identification) DisplayPatientID() string {
	if id.PatientID == "" {
		return "N/A"
	}
	return id.PatientID
}

// DateISO formats the evaluation date as YYYY-MM-DD.
func (id Identification) DateISO() string {
	return id.Date.Format(time.DateOnly)
}

// String renders a grade for the details record.
func (g Grade04) String() string { return strconv.Itoa(int(g)) }

// String renders a grade for the details record.
func (g Grade03) String() string { return strconv.Itoa(int(g)) }
