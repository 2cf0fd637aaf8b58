// Package intake turns raw collaborator input into a validated domain snapshot.
// It is the only layer that sees user-facing codes as free text.
package intake

// Form is the wire shape of a completed symptom questionnaire as submitted over
// HTTP, MCP or a CLI form file. Letter grades accept "0" or "No" for absence.
type Form struct {
	PatientID       string           `json:"patient_id,omitempty" yaml:"patient_id,omitempty"`
	Date            string           `json:"date,omitempty" yaml:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TreatmentTiming string           `json:"treatment_timing" yaml:"treatment_timing" validate:"required,oneof=<7d >7d rest_week"`
	Radiotherapy    RadiotherapyForm `json:"radiotherapy,omitempty" yaml:"radiotherapy,omitempty" validate:"-"`
	ECOG            int              `json:"ecog" yaml:"ecog" validate:"min=0,max=4"`
	Palliative      string           `json:"palliative,omitempty" yaml:"palliative,omitempty" validate:"omitempty,oneof=N/A Yes No"`

	Gastrointestinal GastrointestinalForm `json:"gastrointestinal,omitempty" yaml:"gastrointestinal,omitempty" validate:"-"`
	Dermatologic     DermatologicForm     `json:"dermatologic,omitempty" yaml:"dermatologic,omitempty" validate:"-"`
	Neurologic       NeurologicForm       `json:"neurologic,omitempty" yaml:"neurologic,omitempty" validate:"-"`
	Cardiovascular   CardiovascularForm   `json:"cardiovascular,omitempty" yaml:"cardiovascular,omitempty" validate:"-"`

	Other string `json:"other,omitempty" yaml:"other,omitempty"`
}

// RadiotherapyForm is only inspected when Received is true.
type RadiotherapyForm struct {
	Received bool   `json:"received" yaml:"received"`
	Ongoing  bool   `json:"ongoing,omitempty" yaml:"ongoing,omitempty"`
	Week     string `json:"week,omitempty" yaml:"week,omitempty" validate:"omitempty,oneof=<7d >7d >14d"`
	SinceEnd string `json:"since_end,omitempty" yaml:"since_end,omitempty" validate:"omitempty,oneof=<7d >7d"`
}

// GastrointestinalForm is only inspected when Enabled is true.
type GastrointestinalForm struct {
	Enabled         bool   `json:"enabled" yaml:"enabled"`
	Diarrhea        bool   `json:"diarrhea,omitempty" yaml:"diarrhea,omitempty"`
	DiarrheaGrade   int    `json:"diarrhea_grade,omitempty" yaml:"diarrhea_grade,omitempty" validate:"min=0,max=4"`
	Loperamide      bool   `json:"loperamide,omitempty" yaml:"loperamide,omitempty"`
	LoperamideOver7 bool   `json:"loperamide_over_7,omitempty" yaml:"loperamide_over_7,omitempty"`
	Nausea          bool   `json:"nausea,omitempty" yaml:"nausea,omitempty"`
	NauseaGrade     int    `json:"nausea_grade,omitempty" yaml:"nausea_grade,omitempty" validate:"min=0,max=3"`
	Antiemetic      bool   `json:"antiemetic,omitempty" yaml:"antiemetic,omitempty"`
	Vomiting        string `json:"vomiting,omitempty" yaml:"vomiting,omitempty" validate:"omitempty,oneof=0 A B C D E"`
	AbdominalPain   string `json:"abdominal_pain,omitempty" yaml:"abdominal_pain,omitempty" validate:"omitempty,oneof=0 A B C D"`
}

// DermatologicForm is only inspected when Enabled is true.
type DermatologicForm struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Mucositis      bool   `json:"mucositis,omitempty" yaml:"mucositis,omitempty"`
	MucositisGrade int    `json:"mucositis_grade,omitempty" yaml:"mucositis_grade,omitempty" validate:"min=0,max=3"`
	Erythema       bool   `json:"erythema,omitempty" yaml:"erythema,omitempty"`
	ErythemaGrade  string `json:"erythema_grade,omitempty" yaml:"erythema_grade,omitempty" validate:"omitempty,oneof=A B C D E"`
	Acne           bool   `json:"acne,omitempty" yaml:"acne,omitempty"`
	AcneGrade      int    `json:"acne_grade,omitempty" yaml:"acne_grade,omitempty" validate:"min=0,max=3"`
	HandFoot       bool   `json:"hand_foot,omitempty" yaml:"hand_foot,omitempty"`
	HandFootGrade  int    `json:"hand_foot_grade,omitempty" yaml:"hand_foot_grade,omitempty" validate:"min=0,max=3"`
}

// NeurologicForm is only inspected when Enabled is true.
type NeurologicForm struct {
	Enabled         bool `json:"enabled" yaml:"enabled"`
	Neuropathy      bool `json:"neuropathy,omitempty" yaml:"neuropathy,omitempty"`
	NeuropathyGrade int  `json:"neuropathy_grade,omitempty" yaml:"neuropathy_grade,omitempty" validate:"min=0,max=3"`
	Ototoxicity     bool `json:"ototoxicity,omitempty" yaml:"ototoxicity,omitempty"`
}

// CardiovascularForm is only inspected when Enabled is true.
type CardiovascularForm struct {
	Enabled           bool   `json:"enabled" yaml:"enabled"`
	Bleeding          string `json:"bleeding,omitempty" yaml:"bleeding,omitempty" validate:"omitempty,oneof=0 A B C D E"`
	Hypertension      bool   `json:"hypertension,omitempty" yaml:"hypertension,omitempty"`
	HypertensionGrade int    `json:"hypertension_grade,omitempty" yaml:"hypertension_grade,omitempty" validate:"min=0,max=4"`
}
