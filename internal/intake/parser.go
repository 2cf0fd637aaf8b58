package intake

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/onco-triage-server/internal/domain"
)

// Policy is the workflow-level requirement on identification context.
type Policy struct {
	RequirePatientID bool
	RequireDate      bool
}

// PolicyFromConfig maps the triage config block to a Policy.
func PolicyFromConfig(cfg domain.TriageConfig) Policy {
	return Policy{
		RequirePatientID: cfg.RequirePatientID,
		RequireDate:      cfg.RequireDate,
	}
}

// Parser validates forms and converts them to snapshots
type Parser struct {
	policy   Policy
	clock    func() time.Time
	validate *validator.Validate
}

// NewParser creates a parser enforcing policy. Missing dates default to today.
func NewParser(policy Policy) *Parser {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Parser{
		policy:   policy,
		clock:    time.Now,
		validate: v,
	}
}

// WithClock replaces the clock used for the default evaluation date.
func (p *Parser) WithClock(clock func() time.Time) *Parser {
	p.clock = clock
	return p
}

// Parse checks every enabled section of form and builds the snapshot the
// engine evaluates. All problems are reported together as domain.ValidationErrors.
func (p *Parser) Parse(form Form) (domain.PatientSnapshot, error) {
	form = normalize(form)

	var errs domain.ValidationErrors
	errs = append(errs, p.check("", form)...)
	if form.Radiotherapy.Received {
		errs = append(errs, p.check("radiotherapy", form.Radiotherapy)...)
	}
	if form.Gastrointestinal.Enabled {
		errs = append(errs, p.check("gastrointestinal", form.Gastrointestinal)...)
	}
	if form.Dermatologic.Enabled {
		errs = append(errs, p.check("dermatologic", form.Dermatologic)...)
	}
	if form.Neurologic.Enabled {
		errs = append(errs, p.check("neurologic", form.Neurologic)...)
	}
	if form.Cardiovascular.Enabled {
		errs = append(errs, p.check("cardiovascular", form.Cardiovascular)...)
	}

	if p.policy.RequirePatientID && form.PatientID == "" {
		errs = append(errs, domain.NewMissingContextError("patient_id"))
	}
	if p.policy.RequireDate && form.Date == "" {
		errs = append(errs, domain.NewMissingContextError("date"))
	}

	if len(errs) > 0 {
		return domain.PatientSnapshot{}, errs
	}

	snapshot, err := p.build(form)
	if err != nil {
		return domain.PatientSnapshot{}, err
	}
	if err := snapshot.Validate(); err != nil {
		return domain.PatientSnapshot{}, err
	}
	return snapshot, nil
}

func (p *Parser) check(section string, v interface{}) domain.ValidationErrors {
	err := p.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.ValidationErrors{domain.NewValidationError(domain.ErrInvalidInput, section, err.Error(), nil)}
	}

	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if section != "" {
			field = section + "." + field
		}

		code := domain.ErrOutOfRangeInput
		if fe.Tag() == "required" {
			code = domain.ErrMissingRequiredContext
		}
		out = append(out, domain.NewValidationError(code, field, describe(fe), fe.Value()))
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func (p *Parser) build(form Form) (domain.PatientSnapshot, error) {
	date, err := p.evaluationDate(form.Date)
	if err != nil {
		return domain.PatientSnapshot{}, domain.ValidationErrors{domain.NewOutOfRangeError("date", form.Date)}
	}

	snapshot := domain.PatientSnapshot{
		Identification: domain.Identification{
			PatientID: form.PatientID,
			Date:      date,
			Timing:    domain.TreatmentTiming(form.TreatmentTiming),
		},
		Performance: domain.PerformanceStatus{
			ECOG:       form.ECOG,
			Palliative: domain.PalliativeStatus(form.Palliative),
		},
		Other: form.Other,
	}

	if rt := form.Radiotherapy; rt.Received {
		snapshot.Radiotherapy = domain.Radiotherapy{Received: true, Ongoing: rt.Ongoing}
		if rt.Ongoing {
			snapshot.Radiotherapy.Week = domain.RTWeek(rt.Week)
		} else {
			snapshot.Radiotherapy.SinceEnd = domain.RTSinceEnd(rt.SinceEnd)
		}
	}

	if gi := form.Gastrointestinal; gi.Enabled {
		snapshot.GI = domain.GastrointestinalPanel{
			Enabled:         true,
			Diarrhea:        gi.Diarrhea,
			DiarrheaGrade:   domain.Grade04(gi.DiarrheaGrade),
			Loperamide:      gi.Loperamide,
			LoperamideOver7: gi.LoperamideOver7,
			Nausea:          gi.Nausea,
			NauseaGrade:     domain.Grade03(gi.NauseaGrade),
			Antiemetic:      gi.Antiemetic,
			Vomiting:        letter(gi.Vomiting),
			AbdominalPain:   letter(gi.AbdominalPain),
		}
	}

	if derm := form.Dermatologic; derm.Enabled {
		snapshot.Derm = domain.DermatologicPanel{
			Enabled:        true,
			Mucositis:      derm.Mucositis,
			MucositisGrade: domain.Grade03(derm.MucositisGrade),
			Erythema:       derm.Erythema,
			ErythemaGrade:  domain.LetterGrade(derm.ErythemaGrade),
			Acne:           derm.Acne,
			AcneGrade:      domain.Grade03(derm.AcneGrade),
			HandFoot:       derm.HandFoot,
			HandFootGrade:  domain.Grade03(derm.HandFootGrade),
		}
	}

	if neuro := form.Neurologic; neuro.Enabled {
		snapshot.Neuro = domain.NeurologicPanel{
			Enabled:         true,
			Neuropathy:      neuro.Neuropathy,
			NeuropathyGrade: domain.Grade03(neuro.NeuropathyGrade),
			Ototoxicity:     neuro.Ototoxicity,
		}
	}

	if cv := form.Cardiovascular; cv.Enabled {
		snapshot.CV = domain.CardiovascularPanel{
			Enabled:           true,
			Bleeding:          letter(cv.Bleeding),
			Hypertension:      cv.Hypertension,
			HypertensionGrade: domain.Grade04(cv.HypertensionGrade),
		}
	}

	return snapshot, nil
}

func (p *Parser) evaluationDate(raw string) (time.Time, error) {
	if raw == "" {
		now := p.clock()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(time.DateOnly, raw)
}

// letter maps an already validated selection to a grade; empty means absent.
func letter(s string) domain.LetterGrade {
	if s == "" {
		return domain.GradeNone
	}
	return domain.LetterGrade(s)
}

// normalize trims free text and canonicalizes case-insensitive codes so the
// validator only ever sees canonical values.
func normalize(form Form) Form {
	form.PatientID = strings.TrimSpace(form.PatientID)
	form.Date = strings.TrimSpace(form.Date)
	form.TreatmentTiming = strings.ToLower(strings.TrimSpace(form.TreatmentTiming))
	form.Palliative = canonicalPalliative(form.Palliative)
	form.Other = strings.TrimSpace(form.Other)

	form.Radiotherapy.Week = strings.ToLower(strings.TrimSpace(form.Radiotherapy.Week))
	form.Radiotherapy.SinceEnd = strings.ToLower(strings.TrimSpace(form.Radiotherapy.SinceEnd))

	form.Gastrointestinal.Vomiting = canonicalLetter(form.Gastrointestinal.Vomiting)
	form.Gastrointestinal.AbdominalPain = canonicalLetter(form.Gastrointestinal.AbdominalPain)
	form.Dermatologic.ErythemaGrade = strings.ToUpper(strings.TrimSpace(form.Dermatologic.ErythemaGrade))
	form.Cardiovascular.Bleeding = canonicalLetter(form.Cardiovascular.Bleeding)
	return form
}

func canonicalLetter(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "NO" {
		return string(domain.GradeNone)
	}
	return s
}

func canonicalPalliative(s string) string {
	s = strings.TrimSpace(s)
	for _, status := range []domain.PalliativeStatus{domain.PalliativeNA, domain.PalliativeYes, domain.PalliativeNo} {
		if strings.EqualFold(s, string(status)) {
			return string(status)
		}
	}
	if s == "" {
		return string(domain.PalliativeNA)
	}
	return s
}
