// Package report renders evaluation results into the export formats handed to
// clinicians: a structured JSON record, a two-column CSV and plain text.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/service"
)

// Data is the identification subset carried by an exported record.
type Data struct {
	PatientID       string `json:"patient_id"`
	Date            string `json:"date"`
	TreatmentTiming string `json:"treatment_timing"`
}

// Document is the structured interchange record of one evaluation.
type Document struct {
	ReportID  string                  `json:"report_id,omitempty"`
	Data      Data                    `json:"data"`
	Result    domain.EvaluationResult `json:"result"`
	Timestamp string                  `json:"timestamp"`
}

// NewDocument builds an export record. generatedAt is stored as an RFC 3339
// timestamp with second precision.
func NewDocument(id domain.Identification, result domain.EvaluationResult, generatedAt time.Time) Document {
	return Document{
		Data: Data{
			PatientID:       id.PatientID,
			Date:            id.DateISO(),
			TreatmentTiming: string(id.Timing),
		},
		Result:    result,
		Timestamp: generatedAt.UTC().Format(time.RFC3339),
	}
}

// FromAssessment builds the export record for a service assessment.
func FromAssessment(a *service.Assessment) Document {
	doc := NewDocument(a.Identification, a.Result, a.GeneratedAt)
	doc.ReportID = a.ReportID
	return doc
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// ReadJSON parses a record written by WriteJSON.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode report: %w", err)
	}
	return doc, nil
}

// FileName returns the download name for a patient's export, e.g.
// triage_30111222.json. Unidentified patients get "ND".
func FileName(patientID, ext string) string {
	if patientID == "" {
		patientID = "ND"
	}
	return fmt.Sprintf("triage_%s.%s", patientID, ext)
}
