package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EvaluationResult is the outcome of one triage evaluation.
type EvaluationResult struct {
	Recommendation Priority   `json:"recommendation"`
	Messages       []string   `json:"messages"`
	Details        Details    `json:"details"`
	FiredRules     []RuleCode `json:"fired_rules"`
}

// DetailEntry is one answered field of the report.
type DetailEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Details is an insertion-ordered label/value record. It encodes to a JSON object
// whose keys keep insertion order.
type Details []DetailEntry

// Add appends a label/value pair.
func (d *Details) Add(label, value string) {
	*d = append(*d, DetailEntry{Label: label, Value: value})
}

// Get returns the value recorded for label.
func (d Details) Get(label string) (string, bool) {
	for _, e := range d {
		if e.Label == label {
			return e.Value, true
		}
	}
	return "", false
}

// Has reports whether label was recorded.
func (d Details) Has(label string) bool {
	_, ok := d.Get(label)
	return ok
}

// Labels returns the labels in insertion order.
func (d Details) Labels() []string {
	labels := make([]string, len(d))
	for i, e := range d {
		labels[i] = e.Label
	}
	return labels
}

// MarshalJSON writes the entries as an ordered JSON object.
func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, e.Label); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, e.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeString encodes s without HTML escaping; the enclosing encoder decides
// whether <, > and & are escaped.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON reads a JSON object keeping the document's key order.
func (d *Details) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("details: expected object, got %v", tok)
	}

	out := Details{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("details: expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("details: value for %q: %w", key, err)
		}
		out.Add(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = out
	return nil
}

// LogFields returns a de-identified summary for structured logging. Details are
// left out because they carry the patient identifier.
func (r EvaluationResult) LogFields() map[string]any {
	codes := make([]string, len(r.FiredRules))
	for i, c := range r.FiredRules {
		codes[i] = string(c)
	}
	return map[string]any{
		"recommendation": r.Recommendation.String(),
		"message_count":  len(r.Messages),
		"fired_rules":    codes,
		"detail_count":   len(r.Details),
	}
}
