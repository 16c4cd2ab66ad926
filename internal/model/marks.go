package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarkValue is the open scalar stored against a subject. Marks have no fixed
// schema: values are commonly numeric (95, 87.5) but free text also appears
// ("A+", "absent"). Anything that isn't a bare number or string is rejected
// at decode time.
type MarkValue struct {
	Number float64
	Text   string
	IsText bool // selects between Number and Text
}

// NumberMark returns a numeric mark value.
func NumberMark(n float64) MarkValue {
	return MarkValue{Number: n}
}

// TextMark returns a free-text mark value.
func TextMark(s string) MarkValue {
	return MarkValue{Text: s, IsText: true}
}

// MarshalJSON emits the scalar in its native JSON form.
func (v MarkValue) MarshalJSON() ([]byte, error) {
	if v.IsText {
		return json.Marshal(v.Text)
	}
	return json.Marshal(v.Number)
}

// UnmarshalJSON accepts a JSON number or string and nothing else.
func (v *MarkValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("model: decoding mark value: %w", err)
	}
	switch t := tok.(type) {
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return fmt.Errorf("model: mark value %q is not a valid number", t.String())
		}
		*v = NumberMark(n)
	case string:
		*v = TextMark(t)
	default:
		return fmt.Errorf("model: mark value must be a number or string, got %v", tok)
	}
	return nil
}

// Marks is the open-ended mapping from subject name to mark value.
//
// It is an ordered mapping: iteration and JSON output preserve the order in
// which subjects were first set, so a record round-trips without subjects
// shuffling between reads. Updates replace the mapping wholesale — there is
// no merge operation on this type on purpose.
//
// The zero value is an empty mapping, ready to use.
type Marks struct {
	subjects []string
	values   map[string]MarkValue
}

// NewMarks returns an empty mapping.
func NewMarks() Marks {
	return Marks{}
}

// Set stores the value for a subject. A new subject is appended to the
// iteration order; an existing subject keeps its position.
func (m *Marks) Set(subject string, v MarkValue) {
	if m.values == nil {
		m.values = make(map[string]MarkValue)
	}
	if _, exists := m.values[subject]; !exists {
		m.subjects = append(m.subjects, subject)
	}
	m.values[subject] = v
}

// Get returns the value for a subject and whether it is present.
func (m Marks) Get(subject string) (MarkValue, bool) {
	v, ok := m.values[subject]
	return v, ok
}

// Len returns the number of subjects.
func (m Marks) Len() int {
	return len(m.subjects)
}

// Subjects returns the subject names in insertion order.
func (m Marks) Subjects() []string {
	out := make([]string, len(m.subjects))
	copy(out, m.subjects)
	return out
}

// Equal reports whether two mappings hold the same subjects in the same
// order with the same values.
func (m Marks) Equal(other Marks) bool {
	if len(m.subjects) != len(other.subjects) {
		return false
	}
	for i, subject := range m.subjects {
		if other.subjects[i] != subject {
			return false
		}
		if m.values[subject] != other.values[subject] {
			return false
		}
	}
	return true
}

// MarshalJSON emits a JSON object with keys in insertion order. An empty
// mapping marshals as {} rather than null, matching the "marks defaults to
// empty" record shape.
func (m Marks) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, subject := range m.subjects {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(subject)
		if err != nil {
			return nil, fmt.Errorf("model: encoding subject %q: %w", subject, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := m.values[subject].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the mapping with the decoded object. Any input that
// is not a JSON object — a bare number, a string, an array, null — is an
// error, which the service layer surfaces as a validation failure.
func (m *Marks) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("model: decoding marks: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("model: marks must be a JSON object")
	}

	replacement := Marks{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("model: decoding marks: %w", err)
		}
		// Inside an object the decoder guarantees keys are strings.
		subject := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("model: decoding marks: %w", err)
		}
		switch t := valTok.(type) {
		case json.Number:
			n, err := t.Float64()
			if err != nil {
				return fmt.Errorf("model: mark for %q is not a valid number", subject)
			}
			replacement.Set(subject, NumberMark(n))
		case string:
			replacement.Set(subject, TextMark(t))
		default:
			return fmt.Errorf("model: mark for %q must be a number or string", subject)
		}
	}

	// Consume the closing brace so a truncated object is caught here.
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("model: decoding marks: %w", err)
	}

	*m = replacement
	return nil
}
