package model

import (
	"encoding/json"
	"testing"
)

func TestMarksSetAndGet(t *testing.T) {
	var m Marks
	m.Set("math", NumberMark(90))
	m.Set("science", TextMark("A"))

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	v, ok := m.Get("math")
	if !ok {
		t.Fatal("Get(math) reported missing")
	}
	if v.IsText || v.Number != 90 {
		t.Errorf("Get(math) = %+v, want number 90", v)
	}

	v, ok = m.Get("science")
	if !ok {
		t.Fatal("Get(science) reported missing")
	}
	if !v.IsText || v.Text != "A" {
		t.Errorf("Get(science) = %+v, want text A", v)
	}
}

func TestMarksSetKeepsPositionOnOverwrite(t *testing.T) {
	var m Marks
	m.Set("math", NumberMark(50))
	m.Set("science", NumberMark(60))
	m.Set("math", NumberMark(95)) // overwrite — position must not move

	subjects := m.Subjects()
	if len(subjects) != 2 || subjects[0] != "math" || subjects[1] != "science" {
		t.Errorf("Subjects() = %v, want [math science]", subjects)
	}

	v, _ := m.Get("math")
	if v.Number != 95 {
		t.Errorf("Get(math) = %v, want 95", v.Number)
	}
}

func TestMarksMarshalPreservesOrder(t *testing.T) {
	var m Marks
	m.Set("zoology", NumberMark(70))
	m.Set("algebra", NumberMark(80))
	m.Set("biology", TextMark("B+"))

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// Insertion order, not alphabetical — a plain map would shuffle these.
	want := `{"zoology":70,"algebra":80,"biology":"B+"}`
	if string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestMarksEmptyMarshalsAsEmptyObject(t *testing.T) {
	out, err := json.Marshal(Marks{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != "{}" {
		t.Errorf("Marshal() = %s, want {}", out)
	}
}

func TestMarksRoundTrip(t *testing.T) {
	var m Marks
	m.Set("physics", NumberMark(87.5))
	m.Set("history", TextMark("absent"))

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back Marks
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !m.Equal(back) {
		t.Errorf("round trip mismatch: got %v, want %v", back.Subjects(), m.Subjects())
	}
}

func TestMarksUnmarshalReplacesExisting(t *testing.T) {
	var m Marks
	m.Set("math", NumberMark(90))

	// Decoding a new object must replace, never merge.
	if err := json.Unmarshal([]byte(`{"science":80}`), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (old subjects must be gone)", m.Len())
	}
	if _, ok := m.Get("math"); ok {
		t.Error("old subject math survived a wholesale replace")
	}
	if v, ok := m.Get("science"); !ok || v.Number != 80 {
		t.Errorf("Get(science) = %v, %v; want 80, true", v, ok)
	}
}

func TestMarksUnmarshalRejectsNonObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare number", `95`},
		{"bare string", `"95"`},
		{"array", `[{"math":95}]`},
		{"null", `null`},
		{"boolean", `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Marks
			if err := json.Unmarshal([]byte(tt.input), &m); err == nil {
				t.Errorf("Unmarshal(%s) should have failed", tt.input)
			}
		})
	}
}

func TestMarksUnmarshalRejectsNonScalarValues(t *testing.T) {
	var m Marks
	if err := json.Unmarshal([]byte(`{"math":{"term1":90}}`), &m); err == nil {
		t.Error("nested object value should have been rejected")
	}
	if err := json.Unmarshal([]byte(`{"math":[90]}`), &m); err == nil {
		t.Error("array value should have been rejected")
	}
	if err := json.Unmarshal([]byte(`{"math":null}`), &m); err == nil {
		t.Error("null value should have been rejected")
	}
}

func TestMarkValueJSON(t *testing.T) {
	num, err := json.Marshal(NumberMark(92))
	if err != nil {
		t.Fatalf("Marshal(number) error = %v", err)
	}
	if string(num) != "92" {
		t.Errorf("Marshal(number) = %s, want 92", num)
	}

	text, err := json.Marshal(TextMark("A+"))
	if err != nil {
		t.Fatalf("Marshal(text) error = %v", err)
	}
	if string(text) != `"A+"` {
		t.Errorf("Marshal(text) = %s, want \"A+\"", text)
	}

	var v MarkValue
	if err := json.Unmarshal([]byte(`true`), &v); err == nil {
		t.Error("Unmarshal(true) should have failed")
	}
}
