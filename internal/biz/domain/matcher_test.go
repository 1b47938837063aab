package domain

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Café":           "cafe",
		"ÉÉN ZEEËN":      "een zeeen",
		"naïve Ångström": "naive angstrom",
		"plain":          "plain",
		"Łódź":           "lodz",
		"straße":         "strasse",
		"æble":           "aeble",
		"Øresund":        "oresund",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTermPattern(t *testing.T) {
	if got := TermPattern(nil); got != "" {
		t.Errorf("Expected empty pattern, got %q", got)
	}
	if got, want := TermPattern([]string{"a", "b"}), `\b(?:a|b)\b`; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if got, want := TermPattern([]string{"c++"}), `\b(?:c\+\+)\b`; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestMatcher_Matches(t *testing.T) {
	m := NewMatcher()
	m.Update([]string{"test"})

	tests := []struct {
		text string
		want bool
	}{
		{"this is a test.", true},
		{"TEST at the start", true},
		{"testing", false},
		{"contest", false},
		{"tést with accent", true},
		{"nothing here", false},
	}
	for _, tt := range tests {
		if got := m.Matches(tt.text); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestMatcher_NonDecomposingLetters(t *testing.T) {
	m := NewMatcher()
	m.Update([]string{"lodz", "oresund", "test"})

	tests := []struct {
		text string
		want bool
	}{
		{"vandaag in Łódź", true},
		{"de Øresund brug", true},
		{"øtest", false},
		{"ßtest", false},
	}
	for _, tt := range tests {
		if got := m.Matches(tt.text); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestMatcher_EmptyNeverMatches(t *testing.T) {
	m := NewMatcher()
	if m.Matches("anything at all") {
		t.Error("Fresh matcher should not match")
	}

	m.Update([]string{"test"})
	if !m.Update(nil) {
		t.Error("Clearing terms should report a rebuild")
	}
	if m.Matches("test") {
		t.Error("Matcher with no terms should not match")
	}
	if m.Matches("") {
		t.Error("Matcher with no terms should not match empty text")
	}
}

func TestMatcher_UpdateOnlyOnChange(t *testing.T) {
	m := NewMatcher()

	if m.Update(nil) {
		t.Error("Empty update on empty matcher should not rebuild")
	}
	if !m.Update([]string{"a", "b"}) {
		t.Error("First update should rebuild")
	}
	if m.Update([]string{"a", "b"}) {
		t.Error("Identical update should not rebuild")
	}
	if got, want := m.Pattern(), `\b(?:a|b)\b`; got != want {
		t.Errorf("Expected pattern %q, got %q", want, got)
	}
	if !m.Update([]string{"b", "a"}) {
		t.Error("Reordered terms change the pattern and should rebuild")
	}
}
