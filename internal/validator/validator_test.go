package validator

import (
	"testing"
)

func TestIsValid_EmptyTargetLang(t *testing.T) {
	v := New()

	valid, err := v.IsValid("Some translated text", "")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true for empty targetLang")
	}
}

func TestIsValid_EmptyTranslation(t *testing.T) {
	v := New()

	valid, err := v.IsValid("", "en")
	if err == nil {
		t.Error("expected error for empty translation")
	}
	if valid {
		t.Error("expected valid=false for empty translation")
	}
}

func TestIsValid_WhitespaceOnlyTranslation(t *testing.T) {
	v := New()

	valid, err := v.IsValid("   ", "en")
	if err == nil {
		t.Error("expected error for whitespace-only translation")
	}
	if valid {
		t.Error("expected valid=false for whitespace-only translation")
	}
}

func TestIsValid_ShortText(t *testing.T) {
	v := New()

	shortText := "Hi" // Less than minValidationLength (20 chars)
	valid, err := v.IsValid(shortText, "en")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true for short text (below threshold)")
	}
}

func TestIsValid_EnglishToEnglish(t *testing.T) {
	v := New()

	text := "This is a longer piece of text that should be detected as English."
	valid, err := v.IsValid(text, "en")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true when detecting English as English")
	}
}

func TestIsValid_MismatchedLanguage(t *testing.T) {
	v := New()

	hindiText := "मुझे आज घर जाना है क्योंकि मेरी माँ इंतज़ार कर रही है।"
	valid, err := v.IsValid(hindiText, "en")
	if err == nil {
		t.Error("expected error for mismatched language")
	}
	if valid {
		t.Error("expected valid=false when detecting Hindi but expecting English")
	}
}

func TestIsValid_CaseInsensitiveTargetLang(t *testing.T) {
	v := New()

	text := "This is a longer piece of text that should be detected as English."
	valid, err := v.IsValid(text, "EN") // uppercase
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true for case-insensitive targetLang")
	}
}

func TestUntranslated(t *testing.T) {
	tests := []struct {
		source, output string
		want           bool
	}{
		{"mujhe jaana hai", "mujhe jaana hai", true},
		{"mujhe jaana hai", "  Mujhe Jaana Hai ", true},
		{"mujhe jaana hai", "I have to go", false},
		{"", "", false},
		{"x", "", false},
	}

	for _, tt := range tests {
		if got := Untranslated(tt.source, tt.output); got != tt.want {
			t.Errorf("Untranslated(%q, %q) = %v, want %v", tt.source, tt.output, got, tt.want)
		}
	}
}
