package detector

import (
	"testing"

	lingua "github.com/pemistahl/lingua-go"
)

func TestDetector_Detect(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		text     string
		wantLang string
		wantOK   bool
	}{
		{
			name:     "empty text",
			text:     "",
			wantLang: "",
			wantOK:   false,
		},
		{
			name:     "english text",
			text:     "I have to go home today because my mother is waiting.",
			wantLang: "English",
			wantOK:   true,
		},
		{
			name:     "hindi text",
			text:     "मुझे आज घर जाना है क्योंकि मेरी माँ इंतज़ार कर रही है।",
			wantLang: "Hindi",
			wantOK:   true,
		},
		{
			name:     "bengali text",
			text:     "আমি আজ বাড়ি যাব কারণ আমার মা অপেক্ষা করছে।",
			wantLang: "Bengali",
			wantOK:   true,
		},
		{
			name:     "tamil text",
			text:     "நான் இன்று வீட்டுக்கு போக வேண்டும்.",
			wantLang: "Tamil",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, ok := d.Detect(tt.text)
			if ok != tt.wantOK {
				t.Errorf("Detect(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if tt.wantOK && lang.String() != tt.wantLang {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, lang, tt.wantLang)
			}
		})
	}
}

func TestDetector_DetectISO(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		text     string
		wantCode string
		wantOK   bool
	}{
		{
			name:     "empty text",
			text:     "",
			wantCode: "",
			wantOK:   false,
		},
		{
			name:     "english text",
			text:     "We will meet tomorrow at the station near the market.",
			wantCode: "EN",
			wantOK:   true,
		},
		{
			name:     "hindi text",
			text:     "मुझे आज घर जाना है क्योंकि मेरी माँ इंतज़ार कर रही है।",
			wantCode: "HI",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := d.DetectISO(tt.text)
			if ok != tt.wantOK {
				t.Errorf("DetectISO(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if tt.wantOK && code != tt.wantCode {
				t.Errorf("DetectISO(%q) = %q, want %q", tt.text, code, tt.wantCode)
			}
		})
	}
}

func TestDetector_CustomLanguages(t *testing.T) {
	d := New(lingua.English, lingua.German)

	lang, ok := d.Detect("Hallo, das ist ein Test auf Deutsch.")
	if !ok || lang != lingua.German {
		t.Errorf("expected German, got %v (ok=%v)", lang, ok)
	}
}

func TestDetector_ShortText(t *testing.T) {
	d := New()

	code, ok := d.DetectISO("Hi")
	// Short text may or may not be detected, just check it doesn't panic
	_ = code
	_ = ok
}
