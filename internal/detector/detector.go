// Package detector identifies the language of provider output.
package detector

import (
	lingua "github.com/pemistahl/lingua-go"
)

// DefaultLanguages is the candidate set for translation output: English,
// the major Indic languages in their native scripts, and the Latin-script
// languages that untranslated romanized Hindi is most often mistaken for.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Hindi,
	lingua.Urdu,
	lingua.Bengali,
	lingua.Marathi,
	lingua.Punjabi,
	lingua.Gujarati,
	lingua.Tamil,
	lingua.Telugu,
	lingua.Indonesian,
	lingua.Malay,
	lingua.Tagalog,
	lingua.Swahili,
}

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over languages, or DefaultLanguages when none are given.
func New(languages ...lingua.Language) *Detector {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}
