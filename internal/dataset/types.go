// Package dataset is the in-memory store of sentence triplets: the base
// Hinglish sentence, its two syntactic variants, and optional reference data.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// VariantType names one of the three phrasings of a triplet.
type VariantType string

const (
	VariantBase          VariantType = "base"
	VariantTopicFronting VariantType = "topic_fronting"
	VariantEmphasisShift VariantType = "emphasis_shift"
)

// Variants returns the variant types in canonical order.
func Variants() []VariantType {
	return []VariantType{VariantBase, VariantTopicFronting, VariantEmphasisShift}
}

// ParseVariantType accepts the canonical names, case-insensitively.
func ParseVariantType(s string) (VariantType, error) {
	v := VariantType(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case VariantBase, VariantTopicFronting, VariantEmphasisShift:
		return v, nil
	}
	return "", fmt.Errorf("unknown variant type %q", s)
}

// ParseVariants parses a list of variant names; an empty list means all.
func ParseVariants(names []string) ([]VariantType, error) {
	if len(names) == 0 {
		return Variants(), nil
	}
	out := make([]VariantType, 0, len(names))
	for _, n := range names {
		v, err := ParseVariantType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FieldName is the enriched-record field holding provider prefix's
// translation of variant v.
func FieldName(v VariantType, prefix string) string {
	return fmt.Sprintf("%s_%s_translation", v, prefix)
}

// ErrMissingID is returned for records without an id; the id is the join key.
var ErrMissingID = errors.New("record has no id")

// JSON keys of the base record.
const (
	keyID                   = "id"
	keyBase                 = "base"
	keyVariantTopicFronting = "variant_topic_fronting"
	keyVariantEmphasisShift = "variant_emphasis_shift"
	keyDomain               = "domain"
	keyPattern              = "pattern"
	keyReferenceEN          = "reference_en"
	keyReferenceENError     = "reference_en_error"
)

var knownKeys = map[string]bool{
	keyID: true, keyBase: true, keyVariantTopicFronting: true, keyVariantEmphasisShift: true,
	keyDomain: true, keyPattern: true, keyReferenceEN: true, keyReferenceENError: true,
}

// SentenceTriplet is one base record. Fields the pipeline does not know
// about are kept in Extra and written back unchanged.
type SentenceTriplet struct {
	ID                   int
	Base                 string
	VariantTopicFronting string
	VariantEmphasisShift string
	Domain               string
	Pattern              string
	ReferenceEN          *string
	ReferenceENError     string
	Extra                map[string]json.RawMessage

	// referenceNull records an explicit "reference_en": null.
	referenceNull bool
}

// Text returns the sentence for variant v.
func (t *SentenceTriplet) Text(v VariantType) string {
	switch v {
	case VariantBase:
		return t.Base
	case VariantTopicFronting:
		return t.VariantTopicFronting
	case VariantEmphasisShift:
		return t.VariantEmphasisShift
	}
	return ""
}

// Reference returns the reference translation or "" when absent.
func (t *SentenceTriplet) Reference() string {
	if t.ReferenceEN == nil {
		return ""
	}
	return *t.ReferenceEN
}

// SetReference stores a successful reference lookup and clears any error.
func (t *SentenceTriplet) SetReference(text string) {
	t.ReferenceEN = &text
	t.referenceNull = false
	t.ReferenceENError = ""
}

// SetReferenceError records a failed reference lookup: reference_en becomes
// null and reference_en_error carries the message.
func (t *SentenceTriplet) SetReferenceError(err error) {
	t.ReferenceEN = nil
	t.referenceNull = true
	t.ReferenceENError = err.Error()
}

// Field returns a string-valued extra field, e.g. a translation column
// carried over from a previous merge.
func (t *SentenceTriplet) Field(name string) (string, bool) {
	raw, ok := t.Extra[name]
	if !ok {
		return "", false
	}
	var s string
	if err := jsonAPI.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// TranslationField is one <variant>_<provider>_translation value.
type TranslationField struct {
	Name  string
	Value string
}

// EnrichedRecord is a triplet plus one translation field per provider and variant.
type EnrichedRecord struct {
	SentenceTriplet
	Translations []TranslationField
}

// Translation returns the value of a translation field.
func (r *EnrichedRecord) Translation(name string) (string, bool) {
	for _, f := range r.Translations {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}
