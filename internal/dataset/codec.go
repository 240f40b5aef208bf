package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// jsonAPI leaves non-ASCII and HTML characters unescaped so Hinglish and
// Devanagari text is written literally.
var jsonAPI = sonic.Config{
	SortMapKeys:    true,
	ValidateString: true,
}.Froze()

// Field is a key/value pair of an ordered JSON object.
type Field struct {
	Key   string
	Value interface{}
}

// Object is a JSON object that keeps its key order when marshalled.
type Object []Field

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := jsonAPI.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := jsonAPI.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *SentenceTriplet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("record is not an object")
	}

	idRaw, ok := raw[keyID]
	if !ok || isNull(idRaw) {
		return ErrMissingID
	}
	id, err := parseID(idRaw)
	if err != nil {
		return err
	}

	out := SentenceTriplet{ID: id}
	strFields := []struct {
		key string
		dst *string
	}{
		{keyBase, &out.Base},
		{keyVariantTopicFronting, &out.VariantTopicFronting},
		{keyVariantEmphasisShift, &out.VariantEmphasisShift},
		{keyDomain, &out.Domain},
		{keyPattern, &out.Pattern},
		{keyReferenceENError, &out.ReferenceENError},
	}
	for _, f := range strFields {
		if err := decodeString(raw, f.key, f.dst); err != nil {
			return err
		}
	}

	if refRaw, ok := raw[keyReferenceEN]; ok {
		if isNull(refRaw) {
			out.referenceNull = true
		} else {
			var ref string
			if err := jsonAPI.Unmarshal(refRaw, &ref); err != nil {
				return fmt.Errorf("field %q: %w", keyReferenceEN, err)
			}
			out.ReferenceEN = &ref
		}
	}

	for k, v := range raw {
		if knownKeys[k] {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}

	*t = out
	return nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// parseID accepts integer JSON numbers, integral floats such as 7.0, and
// numeric strings.
func parseID(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid id %s", string(raw))
	}
	return int(f), nil
}

func decodeString(raw map[string]json.RawMessage, key string, dst *string) error {
	v, ok := raw[key]
	if !ok || isNull(v) {
		return nil
	}
	if err := jsonAPI.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

// fields lays out the record in canonical key order; optional keys are
// emitted only when they carry a value, extras follow sorted by key.
func (t SentenceTriplet) fields(skip map[string]bool) Object {
	obj := Object{
		{keyID, t.ID},
		{keyBase, t.Base},
		{keyVariantTopicFronting, t.VariantTopicFronting},
		{keyVariantEmphasisShift, t.VariantEmphasisShift},
	}
	if t.Domain != "" {
		obj = append(obj, Field{keyDomain, t.Domain})
	}
	if t.Pattern != "" {
		obj = append(obj, Field{keyPattern, t.Pattern})
	}
	switch {
	case t.ReferenceEN != nil:
		obj = append(obj, Field{keyReferenceEN, *t.ReferenceEN})
	case t.referenceNull:
		obj = append(obj, Field{keyReferenceEN, nil})
	}
	if t.ReferenceENError != "" {
		obj = append(obj, Field{keyReferenceENError, t.ReferenceENError})
	}

	keys := make([]string, 0, len(t.Extra))
	for k := range t.Extra {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		obj = append(obj, Field{k, t.Extra[k]})
	}
	return obj
}

func (t SentenceTriplet) MarshalJSON() ([]byte, error) {
	return t.fields(nil).MarshalJSON()
}

// MarshalJSON writes the base fields followed by the translation fields.
// Extra keys that collide with a translation field are replaced by it, so
// merging an already merged file does not duplicate keys.
func (r EnrichedRecord) MarshalJSON() ([]byte, error) {
	skip := make(map[string]bool, len(r.Translations))
	for _, f := range r.Translations {
		skip[f.Name] = true
	}
	obj := r.SentenceTriplet.fields(skip)
	for _, f := range r.Translations {
		obj = append(obj, Field{f.Name, f.Value})
	}
	return obj.MarshalJSON()
}

// Load reads a JSON array of triplets. A missing file, malformed JSON, or a
// record without a usable id is an error.
func Load(path string) ([]SentenceTriplet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of triplets, reporting the index of a bad record.
func Parse(data []byte) ([]SentenceTriplet, error) {
	var items []json.RawMessage
	if err := jsonAPI.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	records := make([]SentenceTriplet, len(items))
	for i, item := range items {
		if err := records[i].UnmarshalJSON(item); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

// Encode renders v as two-space indented JSON with a trailing newline.
func Encode(v interface{}) ([]byte, error) {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes v as indented JSON. The file is written next to its final
// location and renamed into place, so a failed run leaves any previous
// output intact.
func Save(path string, v interface{}) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
