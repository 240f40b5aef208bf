package reference

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/translator"
)

type stubService struct {
	calls int
	fail  map[string]bool
}

func (s *stubService) Name() string { return "stub" }

func (s *stubService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	s.calls++
	if req.SourceLang != "auto" || req.TargetLang != "en" {
		return nil, errors.New("unexpected language pair")
	}
	if s.fail[req.Text] {
		return &translator.ServiceResult{Error: "quota exceeded"}, errors.New("quota exceeded")
	}
	return &translator.ServiceResult{TranslatedText: "EN:" + req.Text}, nil
}

func (s *stubService) IsAvailable(ctx context.Context) error { return nil }

func strPtr(s string) *string { return &s }

func TestFill(t *testing.T) {
	records := []dataset.SentenceTriplet{
		{ID: 1, Base: "mujhe jaana hai"},
		{ID: 2, Base: "kal milte hain", ReferenceEN: strPtr("See you tomorrow")},
		{ID: 3, Base: ""},
		{ID: 4, Base: "bad"},
	}
	svc := &stubService{fail: map[string]bool{"bad": true}}

	stats, err := Fill(context.Background(), records, Options{Service: svc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := records[0].Reference(); got != "EN:mujhe jaana hai" {
		t.Errorf("expected filled reference, got %q", got)
	}
	if got := records[1].Reference(); got != "See you tomorrow" {
		t.Errorf("existing reference must be kept, got %q", got)
	}
	if records[2].ReferenceEN != nil {
		t.Error("record without base must be untouched")
	}
	if records[3].ReferenceEN != nil || records[3].ReferenceENError != "quota exceeded" {
		t.Errorf("expected null reference with error, got %v %q", records[3].ReferenceEN, records[3].ReferenceENError)
	}
	if svc.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", svc.calls)
	}
	if stats != (Stats{Translated: 1, Failed: 1, Skipped: 2}) {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestFill_RetriesPreviousErrors(t *testing.T) {
	records := []dataset.SentenceTriplet{{ID: 1, Base: "a"}}
	records[0].SetReferenceError(errors.New("earlier failure"))

	if _, err := Fill(context.Background(), records, Options{Service: &stubService{}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].Reference() != "EN:a" || records[0].ReferenceENError != "" {
		t.Errorf("expected error cleared and reference set, got %+v", records[0])
	}
}

func TestFill_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []dataset.SentenceTriplet{{ID: 1, Base: "a"}}
	if _, err := Fill(ctx, records, Options{Service: &stubService{}}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "db.json")
	output := filepath.Join(dir, "out", "db_with_reference_en.json")
	body := `[{"id":1,"base":"a","variant_topic_fronting":"b","variant_emphasis_shift":"c","domain":"daily"},{"id":2,"base":"bad","variant_topic_fronting":"","variant_emphasis_shift":""}]`
	if err := os.WriteFile(input, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Run(context.Background(), input, output, Options{Service: &stubService{fail: map[string]bool{"bad": true}}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"reference_en": "EN:a"`, `"reference_en": null`, `"reference_en_error": "quota exceeded"`, `"domain": "daily"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}
