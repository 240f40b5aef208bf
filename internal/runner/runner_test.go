package runner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/hingeval/internal/config"
	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/resulttable"
	"github.com/valpere/hingeval/internal/store"
	"github.com/valpere/hingeval/internal/translator"
	"github.com/valpere/hingeval/internal/validator"
)

type fakeService struct {
	calls []string
	fn    func(call int, text string) (string, error)
}

func (s *fakeService) Name() string { return "fake" }

func (s *fakeService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	s.calls = append(s.calls, req.Text)
	out, err := s.fn(len(s.calls), req.Text)
	if err != nil {
		return &translator.ServiceResult{ServiceName: s.Name(), Error: err.Error()}, err
	}
	return &translator.ServiceResult{ServiceName: s.Name(), TranslatedText: out}, nil
}

func (s *fakeService) IsAvailable(ctx context.Context) error { return nil }

func upper(_ int, text string) (string, error) {
	return strings.ToUpper(text), nil
}

func testRecords() []dataset.SentenceTriplet {
	ref := "I have to go"
	return []dataset.SentenceTriplet{
		{ID: 5, Base: "mujhe jaana hai", VariantTopicFronting: "jaana hai mujhe", VariantEmphasisShift: "mujhe hi jaana hai", ReferenceEN: &ref},
		{ID: 2, Base: "kal milte hain", VariantTopicFronting: "milte hain kal", VariantEmphasisShift: ""},
	}
}

func spec() config.ProviderSpec {
	return config.ProviderSpec{Name: "fake", Kind: config.KindChat, Model: "m", MaxAttempts: 1}
}

func TestRun_RowsInDatasetOrder(t *testing.T) {
	svc := &fakeService{fn: upper}

	rows, stats, err := Run(context.Background(), testRecords(), Options{Provider: spec(), Service: svc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []resulttable.Row{
		{TripletID: 5, VariantType: dataset.VariantBase, Input: "mujhe jaana hai", Translation: "MUJHE JAANA HAI", ReferenceEN: "I have to go"},
		{TripletID: 5, VariantType: dataset.VariantTopicFronting, Input: "jaana hai mujhe", Translation: "JAANA HAI MUJHE", ReferenceEN: "I have to go"},
		{TripletID: 5, VariantType: dataset.VariantEmphasisShift, Input: "mujhe hi jaana hai", Translation: "MUJHE HI JAANA HAI", ReferenceEN: "I have to go"},
		{TripletID: 2, VariantType: dataset.VariantBase, Input: "kal milte hain", Translation: "KAL MILTE HAIN"},
		{TripletID: 2, VariantType: dataset.VariantTopicFronting, Input: "milte hain kal", Translation: "MILTE HAIN KAL"},
		{TripletID: 2, VariantType: dataset.VariantEmphasisShift},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if len(svc.calls) != 5 {
		t.Errorf("expected 5 calls (empty input skipped), got %d", len(svc.calls))
	}
	if stats.Triplets != 2 || stats.Rows != 6 || stats.Failures != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestRun_FailureYieldsEmptyTranslation(t *testing.T) {
	svc := &fakeService{fn: func(call int, text string) (string, error) {
		if text == "jaana hai mujhe" {
			return "", errors.New("upstream unavailable")
		}
		return "ok", nil
	}}

	rows, stats, err := Run(context.Background(), testRecords()[:1], Options{Provider: spec(), Service: svc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].Translation != "" {
		t.Errorf("expected empty translation for failed call, got %q", rows[1].Translation)
	}
	if rows[0].Translation != "ok" || rows[2].Translation != "ok" {
		t.Errorf("expected neighbouring rows unaffected, got %+v", rows)
	}
	if stats.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.Failures)
	}
}

func TestRun_Retries(t *testing.T) {
	svc := &fakeService{fn: func(call int, text string) (string, error) {
		if call == 1 {
			return "", errors.New("transient")
		}
		return "done", nil
	}}

	p := spec()
	p.MaxAttempts = 3
	records := []dataset.SentenceTriplet{{ID: 1, Base: "a"}}

	rows, stats, err := Run(context.Background(), records, Options{
		Provider: p,
		Service:  svc,
		Variants: []dataset.VariantType{dataset.VariantBase},
		Backoff:  time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Translation != "done" {
		t.Errorf("expected translation after retry, got %q", rows[0].Translation)
	}
	if len(svc.calls) != 2 || stats.Failures != 0 {
		t.Errorf("expected 2 calls and no failures, got %d calls, %+v", len(svc.calls), stats)
	}
}

func TestRun_RetriesExhausted(t *testing.T) {
	svc := &fakeService{fn: func(int, string) (string, error) { return "", errors.New("down") }}

	p := spec()
	p.MaxAttempts = 2
	records := []dataset.SentenceTriplet{{ID: 1, Base: "a"}}

	rows, stats, _ := Run(context.Background(), records, Options{
		Provider: p,
		Service:  svc,
		Variants: []dataset.VariantType{dataset.VariantBase},
	})
	if len(svc.calls) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(svc.calls))
	}
	if rows[0].Translation != "" || stats.Failures != 1 {
		t.Errorf("expected one empty failed row, got %+v %+v", rows, stats)
	}
}

func TestRun_VariantFilter(t *testing.T) {
	svc := &fakeService{fn: upper}

	rows, _, err := Run(context.Background(), testRecords(), Options{
		Provider: spec(),
		Service:  svc,
		Variants: []dataset.VariantType{dataset.VariantBase},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected one row per triplet, got %d", len(rows))
	}
	for _, r := range rows {
		if r.VariantType != dataset.VariantBase {
			t.Errorf("unexpected variant %q", r.VariantType)
		}
	}
}

func TestRun_Cache(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	first := &fakeService{fn: upper}
	if _, _, err := Run(context.Background(), testRecords(), Options{Provider: spec(), Service: first, Cache: s}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	second := &fakeService{fn: func(int, string) (string, error) {
		return "", errors.New("must not be called")
	}}
	rows, stats, err := Run(context.Background(), testRecords(), Options{Provider: spec(), Service: second, Cache: s})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(second.calls) != 0 {
		t.Errorf("expected all calls served from cache, got %d calls", len(second.calls))
	}
	if stats.CacheHits != 5 {
		t.Errorf("expected 5 cache hits, got %d", stats.CacheHits)
	}
	if rows[0].Translation != "MUJHE JAANA HAI" {
		t.Errorf("unexpected cached translation %q", rows[0].Translation)
	}
}

func TestRun_FailuresAreNotCached(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	svc := &fakeService{fn: func(int, string) (string, error) { return "", errors.New("down") }}
	records := []dataset.SentenceTriplet{{ID: 1, Base: "a"}}
	Run(context.Background(), records, Options{Provider: spec(), Service: svc, Cache: s})

	if _, ok, _ := s.Get(context.Background(), "fake", "m", "a"); ok {
		t.Error("failed translation must not be cached")
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &fakeService{fn: func(call int, text string) (string, error) {
		if call == 3 {
			cancel()
		}
		return "x", nil
	}}

	rows, stats, err := Run(ctx, testRecords(), Options{Provider: spec(), Service: svc})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(rows) != 3 || stats.Rows != 3 || stats.Triplets != 1 {
		t.Errorf("expected rows of the first triplet only, got %d rows, %+v", len(rows), stats)
	}
}

func TestRun_Delay(t *testing.T) {
	svc := &fakeService{fn: upper}
	p := spec()
	p.Delay = 20 * time.Millisecond

	start := time.Now()
	_, _, err := Run(context.Background(), testRecords()[:1], Options{Provider: p, Service: svc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("expected calls to be spaced by the delay, took %v", elapsed)
	}
}

func TestRun_ValidatorWarnings(t *testing.T) {
	svc := &fakeService{fn: func(_ int, text string) (string, error) { return text, nil }}

	_, stats, err := Run(context.Background(), testRecords()[:1], Options{
		Provider:  spec(),
		Service:   svc,
		Validator: validator.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Warnings != 3 {
		t.Errorf("expected every echoed output to be flagged, got %d warnings", stats.Warnings)
	}
}

type slowService struct {
	sleep       time.Duration
	hadDeadline bool
}

func (s *slowService) Name() string { return "slow" }

func (s *slowService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	_, s.hadDeadline = ctx.Deadline()
	time.Sleep(s.sleep)
	return &translator.ServiceResult{ServiceName: s.Name(), TranslatedText: "late"}, nil
}

func (s *slowService) IsAvailable(ctx context.Context) error { return nil }

func TestRun_ProviderTimeout(t *testing.T) {
	svc := &slowService{sleep: 500 * time.Millisecond}
	p := spec()
	p.Timeout = 20 * time.Millisecond

	records := []dataset.SentenceTriplet{{ID: 1, Base: "mujhe jaana hai"}}
	start := time.Now()
	rows, stats, err := Run(context.Background(), records, Options{
		Provider: p,
		Service:  svc,
		Variants: []dataset.VariantType{dataset.VariantBase},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("expected the call to be abandoned after the timeout, took %v", elapsed)
	}
	if rows[0].Translation != "" {
		t.Errorf("expected empty translation for a timed-out call, got %q", rows[0].Translation)
	}
	if stats.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.Failures)
	}
}

func TestRun_TimeoutSetsDeadline(t *testing.T) {
	svc := &slowService{}
	p := spec()
	p.Timeout = time.Second

	records := []dataset.SentenceTriplet{{ID: 1, Base: "mujhe jaana hai"}}
	rows, _, err := Run(context.Background(), records, Options{
		Provider: p,
		Service:  svc,
		Variants: []dataset.VariantType{dataset.VariantBase},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svc.hadDeadline {
		t.Error("expected the provider call to carry a deadline")
	}
	if rows[0].Translation != "late" {
		t.Errorf("expected translation within the timeout, got %q", rows[0].Translation)
	}
}
