package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valpere/hingeval/internal/config"
	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/runner"
	"github.com/valpere/hingeval/internal/translator"
)

type mockService struct {
	nameVal       string
	translateFunc func(ctx context.Context, req translator.TranslateRequest) (string, error)
	callCount     atomic.Int32
}

func (m *mockService) Name() string { return m.nameVal }

func (m *mockService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	m.callCount.Add(1)
	out := m.nameVal + ": " + req.Text
	if m.translateFunc != nil {
		var err error
		out, err = m.translateFunc(ctx, req)
		if err != nil {
			return &translator.ServiceResult{ServiceName: m.nameVal, Error: err.Error()}, err
		}
	}
	return &translator.ServiceResult{ServiceName: m.nameVal, TranslatedText: out}, nil
}

func (m *mockService) IsAvailable(ctx context.Context) error { return nil }

func records() []dataset.SentenceTriplet {
	return []dataset.SentenceTriplet{
		{ID: 1, Base: "mujhe jaana hai", VariantTopicFronting: "jaana hai mujhe", VariantEmphasisShift: "mujhe hi jaana hai"},
		{ID: 2, Base: "kal milte hain"},
	}
}

func job(svc *mockService, variants ...dataset.VariantType) Job {
	return Job{
		Name: svc.nameVal,
		Options: runner.Options{
			Provider: config.ProviderSpec{Name: svc.nameVal, Kind: config.KindChat, MaxAttempts: 1},
			Service:  svc,
			Variants: variants,
		},
	}
}

func TestExecute_OutcomesInJobOrder(t *testing.T) {
	a := &mockService{nameVal: "llama"}
	b := &mockService{nameVal: "gemma"}

	out := New(OrchestratorConfig{}).Execute(context.Background(), records(), []Job{job(a), job(b, dataset.VariantBase)})

	if len(out) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(out))
	}
	if out[0].Name != "llama" || out[1].Name != "gemma" {
		t.Errorf("outcomes out of order: %s, %s", out[0].Name, out[1].Name)
	}
	if len(out[0].Rows) != 6 || len(out[1].Rows) != 2 {
		t.Errorf("unexpected row counts: %d, %d", len(out[0].Rows), len(out[1].Rows))
	}
	if got := out[1].Rows[0].Translation; got != "gemma: mujhe jaana hai" {
		t.Errorf("gemma row 0 = %q", got)
	}
	if a.callCount.Load() != 4 || b.callCount.Load() != 2 {
		t.Errorf("unexpected call counts: llama %d, gemma %d", a.callCount.Load(), b.callCount.Load())
	}
}

func TestExecute_FailingProviderIsIsolated(t *testing.T) {
	bad := &mockService{
		nameVal: "bad",
		translateFunc: func(ctx context.Context, req translator.TranslateRequest) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	good := &mockService{nameVal: "good"}

	out := New(OrchestratorConfig{}).Execute(context.Background(), records(), []Job{job(bad), job(good)})

	if out[0].Err != nil || out[0].Stats.Failures != 4 {
		t.Errorf("bad provider: err %v, failures %d", out[0].Err, out[0].Stats.Failures)
	}
	for _, row := range out[0].Rows {
		if row.Translation != "" {
			t.Errorf("failed call should leave an empty translation, got %q", row.Translation)
		}
	}
	if out[1].Stats.Failures != 0 || !strings.HasPrefix(out[1].Rows[0].Translation, "good: ") {
		t.Errorf("good provider affected: %+v", out[1].Stats)
	}
}

func TestExecute_RunsProvidersConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	var once [2]sync.Once
	barrier := func(i int) func(ctx context.Context, req translator.TranslateRequest) (string, error) {
		return func(ctx context.Context, req translator.TranslateRequest) (string, error) {
			once[i].Do(wg.Done)
			done := make(chan struct{})
			go func() { wg.Wait(); close(done) }()
			select {
			case <-done:
				return "ok", nil
			case <-time.After(2 * time.Second):
				return "", errors.New("providers did not run concurrently")
			}
		}
	}
	a := &mockService{nameVal: "a", translateFunc: barrier(0)}
	b := &mockService{nameVal: "b", translateFunc: barrier(1)}

	out := New(OrchestratorConfig{MaxParallel: 2}).Execute(context.Background(), records(), []Job{
		job(a, dataset.VariantBase), job(b, dataset.VariantBase),
	})

	for _, o := range out {
		if o.Stats.Failures != 0 {
			t.Errorf("%s: %d failures", o.Name, o.Stats.Failures)
		}
	}
}

func TestExecute_MaxParallel(t *testing.T) {
	for _, limit := range []int{0, 1} {
		if peak := peakConcurrency(limit); peak != 1 {
			t.Errorf("MaxParallel %d: expected at most 1 concurrent call, saw %d", limit, peak)
		}
	}
}

func peakConcurrency(limit int) int32 {
	var active, peak atomic.Int32
	slow := func(ctx context.Context, req translator.TranslateRequest) (string, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return "ok", nil
	}

	jobs := []Job{
		job(&mockService{nameVal: "a", translateFunc: slow}, dataset.VariantBase),
		job(&mockService{nameVal: "b", translateFunc: slow}, dataset.VariantBase),
		job(&mockService{nameVal: "c", translateFunc: slow}, dataset.VariantBase),
	}
	New(OrchestratorConfig{MaxParallel: limit}).Execute(context.Background(), records(), jobs)
	return peak.Load()
}

func TestExecute_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &mockService{nameVal: "llama"}
	out := New(OrchestratorConfig{}).Execute(ctx, records(), []Job{job(svc)})

	if !errors.Is(out[0].Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", out[0].Err)
	}
	if svc.callCount.Load() != 0 {
		t.Errorf("expected no calls after cancel, got %d", svc.callCount.Load())
	}
}

func TestExecute_NoJobs(t *testing.T) {
	out := New(OrchestratorConfig{}).Execute(context.Background(), records(), nil)
	if len(out) != 0 {
		t.Errorf("expected no outcomes, got %d", len(out))
	}
}
