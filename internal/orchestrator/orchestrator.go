// Package orchestrator runs several provider translations over the same
// dataset concurrently.
package orchestrator

import (
	"context"
	"sync"

	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/resulttable"
	"github.com/valpere/hingeval/internal/runner"
)

// Job is one provider run.
type Job struct {
	Name    string
	Options runner.Options
}

// Outcome is what one provider run produced. Rows may be partial when Err
// is a context error.
type Outcome struct {
	Name  string
	Rows  []resulttable.Row
	Stats runner.Stats
	Err   error
}

type OrchestratorConfig struct {
	// MaxParallel bounds concurrent provider runs; <= 0 runs them one at
	// a time.
	MaxParallel int
}

type Orchestrator struct {
	config OrchestratorConfig
	run    func(ctx context.Context, records []dataset.SentenceTriplet, opts runner.Options) ([]resulttable.Row, runner.Stats, error)
}

func New(config OrchestratorConfig) *Orchestrator {
	return &Orchestrator{config: config, run: runner.Run}
}

// Execute runs every job and returns the outcomes in job order. Each
// provider is independent: one failing or slow provider does not affect the
// others. records is only read.
func (o *Orchestrator) Execute(ctx context.Context, records []dataset.SentenceTriplet, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))

	limit := o.config.MaxParallel
	if limit <= 0 {
		limit = 1
	}
	if limit > len(jobs) {
		limit = len(jobs)
	}
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(index int, job Job) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[index] = Outcome{Name: job.Name, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			rows, stats, err := o.run(ctx, records, job.Options)
			if err != nil {
				logger.Log.Error("provider run failed", "provider", job.Name, "error", err)
			}
			outcomes[index] = Outcome{Name: job.Name, Rows: rows, Stats: stats, Err: err}
		}(i, job)
	}
	wg.Wait()

	return outcomes
}
