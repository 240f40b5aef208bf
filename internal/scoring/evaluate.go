package scoring

import (
	"context"
	"fmt"

	"github.com/valpere/hingeval/internal/logger"
)

// Job is one set of pairs scored under a provider and variant label.
type Job struct {
	Provider string
	Variant  string
	Pairs    []Pair
}

// Outcome is the result of scoring one job with one metric.
type Outcome struct {
	Provider string
	Variant  string
	Pairs    []Pair
	Result   *Result
	Summary  Summary
}

// Evaluate scores every job with every scorer, jobs in order and metrics
// in order within a job. Jobs without pairs are skipped with a warning.
func Evaluate(ctx context.Context, scorers []Scorer, jobs []Job) ([]Outcome, error) {
	var out []Outcome
	for _, job := range jobs {
		if len(job.Pairs) == 0 {
			logger.Log.Warn("nothing to score", "provider", job.Provider, "variant", job.Variant)
			continue
		}
		for _, s := range scorers {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			res, err := ScorePairs(ctx, s, job.Pairs)
			if err != nil {
				return out, fmt.Errorf("%s %s/%s: %w", s.Name(), job.Provider, job.Variant, err)
			}
			logger.Log.Info("scored", "metric", res.Metric, "provider", job.Provider,
				"variant", job.Variant, "pairs", len(job.Pairs), "score", res.Score)
			out = append(out, Outcome{
				Provider: job.Provider,
				Variant:  job.Variant,
				Pairs:    job.Pairs,
				Result:   res,
				Summary:  Summarize(res.Items),
			})
		}
	}
	return out, nil
}
