// Package scoring compares provider translations against references.
package scoring

import (
	"context"
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when hypotheses and references differ in count.
var ErrLengthMismatch = errors.New("hypotheses and references differ in length")

// Result is a corpus-level score plus one score per pair, in input order.
type Result struct {
	Metric string
	Score  float64
	Items  []float64
}

// Scorer scores hypotheses against references pairwise.
type Scorer interface {
	Name() string
	Score(ctx context.Context, hyps, refs []string) (*Result, error)
}

func checkLengths(hyps, refs []string) error {
	if len(hyps) != len(refs) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(hyps), len(refs))
	}
	return nil
}

// New returns the scorer registered under name.
func New(name, embedBaseURL, embedModel string) (Scorer, error) {
	switch name {
	case "bleu":
		return BLEU{}, nil
	case "edit":
		return EditSimilarity{}, nil
	case "embedding":
		return NewEmbedding(embedBaseURL, embedModel), nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}

// Metrics lists the metric names accepted by New.
func Metrics() []string {
	return []string{"bleu", "edit", "embedding"}
}

// ScorePairs scores pairs with s.
func ScorePairs(ctx context.Context, s Scorer, pairs []Pair) (*Result, error) {
	hyps, refs := Split(pairs)
	return s.Score(ctx, hyps, refs)
}
