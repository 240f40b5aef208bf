package scoring

import (
	"context"

	"github.com/montanaflynn/stats"
)

// EditSimilarity scores each pair as 1 - levenshtein/maxlen over runes;
// the corpus score is the mean.
type EditSimilarity struct{}

func (EditSimilarity) Name() string { return "edit" }

func (EditSimilarity) Score(ctx context.Context, hyps, refs []string) (*Result, error) {
	if err := checkLengths(hyps, refs); err != nil {
		return nil, err
	}

	items := make([]float64, len(hyps))
	for i := range hyps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items[i] = stringSimilarity(hyps[i], refs[i])
	}

	return &Result{Metric: "edit", Score: mean(items), Items: items}, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}

// levenshtein returns the edit distance between two strings (rune-aware).
// Uses a space-optimized two-row DP implementation.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				min := prev[j]
				if prev[j-1] < min {
					min = prev[j-1]
				}
				if curr[j-1] < min {
					min = curr[j-1]
				}
				curr[j] = min + 1
			}
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// stringSimilarity returns a similarity score in [0, 1] (1 = identical).
func stringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}
