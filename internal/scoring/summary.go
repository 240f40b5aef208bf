package scoring

import (
	"github.com/montanaflynn/stats"
)

// Summary describes the distribution of item scores.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes descriptive statistics over item scores. An empty
// input yields a zero Summary.
func Summarize(items []float64) Summary {
	if len(items) == 0 {
		return Summary{}
	}
	data := stats.Float64Data(items)
	s := Summary{Count: len(items)}
	s.Mean, _ = stats.Mean(data)
	s.Median, _ = stats.Median(data)
	s.StdDev, _ = stats.StandardDeviation(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	return s
}
