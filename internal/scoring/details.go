package scoring

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// DetailRow is one scored pair in the per-item output.
type DetailRow struct {
	Provider   string  `csv:"provider"`
	TripletID  int     `csv:"triplet_id"`
	Variant    string  `csv:"variant_type"`
	Metric     string  `csv:"metric"`
	Score      float64 `csv:"score"`
	Hypothesis string  `csv:"hypothesis"`
	Reference  string  `csv:"reference"`
}

// Details expands a result into one row per pair.
func Details(provider string, pairs []Pair, res *Result) []DetailRow {
	rows := make([]DetailRow, 0, len(pairs))
	for i, p := range pairs {
		var score float64
		if i < len(res.Items) {
			score = res.Items[i]
		}
		rows = append(rows, DetailRow{
			Provider:   provider,
			TripletID:  p.TripletID,
			Variant:    string(p.Variant),
			Metric:     res.Metric,
			Score:      score,
			Hypothesis: p.Hypothesis,
			Reference:  p.Reference,
		})
	}
	return rows
}

// WriteDetails writes rows as CSV with a header.
func WriteDetails(path string, rows []DetailRow) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write details: %w", err)
	}
	return f.Close()
}
