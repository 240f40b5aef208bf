// Package merge combines the base dataset with per-provider result tables
// into one enriched record per triplet.
package merge

import (
	"fmt"

	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/resulttable"
)

// Source is one provider's contribution: its translations and the prefix
// used in output field names.
type Source struct {
	Name   string
	Prefix string
	Table  resulttable.Table
}

// SourceStats counts how many output fields a source filled.
type SourceStats struct {
	Name    string
	Filled  int
	Missing int
	// Orphans are table keys whose triplet id is not in the dataset.
	Orphans int
}

// Merge enriches every record with one field per (variant, source), in
// variant-major order. Output has the same length and order as records; a
// key absent from a source's table yields "".
func Merge(records []dataset.SentenceTriplet, sources []Source) ([]dataset.EnrichedRecord, []SourceStats) {
	stats := make([]SourceStats, len(sources))
	for i, s := range sources {
		stats[i].Name = s.Name
	}

	variants := dataset.Variants()
	out := make([]dataset.EnrichedRecord, len(records))

	for i, rec := range records {
		fields := make([]dataset.TranslationField, 0, len(variants)*len(sources))
		for _, v := range variants {
			key := resulttable.Key{ID: rec.ID, Variant: v}
			for j, s := range sources {
				text, ok := s.Table[key]
				if ok {
					stats[j].Filled++
				} else {
					stats[j].Missing++
				}
				fields = append(fields, dataset.TranslationField{
					Name:  dataset.FieldName(v, s.Prefix),
					Value: text,
				})
			}
		}
		out[i] = dataset.EnrichedRecord{SentenceTriplet: rec, Translations: fields}
	}

	ids := make(map[int]bool, len(records))
	for _, rec := range records {
		ids[rec.ID] = true
	}
	for j, s := range sources {
		for key := range s.Table {
			if !ids[key.ID] {
				stats[j].Orphans++
			}
		}
	}

	return out, stats
}

// SourceSpec locates a provider's result table on disk.
type SourceSpec struct {
	Name   string
	Prefix string
	Table  string
	Column string
}

// Options configures a merge run.
type Options struct {
	DatasetPath string
	OutputPath  string
	Sources     []SourceSpec
}

// Report summarises a merge run.
type Report struct {
	Records int
	Tables  []*resulttable.Result
	Stats   []SourceStats
}

// Run loads the dataset and every result table, merges them and writes the
// output. Only an unreadable dataset or a failed write is an error; provider
// tables degrade to empty.
func Run(opts Options) (*Report, error) {
	logger.Log.Info("loading base dataset", "path", opts.DatasetPath)
	records, err := dataset.Load(opts.DatasetPath)
	if err != nil {
		return nil, err
	}

	report := &Report{Records: len(records)}
	sources := make([]Source, 0, len(opts.Sources))
	for _, spec := range opts.Sources {
		logger.Log.Info("loading translations", "provider", spec.Name, "path", spec.Table)
		res := resulttable.Load(spec.Table, spec.Column)
		logger.Log.Info("loaded translations",
			"provider", spec.Name, "rows", res.Rows, "status", res.Status.String(), "skipped", len(res.Skipped))
		report.Tables = append(report.Tables, res)
		sources = append(sources, Source{Name: spec.Name, Prefix: spec.Prefix, Table: res.Table})
	}

	logger.Log.Info("merging translations", "records", len(records), "providers", len(sources))
	merged, stats := Merge(records, sources)
	report.Stats = stats

	for _, s := range stats {
		if s.Orphans > 0 {
			logger.Log.Warn("translations reference unknown triplet ids", "provider", s.Name, "count", s.Orphans)
		}
	}

	if err := dataset.Save(opts.OutputPath, merged); err != nil {
		return nil, fmt.Errorf("failed to save merged dataset: %w", err)
	}
	return report, nil
}
