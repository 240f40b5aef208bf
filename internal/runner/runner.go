// Package runner drives one translation provider over the dataset and
// produces its result table rows.
package runner

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/valpere/hingeval/internal/config"
	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/resulttable"
	"github.com/valpere/hingeval/internal/translator"
	"github.com/valpere/hingeval/internal/validator"
)

const defaultProgressEvery = 100

// Options configures a provider run.
type Options struct {
	Provider config.ProviderSpec
	Service  translator.TranslationService

	// Cache is optional; nil disables caching.
	Cache Cache
	// Validator is optional; when set, outputs not detected as English are
	// logged as warnings.
	Validator *validator.Validator

	// Variants restricts which texts are translated; empty means all three.
	Variants      []dataset.VariantType
	Backoff       time.Duration
	ProgressEvery int
}

// Stats counts what happened during a run.
type Stats struct {
	Triplets  int
	Rows      int
	Failures  int
	CacheHits int
	Warnings  int
}

// Run translates every selected variant of every record, in dataset order.
// A failed call yields an empty translation so the row is still emitted.
// On context cancellation the rows produced so far are returned together
// with the context error.
func Run(ctx context.Context, records []dataset.SentenceTriplet, opts Options) ([]resulttable.Row, Stats, error) {
	var stats Stats

	variants := opts.Variants
	if len(variants) == 0 {
		variants = dataset.Variants()
	}
	progressEvery := opts.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = defaultProgressEvery
	}
	attempts := opts.Provider.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	model := opts.Provider.Model
	if model == "" {
		model = translator.ModelOf(opts.Service)
	}

	var svc translator.TranslationService = &timedService{
		TranslationService: opts.Service,
		timeout:            opts.Provider.Timeout,
	}
	svc = &limitedService{TranslationService: svc, limiter: newLimiter(opts.Provider.Delay)}
	svc = &retryingService{TranslationService: svc, attempts: attempts, backoff: opts.Backoff}
	var cached *cachedService
	if opts.Cache != nil {
		cached = &cachedService{TranslationService: svc, cache: opts.Cache, provider: opts.Provider.Name, model: model}
		svc = cached
	}

	cfg := translator.ConfigFor(opts.Provider)
	translate := translator.Safe(svc, cfg)

	logger.Log.Info("starting translation run",
		"provider", opts.Provider.Name, "model", model, "triplets", len(records), "variants", len(variants))

	rows := make([]resulttable.Row, 0, len(records)*len(variants))
	for i := range records {
		if err := ctx.Err(); err != nil {
			logger.Log.Warn("translation run interrupted", "provider", opts.Provider.Name, "completed", stats.Triplets)
			stats.finish(cached, rows)
			return rows, stats, err
		}

		rec := &records[i]
		for _, v := range variants {
			input := rec.Text(v)
			var out string
			if input != "" {
				out = translate(ctx, input)
				if out == "" {
					stats.Failures++
				} else if opts.Validator != nil && warn(opts.Validator, opts.Provider.Name, rec.ID, v, input, out) {
					stats.Warnings++
				}
			}
			rows = append(rows, resulttable.Row{
				TripletID:   rec.ID,
				VariantType: v,
				Input:       input,
				Translation: out,
				ReferenceEN: rec.Reference(),
			})
		}
		stats.Triplets++

		if stats.Triplets%progressEvery == 0 {
			logger.Log.Info("translation progress",
				"provider", opts.Provider.Name,
				"completed", humanize.Comma(int64(stats.Triplets)),
				"total", humanize.Comma(int64(len(records))),
				"last_id", rec.ID)
		}
	}

	stats.finish(cached, rows)
	logger.Log.Info("translation run complete",
		"provider", opts.Provider.Name,
		"rows", stats.Rows, "failures", stats.Failures, "cache_hits", stats.CacheHits, "warnings", stats.Warnings)
	return rows, stats, nil
}

func (s *Stats) finish(cached *cachedService, rows []resulttable.Row) {
	s.Rows = len(rows)
	if cached != nil {
		s.CacheHits = cached.hits
	}
}

func warn(v *validator.Validator, provider string, id int, variant dataset.VariantType, input, output string) bool {
	if validator.Untranslated(input, output) {
		logger.Log.Warn("output echoes the input", "provider", provider, "triplet_id", id, "variant_type", string(variant))
		return true
	}
	if ok, err := v.IsValid(output, translator.TargetLang); !ok {
		logger.Log.Warn("output is not English", "provider", provider, "triplet_id", id, "variant_type", string(variant), "error", err)
		return true
	}
	return false
}
