// Package reference fills the reference_en field of the base dataset with a
// machine translation of each base sentence.
package reference

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/translator"
)

// DefaultDelay spaces consecutive calls to the reference provider.
const DefaultDelay = 150 * time.Millisecond

type Options struct {
	Service translator.TranslationService
	Config  translator.ServiceConfig
	Delay   time.Duration
}

type Stats struct {
	Translated int
	Failed     int
	Skipped    int
}

// Fill translates the base sentence of every record that has one and lacks
// a reference. A failed lookup sets reference_en to null and records the
// error in reference_en_error; records that already carry a reference are
// left untouched. Records are modified in place.
func Fill(ctx context.Context, records []dataset.SentenceTriplet, opts Options) (Stats, error) {
	var stats Stats

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	for i := range records {
		rec := &records[i]
		if rec.Base == "" || rec.Reference() != "" {
			stats.Skipped++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return stats, err
		}

		text, err := translate(ctx, opts, rec.Base)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			logger.Log.Warn("reference translation failed", "triplet_id", rec.ID, "error", err)
			rec.SetReferenceError(err)
			stats.Failed++
			continue
		}

		rec.SetReference(text)
		stats.Translated++
	}

	return stats, nil
}

func translate(ctx context.Context, opts Options, text string) (string, error) {
	req := translator.TranslateRequest{Text: text, SourceLang: "auto", TargetLang: translator.TargetLang}
	res, err := opts.Service.Translate(ctx, opts.Config, req)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", fmt.Errorf("no result")
	}
	if res.Error != "" {
		return "", fmt.Errorf("%s", res.Error)
	}
	return res.TranslatedText, nil
}

// Run loads the dataset at input, fills missing references and writes the
// result to output.
func Run(ctx context.Context, input, output string, opts Options) (Stats, error) {
	records, err := dataset.Load(input)
	if err != nil {
		return Stats{}, err
	}

	logger.Log.Info("filling reference translations", "records", len(records), "service", opts.Service.Name())
	stats, err := Fill(ctx, records, opts)
	if err != nil {
		return stats, err
	}

	if err := dataset.Save(output, records); err != nil {
		return stats, fmt.Errorf("failed to save dataset: %w", err)
	}
	logger.Log.Info("reference translations written",
		"path", output, "translated", stats.Translated, "failed", stats.Failed, "skipped", stats.Skipped)
	return stats, nil
}
