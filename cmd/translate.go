/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/hingeval/internal/config"
	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/orchestrator"
	"github.com/valpere/hingeval/internal/resulttable"
	"github.com/valpere/hingeval/internal/runner"
	"github.com/valpere/hingeval/internal/store"
	"github.com/valpere/hingeval/internal/translator"
	"github.com/valpere/hingeval/internal/validator"
)

var (
	translateProviders []string
	translateAll       bool
	translateInput     string
	translateOutput    string
	translateVariants  []string
	translateNoCache   bool
	translateValidate  bool
	translateParallel  int
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate every variant of the dataset with one or more providers",
	Long: `Run configured providers over the base, topic_fronting and emphasis_shift
text of every triplet and write one result table per provider:

  triplet_id,variant_type,input_hinglish,<column>,reference_en

A failed call produces an empty translation and the run continues.
Providers run one after another unless --parallel allows more; calls
within a provider are sequential and spaced by its configured delay. Results are cached in SQLite by provider,
model and text, so re-running a provider only pays for new texts.

Examples:
  hingeval translate --provider llama
  hingeval translate --provider llama,gemma --validate
  hingeval translate --provider marian --variants base
  hingeval translate --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !translateAll && len(translateProviders) == 0 {
			return fmt.Errorf("specify --provider or --all")
		}
		var names []string
		if !translateAll {
			names = translateProviders
		}
		specs, err := cfg.Select(names)
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			return fmt.Errorf("no providers configured")
		}
		if translateOutput != "" && len(specs) > 1 {
			return fmt.Errorf("--output needs exactly one provider")
		}

		input := firstNonEmpty(translateInput, cfg.Dataset)
		records, err := dataset.Load(input)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var db *store.Store
		if !translateNoCache && cfg.DB != "" {
			db, err = openStore(cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()
		}

		jobs := make([]orchestrator.Job, 0, len(specs))
		outputs := make([]string, 0, len(specs))
		runs := make([]*runLog, 0, len(specs))
		for _, spec := range specs {
			opts, err := translateOptions(spec, db)
			if err != nil {
				return err
			}
			defer closeService(opts.Service)

			output := firstNonEmpty(translateOutput, spec.Table)
			jobs = append(jobs, orchestrator.Job{Name: spec.Name, Options: opts})
			outputs = append(outputs, output)
			runs = append(runs, startRun(ctx, db, "translate", spec.Name, input, output))
		}

		logger.Log.Info("translating dataset", "triplets", len(records), "providers", len(jobs))
		outcomes := orchestrator.New(orchestrator.OrchestratorConfig{MaxParallel: translateParallel}).
			Execute(ctx, records, jobs)

		var errs []error
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tTRIPLETS\tROWS\tFAILURES\tCACHE HITS\tWARNINGS\tOUTPUT")
		for i, o := range outcomes {
			spec := specs[i]
			runErr := o.Err
			if len(o.Rows) > 0 || runErr == nil {
				if err := resulttable.Write(outputs[i], spec.Column, o.Rows); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}
			runs[i].finish(runErr, o.Stats.Rows, o.Stats.Failures)
			if runErr != nil {
				errs = append(errs, fmt.Errorf("%s: %w", spec.Name, runErr))
			}
			if errors.Is(o.Err, context.Canceled) && len(o.Rows) > 0 {
				logger.Log.Warn("translation interrupted, partial table written", "provider", spec.Name, "rows", o.Stats.Rows)
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", spec.Name,
				humanize.Comma(int64(o.Stats.Triplets)), humanize.Comma(int64(o.Stats.Rows)),
				humanize.Comma(int64(o.Stats.Failures)), humanize.Comma(int64(o.Stats.CacheHits)),
				humanize.Comma(int64(o.Stats.Warnings)), outputs[i])
		}
		if err := w.Flush(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	},
}

// translateOptions builds the runner options for one provider.
func translateOptions(spec config.ProviderSpec, db *store.Store) (runner.Options, error) {
	variantNames := translateVariants
	if len(variantNames) == 0 {
		variantNames = spec.Variants
	}
	variants, err := dataset.ParseVariants(variantNames)
	if err != nil {
		return runner.Options{}, fmt.Errorf("%s: %w", spec.Name, err)
	}

	svc, err := translator.New(spec)
	if err != nil {
		return runner.Options{}, err
	}

	opts := runner.Options{Provider: spec, Service: svc, Variants: variants}
	if db != nil {
		opts.Cache = db
	}
	if translateValidate {
		opts.Validator = validator.New()
	}
	return opts, nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringSliceVarP(&translateProviders, "provider", "p", nil, "Provider names from the config")
	translateCmd.Flags().BoolVar(&translateAll, "all", false, "Run every configured provider")
	translateCmd.Flags().StringVarP(&translateInput, "input", "i", "", "Dataset JSON (default: config dataset)")
	translateCmd.Flags().StringVarP(&translateOutput, "output", "o", "", "Result table CSV for a single provider (default: provider table)")
	translateCmd.Flags().StringSliceVar(&translateVariants, "variants", nil, "Variants to translate: base,topic_fronting,emphasis_shift")
	translateCmd.Flags().BoolVar(&translateNoCache, "no-cache", false, "Disable the translation cache and run log")
	translateCmd.Flags().BoolVar(&translateValidate, "validate", false, "Warn when output is not detected as English")
	translateCmd.Flags().IntVar(&translateParallel, "parallel", 1, "Maximum providers running at once")
}
