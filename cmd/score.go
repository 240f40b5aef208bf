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
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/report"
	"github.com/valpere/hingeval/internal/scoring"
)

var (
	scoreMetrics   []string
	scoreInput     string
	scoreProviders []string
	scoreVariants  []string

	scoreTable  string
	scoreHypCol string
	scoreRefCol string
	scoreLabel  string

	scoreDetails    string
	scoreReport     string
	scoreEmbedURL   string
	scoreEmbedModel string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score provider translations against the references",
	Long: `Score translations against reference_en.

By default every configured provider is read from the merged dataset and
scored per variant. With --table a single flat CSV is scored instead,
pairing --hyp-col with --ref-col.

Metrics:
  bleu       corpus BLEU (13a tokenization, 0-100)
  edit       character edit similarity (0-1)
  embedding  cosine similarity of Ollama embeddings (0-1)

The summary table is printed to stdout; --report also writes it to a file
(.md, .html or .txt) and --details writes one CSV row per scored pair.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scorers := make([]scoring.Scorer, 0, len(scoreMetrics))
		for _, name := range scoreMetrics {
			s, err := scoring.New(name, scoreEmbedURL, scoreEmbedModel)
			if err != nil {
				return err
			}
			scorers = append(scorers, s)
		}

		source, jobs, err := scoreJobs()
		if err != nil {
			return err
		}

		outcomes, err := scoring.Evaluate(context.Background(), scorers, jobs)
		if err != nil {
			return err
		}

		rep := report.Report{
			Title:       "Translation scores",
			Source:      source,
			GeneratedAt: time.Now(),
		}
		var details []scoring.DetailRow
		pairs := 0
		for _, o := range outcomes {
			rep.Entries = append(rep.Entries, report.Entry{
				Provider: o.Provider,
				Variant:  o.Variant,
				Metric:   o.Result.Metric,
				Corpus:   o.Result.Score,
				Summary:  o.Summary,
			})
			details = append(details, scoring.Details(o.Provider, o.Pairs, o.Result)...)
			pairs += len(o.Pairs)
		}

		if _, err := os.Stdout.Write(report.Markdown(rep)); err != nil {
			return err
		}
		fmt.Printf("\nScored %s pairs across %d results.\n", humanize.Comma(int64(pairs)), len(outcomes))

		if scoreReport != "" {
			if err := report.Write(scoreReport, rep); err != nil {
				return err
			}
			fmt.Printf("Report:  %s\n", scoreReport)
		}
		if scoreDetails != "" {
			if err := scoring.WriteDetails(scoreDetails, details); err != nil {
				return err
			}
			fmt.Printf("Details: %s\n", scoreDetails)
		}
		return nil
	},
}

// scoreJobs builds the scoring jobs and names their source file.
func scoreJobs() (string, []scoring.Job, error) {
	if scoreTable != "" {
		if scoreHypCol == "" {
			return "", nil, fmt.Errorf("--hyp-col is required with --table")
		}
		pairs, err := scoring.PairsFromTable(scoreTable, scoreHypCol, scoreRefCol)
		if err != nil {
			return "", nil, err
		}
		label := firstNonEmpty(scoreLabel, scoreHypCol)
		return scoreTable, []scoring.Job{{Provider: label, Variant: "all", Pairs: pairs}}, nil
	}

	input := firstNonEmpty(scoreInput, cfg.MergeOutput)
	records, err := dataset.Load(input)
	if err != nil {
		return "", nil, err
	}
	providers, err := cfg.Select(scoreProviders)
	if err != nil {
		return "", nil, err
	}
	variants, err := dataset.ParseVariants(scoreVariants)
	if err != nil {
		return "", nil, err
	}

	var jobs []scoring.Job
	for _, p := range providers {
		for _, v := range variants {
			jobs = append(jobs, scoring.Job{
				Provider: p.Name,
				Variant:  string(v),
				Pairs:    scoring.PairsFromRecords(records, v, p.Prefix),
			})
		}
	}
	return input, jobs, nil
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringSliceVarP(&scoreMetrics, "metric", "m", []string{"bleu"}, "Metrics: bleu, edit, embedding")
	scoreCmd.Flags().StringVarP(&scoreInput, "input", "i", "", "Merged dataset JSON (default: config merge_output)")
	scoreCmd.Flags().StringSliceVar(&scoreProviders, "providers", nil, "Providers to score (default: all configured)")
	scoreCmd.Flags().StringSliceVar(&scoreVariants, "variants", nil, "Variants to score (default: all)")

	scoreCmd.Flags().StringVar(&scoreTable, "table", "", "Score a flat CSV table instead of the merged dataset")
	scoreCmd.Flags().StringVar(&scoreHypCol, "hyp-col", "", "Hypothesis column for --table")
	scoreCmd.Flags().StringVar(&scoreRefCol, "ref-col", "reference_en", "Reference column for --table")
	scoreCmd.Flags().StringVar(&scoreLabel, "label", "", "Provider label for --table (default: hypothesis column)")

	scoreCmd.Flags().StringVar(&scoreDetails, "details", "", "Write per-pair scores to this CSV")
	scoreCmd.Flags().StringVar(&scoreReport, "report", "", "Write the summary report (.md, .html, .txt)")
	scoreCmd.Flags().StringVar(&scoreEmbedURL, "embed-url", scoring.DefaultEmbedBaseURL, "Ollama URL for the embedding metric")
	scoreCmd.Flags().StringVar(&scoreEmbedModel, "embed-model", scoring.DefaultEmbedModel, "Embedding model")
}
