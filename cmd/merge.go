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
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/merge"
	"github.com/valpere/hingeval/internal/store"
)

var (
	mergeInput     string
	mergeOutput    string
	mergeProviders []string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge provider result tables into the dataset",
	Long: `Join every provider's result table into the dataset by (triplet_id,
variant_type). Each record gains <variant>_<prefix>_translation fields for
every provider; rows missing from a table become empty strings.

Missing or malformed tables never stop the merge: bad rows are skipped
with a diagnostic and an unreadable table contributes nothing. The output
is rewritten from scratch on every run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, err := cfg.Select(mergeProviders)
		if err != nil {
			return err
		}

		opts := merge.Options{
			DatasetPath: firstNonEmpty(mergeInput, cfg.Dataset),
			OutputPath:  firstNonEmpty(mergeOutput, cfg.MergeOutput),
		}
		for _, p := range providers {
			opts.Sources = append(opts.Sources, merge.SourceSpec{
				Name:   p.Name,
				Prefix: p.Prefix,
				Table:  p.Table,
				Column: p.Column,
			})
		}

		var db *store.Store
		if cfg.DB != "" {
			if db, err = openStore(cfg.DB); err != nil {
				logger.Log.Warn("run log unavailable", "error", err)
				db = nil
			} else {
				defer db.Close()
			}
		}
		run := startRun(context.Background(), db, "merge", "", opts.DatasetPath, opts.OutputPath)

		report, err := merge.Run(opts)
		if err != nil {
			run.finish(err, 0, 0)
			return err
		}
		run.finish(nil, report.Records, 0)

		fmt.Printf("Records: %s\n", humanize.Comma(int64(report.Records)))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tTABLE\tSTATUS\tROWS\tSKIPPED\tDUPLICATES\tFILLED\tMISSING\tORPHANS")
		for i, s := range report.Stats {
			t := report.Tables[i]
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
				s.Name, t.Path, t.Status, t.Rows, len(t.Skipped), t.Duplicates,
				s.Filled, s.Missing, s.Orphans)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("Output:  %s\n", opts.OutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&mergeInput, "input", "i", "", "Dataset JSON (default: config dataset)")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Merged JSON (default: config merge_output)")
	mergeCmd.Flags().StringSliceVar(&mergeProviders, "providers", nil, "Providers to merge (default: all configured)")
}
