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
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cacheDBPath   string
	cacheProvider string
	cacheRunLimit int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation cache",
	Long:  `List, inspect, and clear the SQLite translation cache and its run log.`,
}

func cacheDB() string {
	return firstNonEmpty(cacheDBPath, cfg.DB)
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cacheDB())
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.List(context.Background(), cacheProvider)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries in translation cache.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tMODEL\tUSED\tLAST USED\tTEXT\tTRANSLATION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				e.Provider, e.Model, e.UsageCount, humanize.Time(e.LastUsed),
				snippet(e.SourceText, 40), snippet(e.TranslatedText, 40))
		}
		return w.Flush()
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics per provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cacheDB())
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No entries in translation cache.")
			return nil
		}

		var entries, usage int
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tMODEL\tENTRIES\tUSAGE")
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Provider, s.Model,
				humanize.Comma(int64(s.Entries)), humanize.Comma(int64(s.TotalUsage)))
			entries += s.Entries
			usage += s.TotalUsage
		}
		fmt.Fprintf(w, "TOTAL\t\t%s\t%s\n", humanize.Comma(int64(entries)), humanize.Comma(int64(usage)))
		return w.Flush()
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached translations",
	Long:  `Remove every cached translation, or only those of --provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cacheDB())
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.Clear(context.Background(), cacheProvider)
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared %d entries from translation cache.\n", n)
		return nil
	},
}

var cacheRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent translate and merge runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cacheDB())
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), cacheRunLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCOMMAND\tPROVIDER\tSTATUS\tROWS\tFAILURES\tSTARTED\tDURATION\tOUTPUT")
		for _, r := range runs {
			duration := "-"
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
				r.ID[:8], r.Command, r.Provider, r.Status, r.Rows, r.Failures,
				r.StartedAt.Format("2006-01-02 15:04"), duration, r.OutputFile)
		}
		return w.Flush()
	},
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheDBPath, "db", "", "Database path (default: config db)")
	cacheListCmd.Flags().StringVar(&cacheProvider, "provider", "", "Only this provider")
	cacheClearCmd.Flags().StringVar(&cacheProvider, "provider", "", "Only this provider")
	cacheRunsCmd.Flags().IntVar(&cacheRunLimit, "limit", 20, "Number of runs to show")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheRunsCmd)
}
