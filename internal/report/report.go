// Package report renders score summaries as Markdown, HTML or plain text.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/valpere/hingeval/internal/scoring"
)

// Entry is the score of one provider on one variant with one metric.
type Entry struct {
	Provider string
	Variant  string
	Metric   string
	Corpus   float64
	Summary  scoring.Summary
}

// Report collects entries for rendering.
type Report struct {
	Title       string
	Source      string
	GeneratedAt time.Time
	Entries     []Entry
}

// Markdown renders the report as a Markdown document with one table per
// metric, rows ordered by provider and variant.
func Markdown(r Report) []byte {
	var buf bytes.Buffer

	title := r.Title
	if title == "" {
		title = "Translation scores"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	if r.Source != "" {
		fmt.Fprintf(&buf, "Source: `%s`\n\n", r.Source)
	}
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&buf, "Generated: %s\n\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	}

	byMetric := make(map[string][]Entry)
	var metrics []string
	for _, e := range r.Entries {
		if _, ok := byMetric[e.Metric]; !ok {
			metrics = append(metrics, e.Metric)
		}
		byMetric[e.Metric] = append(byMetric[e.Metric], e)
	}

	if len(metrics) == 0 {
		buf.WriteString("No scores.\n")
		return buf.Bytes()
	}

	for _, m := range metrics {
		entries := byMetric[m]
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Provider != entries[j].Provider {
				return entries[i].Provider < entries[j].Provider
			}
			return entries[i].Variant < entries[j].Variant
		})

		fmt.Fprintf(&buf, "## %s\n\n", strings.ToUpper(m))
		buf.WriteString("| Provider | Variant | Pairs | Corpus | Mean | Median | Std dev | Min | Max |\n")
		buf.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, e := range entries {
			s := e.Summary
			fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				escapeCell(e.Provider), escapeCell(e.Variant), humanize.Comma(int64(s.Count)),
				num(e.Corpus), num(s.Mean), num(s.Median), num(s.StdDev), num(s.Min), num(s.Max))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

func num(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Write renders r in the format implied by the file extension: .html or
// .htm for HTML, .txt for plain text, Markdown otherwise.
func Write(path string, r Report) error {
	md := Markdown(r)

	var out []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		out = []byte(Page(r.Title, md))
	case ".txt":
		out = []byte(ToPlainText(md))
	default:
		out = md
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
