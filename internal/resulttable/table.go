package resulttable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/logger"
)

// Column names of the result table schema.
const (
	ColTripletID   = "triplet_id"
	ColVariantType = "variant_type"
	ColInput       = "input_hinglish"
	ColReferenceEN = "reference_en"
)

// ErrMissingColumn is reported when a required header column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Key is the composite join key of a translation.
type Key struct {
	ID      int
	Variant dataset.VariantType
}

// Table maps (triplet id, variant) to translated text.
type Table map[Key]string

// Result is the outcome of loading a table. Err explains an empty result;
// Skipped lists rows left out of a strict or partial one.
type Result struct {
	Path       string
	Status     Status
	Table      Table
	Rows       int
	Duplicates int
	Skipped    []Skipped
	Err        error
}

// Load reads a provider's result table into a lookup keyed by
// (triplet_id, variant_type). It never fails: a missing or unusable file
// yields an empty table with Err set, malformed rows are skipped with a
// diagnostic, and on duplicate keys the later row wins.
//
// A table without a variant_type column (seq2seq base-only output) is read
// as all-base; "id" is accepted in place of "triplet_id".
func Load(path, column string) *Result {
	res := &Result{Path: path, Table: make(Table)}

	recs, err := ReadRecords(path)
	if err != nil {
		res.Err = err
		switch {
		case os.IsNotExist(err):
			logger.Log.Warn("result table not found", "path", path)
		case errors.Is(err, ErrEmptyTable):
			logger.Log.Warn("result table is empty", "path", path)
		default:
			logger.Log.Error("failed to read result table", "path", path, "error", err)
		}
		return res
	}

	idCol := recs.Index(ColTripletID, "id")
	variantCol := recs.Index(ColVariantType)
	textCol := recs.Index(column)

	var missing []string
	if idCol < 0 {
		missing = append(missing, ColTripletID)
	}
	if textCol < 0 {
		missing = append(missing, column)
	}
	if len(missing) > 0 {
		res.Err = fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
		logger.Log.Error("result table unusable", "path", path, "error", res.Err)
		return res
	}

	res.Skipped = append(res.Skipped, recs.Skipped...)

	for i, row := range recs.Rows {
		line := 0
		if i < len(recs.Lines) {
			line = recs.Lines[i]
		}

		id, err := ParseTripletID(row[idCol])
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Line: line, Reason: err.Error()})
			continue
		}

		variant := dataset.VariantBase
		if variantCol >= 0 {
			variant, err = dataset.ParseVariantType(row[variantCol])
			if err != nil {
				res.Skipped = append(res.Skipped, Skipped{Line: line, Reason: err.Error()})
				continue
			}
		}

		key := Key{ID: id, Variant: variant}
		if _, dup := res.Table[key]; dup {
			res.Duplicates++
		}
		res.Table[key] = row[textCol]
		res.Rows++
	}

	for _, s := range res.Skipped {
		logger.Log.Warn("skipping row", "path", path, "line", s.Line, "reason", s.Reason)
	}
	if res.Duplicates > 0 {
		logger.Log.Warn("duplicate keys in result table, later rows win", "path", path, "count", res.Duplicates)
	}

	switch {
	case res.Rows == 0:
		res.Status = StatusEmpty
	default:
		res.Status = recs.Status
	}
	return res
}

// ParseTripletID accepts integers and integral floats.
func ParseTripletID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// Dataframe exports write integer columns containing NaN as floats, e.g. "7.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid triplet_id %q", s)
	}
	return int(f), nil
}

// Row is one line of a result table as produced by a translation run.
type Row struct {
	TripletID   int
	VariantType dataset.VariantType
	Input       string
	Translation string
	ReferenceEN string
}

// Write stores rows with the header
// triplet_id,variant_type,input_hinglish,<column>,reference_en.
func Write(path, column string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{ColTripletID, ColVariantType, ColInput, column, ColReferenceEN}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.TripletID),
			string(r.VariantType),
			r.Input,
			r.Translation,
			r.ReferenceEN,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %d/%s: %w", r.TripletID, r.VariantType, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush result table: %w", err)
	}
	return f.Close()
}
