// Package resulttable reads and writes per-provider result tables: flat CSV
// files with one row per (triplet_id, variant_type) and a provider-specific
// translation column.
package resulttable

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyTable is returned for a file without even a header row.
var ErrEmptyTable = errors.New("result table is empty")

// Status tells how a table was read.
type Status int

const (
	// StatusEmpty: the table contributed nothing (missing, unreadable, no usable rows).
	StatusEmpty Status = iota
	// StatusStrict: the whole file parsed with a consistent column count.
	StatusStrict
	// StatusPartial: the strict parse failed and rows were recovered one by one.
	StatusPartial
)

func (s Status) String() string {
	switch s {
	case StatusStrict:
		return "strict"
	case StatusPartial:
		return "partial"
	default:
		return "empty"
	}
}

// Skipped describes a row left out of the table. Line is the 1-based line
// in the file where the row starts.
type Skipped struct {
	Line   int
	Reason string
}

// Records is the raw content of a delimited file.
type Records struct {
	Header  []string
	Rows    [][]string
	Lines   []int
	Status  Status
	Skipped []Skipped
}

// ReadRecords reads a CSV file tolerating bad rows. A strict parse is attempted
// first; on a structural error the file is re-read row by row, skipping
// rows that cannot be parsed or have the wrong number of fields. The error
// is non-nil only when nothing usable could be read.
func ReadRecords(path string) (*Records, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	recs, err := readStrict(data)
	if err == nil {
		return recs, nil
	}

	var perr *csv.ParseError
	if !errors.As(err, &perr) {
		return nil, err
	}
	return readPermissive(data)
}

func newReader(data []byte) *csv.Reader {
	return csv.NewReader(bytes.NewReader(data))
}

func readStrict(data []byte) (*Records, error) {
	r := newReader(data)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrEmptyTable
	}

	recs := &Records{Header: cleanHeader(all[0]), Rows: all[1:], Status: StatusStrict}
	recs.Lines = lineNumbers(data, len(recs.Rows))
	return recs, nil
}

// lineNumbers recomputes start lines for strictly parsed rows. ReadAll does
// not expose positions, so the file is walked once more with Read.
func lineNumbers(data []byte, n int) []int {
	r := newReader(data)
	lines := make([]int, 0, n)
	if _, err := r.Read(); err != nil {
		return lines
	}
	for len(lines) < n {
		if _, err := r.Read(); err != nil {
			break
		}
		line, _ := r.FieldPos(0)
		lines = append(lines, line)
	}
	return lines
}

func readPermissive(data []byte) (*Records, error) {
	r := newReader(data)
	r.FieldsPerRecord = -1

	recs := &Records{Status: StatusPartial}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				// I/O failure mid-file: keep what was recovered.
				break
			}
			if recs.Header == nil {
				return nil, fmt.Errorf("unreadable header: %w", err)
			}
			recs.Skipped = append(recs.Skipped, Skipped{Line: perr.StartLine, Reason: perr.Err.Error()})
			continue
		}

		line, _ := r.FieldPos(0)
		if recs.Header == nil {
			recs.Header = cleanHeader(row)
			continue
		}
		if len(row) != len(recs.Header) {
			recs.Skipped = append(recs.Skipped, Skipped{
				Line:   line,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(recs.Header), len(row)),
			})
			continue
		}
		recs.Rows = append(recs.Rows, row)
		recs.Lines = append(recs.Lines, line)
	}

	if recs.Header == nil {
		return nil, ErrEmptyTable
	}
	return recs, nil
}

func cleanHeader(h []string) []string {
	out := make([]string, len(h))
	for i, name := range h {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		out[i] = strings.TrimSpace(name)
	}
	return out
}

// Index returns the position of the first header matching one of names, or -1.
func (r *Records) Index(names ...string) int {
	for _, n := range names {
		for i, h := range r.Header {
			if h == n {
				return i
			}
		}
	}
	return -1
}
