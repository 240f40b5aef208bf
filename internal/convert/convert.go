// Package convert turns a flat result table into a JSON array of records.
package convert

import (
	"fmt"

	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/resulttable"
)

// numericColumns are emitted as JSON numbers when their value is integral.
var numericColumns = map[string]bool{
	"id":                     true,
	resulttable.ColTripletID: true,
}

// Records converts table rows into ordered JSON objects keyed by header.
// Every column is a string except the id columns, which become integers
// when they parse as one.
func Records(recs *resulttable.Records) []dataset.Object {
	out := make([]dataset.Object, 0, len(recs.Rows))
	for _, row := range recs.Rows {
		obj := make(dataset.Object, 0, len(recs.Header))
		for i, name := range recs.Header {
			var value string
			if i < len(row) {
				value = row[i]
			}
			obj = append(obj, dataset.Field{Key: name, Value: cell(name, value)})
		}
		out = append(out, obj)
	}
	return out
}

func cell(name, value string) interface{} {
	if !numericColumns[name] {
		return value
	}
	if id, err := resulttable.ParseTripletID(value); err == nil {
		return id
	}
	return value
}

// Run reads the table at input and writes it to output as JSON. It returns
// the number of records written.
func Run(input, output string) (int, error) {
	recs, err := resulttable.ReadRecords(input)
	if err != nil {
		return 0, fmt.Errorf("failed to read table: %w", err)
	}
	for _, s := range recs.Skipped {
		logger.Log.Warn("skipping malformed row", "path", input, "line", s.Line, "reason", s.Reason)
	}

	out := Records(recs)
	if err := dataset.Save(output, out); err != nil {
		return 0, fmt.Errorf("failed to save records: %w", err)
	}
	logger.Log.Info("converted table", "input", input, "output", output,
		"records", len(out), "status", recs.Status.String())
	return len(out), nil
}
