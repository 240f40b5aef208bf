package scoring

import (
	"fmt"

	"github.com/valpere/hingeval/internal/dataset"
	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/resulttable"
)

// Pair is one hypothesis with its reference.
type Pair struct {
	TripletID  int
	Variant    dataset.VariantType
	Hypothesis string
	Reference  string
}

// Split returns hypotheses and references as parallel slices.
func Split(pairs []Pair) (hyps, refs []string) {
	hyps = make([]string, len(pairs))
	refs = make([]string, len(pairs))
	for i, p := range pairs {
		hyps[i] = p.Hypothesis
		refs[i] = p.Reference
	}
	return hyps, refs
}

// PairsFromTable reads hypothesis and reference columns from a flat CSV
// table, such as a provider result table or seq2seq output. Rows whose
// reference is empty are dropped; an empty hypothesis is kept and scores as
// a miss. Malformed rows and rows with a bad id or variant are skipped with
// a warning.
func PairsFromTable(path, hypCol, refCol string) ([]Pair, error) {
	recs, err := resulttable.ReadRecords(path)
	if err != nil {
		return nil, err
	}

	hypIdx := recs.Index(hypCol)
	if hypIdx < 0 {
		return nil, fmt.Errorf("%w: %s", resulttable.ErrMissingColumn, hypCol)
	}
	refIdx := recs.Index(refCol)
	if refIdx < 0 {
		return nil, fmt.Errorf("%w: %s", resulttable.ErrMissingColumn, refCol)
	}
	idIdx := recs.Index(resulttable.ColTripletID, "id")
	variantIdx := recs.Index(resulttable.ColVariantType)

	for _, sk := range recs.Skipped {
		logger.Log.Warn("skipping malformed row", "path", path, "line", sk.Line, "reason", sk.Reason)
	}

	var pairs []Pair
	for i, row := range recs.Rows {
		p := Pair{
			Variant:    dataset.VariantBase,
			Hypothesis: row[hypIdx],
			Reference:  row[refIdx],
		}
		if p.Reference == "" {
			continue
		}
		if idIdx >= 0 {
			id, err := resulttable.ParseTripletID(row[idIdx])
			if err != nil {
				logger.Log.Warn("skipping row", "path", path, "line", recs.Lines[i], "reason", err.Error())
				continue
			}
			p.TripletID = id
		}
		if variantIdx >= 0 {
			v, err := dataset.ParseVariantType(row[variantIdx])
			if err != nil {
				logger.Log.Warn("skipping row", "path", path, "line", recs.Lines[i], "reason", err.Error())
				continue
			}
			p.Variant = v
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// PairsFromRecords pairs one provider's translations of variant v from a
// merged dataset with each record's reference_en. Records without a
// reference are dropped.
func PairsFromRecords(records []dataset.SentenceTriplet, v dataset.VariantType, prefix string) []Pair {
	field := dataset.FieldName(v, prefix)
	var pairs []Pair
	for i := range records {
		rec := &records[i]
		ref := rec.Reference()
		if ref == "" {
			continue
		}
		hyp, _ := rec.Field(field)
		pairs = append(pairs, Pair{TripletID: rec.ID, Variant: v, Hypothesis: hyp, Reference: ref})
	}
	return pairs
}
