package transform

import "fmt"

// NormalizationResult carries the flattened record set plus a representative
// sample row for field resolution.
type NormalizationResult struct {
	Rows     []*Row   `json:"rows"`
	Sample   *Row     `json:"sample"`
	Warnings []string `json:"warnings,omitempty"`
}

// Normalize turns a document into an ordered sequence of rows.
//
// Arrays yield one row per element; a non-object element becomes a single-field
// row {"value": elem} and is flagged with a warning. A single object wraps into
// a one-row sequence. A nil document is a valid empty record set. Any other
// primitive root cannot be a record set and fails with ErrWrongShape.
func Normalize(doc Value) (NormalizationResult, error) {
	switch node := doc.(type) {
	case nil:
		return NormalizationResult{Rows: []*Row{}, Sample: NewRow()}, nil
	case []Value:
		res := NormalizationResult{Rows: make([]*Row, 0, len(node))}
		for i, elem := range node {
			if obj, ok := elem.(*Row); ok {
				res.Rows = append(res.Rows, obj)
				continue
			}
			wrapped := NewRow()
			wrapped.Set("value", elem)
			res.Rows = append(res.Rows, wrapped)
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("element %d is %s, wrapped as {value}", i, TypeName(elem)))
		}
		res.Sample = sampleOf(res.Rows)
		return res, nil
	case *Row:
		return NormalizationResult{Rows: []*Row{node}, Sample: node}, nil
	default:
		return NormalizationResult{}, fmt.Errorf("%w: %s root cannot be a record set", ErrWrongShape, TypeName(doc))
	}
}

// ExtractAndNormalize resolves recordPath inside the document first, then
// normalizes whatever lives there. A path that resolves to nothing yields an
// empty record set rather than an error: the document simply has no records.
func ExtractAndNormalize(doc Value, recordPath string) (NormalizationResult, error) {
	target, ok := LookupPointer(doc, recordPath)
	if !ok {
		return NormalizationResult{
			Rows:     []*Row{},
			Sample:   NewRow(),
			Warnings: []string{fmt.Sprintf("record path %q not present in document", recordPath)},
		}, nil
	}
	return Normalize(target)
}

func sampleOf(rows []*Row) *Row {
	if len(rows) == 0 {
		return NewRow()
	}
	return rows[0]
}
