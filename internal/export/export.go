// Package export renders executed rows as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go-transform-pipeline/internal/transform"
)

// Header returns the CSV header for a row set: the union of field names in
// first-seen order, so the first row's column order wins for shared fields.
func Header(rows []*transform.Row) []string {
	var header []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, key := range row.Keys() {
			if !seen[key] {
				seen[key] = true
				header = append(header, key)
			}
		}
	}
	return header
}

// WriteCSV writes rows as CSV. Scalar values render bare; nested objects and
// arrays are re-encoded as JSON text in their cell.
func WriteCSV(w io.Writer, rows []*transform.Row) error {
	writer := csv.NewWriter(w)

	header := Header(rows)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range rows {
		for i, key := range header {
			v, ok := row.Get(key)
			if !ok {
				record[i] = ""
				continue
			}
			record[i] = cellValue(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes rows as a JSON array, preserving field order.
func WriteJSON(w io.Writer, rows []*transform.Row) error {
	out := make([]interface{}, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteFile writes rows to path, picking the format from the extension
// (.json for JSON, anything else CSV).
func WriteFile(path string, rows []*transform.Row) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if filepath.Ext(path) == ".json" {
		err = WriteJSON(file, rows)
	} else {
		err = WriteCSV(file, rows)
	}
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func cellValue(v transform.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		// Whole floats render as integers, matching the JSON encoder.
		b, _ := transform.EncodeValue(val)
		return string(b)
	default:
		// Nested object or array: JSON text in the cell.
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
