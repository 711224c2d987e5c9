package transform

import (
	"fmt"
	"strings"
)

// FieldResolution records how a requested field reference was mapped onto an
// actual field of a sample row. Produced per lookup, never cached across
// unrelated rows.
type FieldResolution struct {
	OriginalField string   `json:"originalField"`
	ResolvedField string   `json:"resolvedField"`
	ResolvedPath  string   `json:"resolvedPath"`
	WasResolved   bool     `json:"wasResolved"`
	Warnings      []string `json:"warnings,omitempty"`
}

// fieldAliases maps loose domain synonyms across languages onto each other.
// Lookups go in both directions, so one entry per pair is enough.
var fieldAliases = map[string]string{
	// Portuguese / Spanish → English
	"nome":        "name",
	"nombre":      "name",
	"cidade":      "city",
	"ciudad":      "city",
	"preco":       "price",
	"preço":       "price",
	"precio":      "price",
	"idade":       "age",
	"edad":        "age",
	"quantidade":  "quantity",
	"cantidad":    "quantity",
	"valor":       "value",
	"data":        "date",
	"fecha":       "date",
	"descricao":   "description",
	"descrição":   "description",
	"categoria":   "category",
	"estado":      "state",
	"pais":        "country",
	"país":        "country",
	"temperatura": "temperature",
	"umidade":     "humidity",
	"humedad":     "humidity",
	"qty":         "quantity",
	"amount":      "value",
}

// Resolve maps a requested field reference onto a field actually present in
// the sample row. Resolution order: exact match, case-insensitive match, alias
// table in both directions. An unresolved reference is returned unchanged with
// wasResolved=false and a warning; it is never an error.
func Resolve(requested string, sample *Row) FieldResolution {
	res := FieldResolution{
		OriginalField: requested,
		ResolvedField: requested,
	}
	if sample == nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("field %q: no sample row to resolve against", requested))
		return res
	}

	if sample.Has(requested) {
		res.WasResolved = true
		res.ResolvedPath = "/" + escapePointerToken(requested)
		return res
	}

	lower := strings.ToLower(requested)
	for _, k := range sample.Keys() {
		if strings.ToLower(k) == lower {
			res.ResolvedField = k
			res.ResolvedPath = "/" + escapePointerToken(k)
			res.WasResolved = true
			return res
		}
	}

	if k, ok := aliasLookup(lower, sample); ok {
		res.ResolvedField = k
		res.ResolvedPath = "/" + escapePointerToken(k)
		res.WasResolved = true
		return res
	}

	res.Warnings = append(res.Warnings, fmt.Sprintf("field %q not found in sample row", requested))
	return res
}

// aliasLookup tries the synonym table in both directions, case-insensitively
// against the sample row's actual field names.
func aliasLookup(lower string, sample *Row) (string, bool) {
	targets := make(map[string]bool)
	if alias, ok := fieldAliases[lower]; ok {
		targets[alias] = true
	}
	for from, to := range fieldAliases {
		if to == lower {
			targets[from] = true
		}
	}
	if len(targets) == 0 {
		return "", false
	}
	for _, k := range sample.Keys() {
		if targets[strings.ToLower(k)] {
			return k, true
		}
	}
	return "", false
}
