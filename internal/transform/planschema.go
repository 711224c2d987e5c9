package transform

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// planJSONSchema is the wire contract for plans produced outside this process
// (the language-model provider). Go-side Validate() remains authoritative; this
// gate rejects malformed provider output early with a readable message.
const planJSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["planVersion", "source", "steps"],
  "properties": {
    "planVersion": {"type": "string"},
    "source": {
      "type": "object",
      "required": ["recordPath"],
      "properties": {"recordPath": {"type": "string"}}
    },
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["op"],
        "properties": {
          "op": {"enum": ["select", "filter", "compute", "sort", "groupBy", "aggregate", "limit"]},
          "fields": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["from", "as"],
              "properties": {"from": {"type": "string"}, "as": {"type": "string"}}
            }
          },
          "where": {"$ref": "#/definitions/condition"},
          "compute": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["as", "expr"],
              "properties": {"as": {"type": "string"}, "expr": {"type": "string"}}
            }
          },
          "by": {"type": "string"},
          "dir": {"enum": ["asc", "desc"]},
          "keys": {"type": "array", "items": {"type": "string"}},
          "metrics": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["as", "fn"],
              "properties": {
                "as": {"type": "string"},
                "fn": {"enum": ["sum", "count", "avg", "min", "max"]},
                "field": {"type": "string"}
              }
            }
          },
          "n": {"type": "integer", "minimum": 0}
        }
      }
    }
  },
  "definitions": {
    "condition": {
      "type": "object",
      "required": ["op"],
      "properties": {
        "op": {"enum": ["eq", "neq", "gt", "gte", "lt", "lte", "and", "or", "not"]},
        "left": {"$ref": "#/definitions/operand"},
        "right": {"$ref": "#/definitions/operand"},
        "conds": {"type": "array", "items": {"$ref": "#/definitions/condition"}},
        "cond": {"$ref": "#/definitions/condition"}
      }
    },
    "operand": {"type": "object"}
  }
}`

var planSchema = gojsonschema.NewStringLoader(planJSONSchema)

// ValidatePlanJSON checks raw plan JSON against the wire schema before it is
// decoded. Used for plans arriving from the external plan source.
func ValidatePlanJSON(raw []byte) error {
	result, err := gojsonschema.Validate(planSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("InvalidPlan: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var reasons []string
	for _, e := range result.Errors() {
		reasons = append(reasons, e.String())
	}
	return fmt.Errorf("InvalidPlan: %s", strings.Join(reasons, "; "))
}

// ParseExternalPlan runs the schema gate and then the full structural decode,
// the path every provider-supplied plan must pass before execution.
func ParseExternalPlan(raw []byte) (*Plan, error) {
	if err := ValidatePlanJSON(raw); err != nil {
		return nil, err
	}
	return ParsePlan(raw)
}
