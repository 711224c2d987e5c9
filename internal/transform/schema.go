package transform

// InferSchema derives a permissive JSON Schema from the executor's output.
//
// The result is always an array-of-objects schema whose object node tolerates
// additional properties; input shapes are not contractually fixed, so the
// schema describes what was observed without forbidding anything else. A field
// whose type varies across rows gets a union type, never an error.
func InferSchema(rows []*Row) *Row {
	properties := NewRow()
	// fieldTypes tracks distinct observed type names per field, in first-seen
	// order so output is deterministic.
	fieldTypes := make(map[string][]string)

	for _, row := range rows {
		for _, k := range row.Keys() {
			v, _ := row.Get(k)
			name := schemaTypeName(v)
			if !containsString(fieldTypes[k], name) {
				fieldTypes[k] = append(fieldTypes[k], name)
			}
			if !properties.Has(k) {
				properties.Set(k, nil) // placeholder keeps first-seen column order
			}
		}
	}

	for _, k := range properties.Keys() {
		prop := NewRow()
		types := fieldTypes[k]
		if len(types) == 1 {
			prop.Set("type", types[0])
		} else {
			union := make([]Value, len(types))
			for i, t := range types {
				union[i] = t
			}
			prop.Set("type", union)
		}
		properties.Set(k, prop)
	}

	items := NewRow()
	items.Set("type", "object")
	items.Set("properties", properties)
	items.Set("additionalProperties", true)

	schema := NewRow()
	schema.Set("type", "array")
	schema.Set("items", items)
	return schema
}

func schemaTypeName(v Value) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		if isWholeNumber(t) {
			return "integer"
		}
		return "number"
	case []Value:
		return "array"
	case *Row:
		return "object"
	default:
		return "string"
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
