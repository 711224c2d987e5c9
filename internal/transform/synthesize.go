package transform

import "strings"

// Template synthesis: a deterministic, rule-based fallback used when no
// external plan is supplied, or when a supplied one fails validation.
//
// Templates are tried most-specific-first and the first match wins:
//
//	T5  group + aggregate, when the goal carries aggregation keywords
//	T2  select the fields the goal mentions
//	T1  select everything in the sample row (default)
//
// The fixed precedence is a design decision, not a scored contest: a goal that
// names both an aggregation and some fields means the aggregation.

var aggregationKeywords = map[string]string{
	"group":   "",
	"grouped": "",
	"sum":     "sum",
	"total":   "sum",
	"count":   "count",
	"average": "avg",
	"avg":     "avg",
	"mean":    "avg",
	"minimum": "min",
	"min":     "min",
	"maximum": "max",
	"max":     "max",
}

// Words that commonly precede the grouping dimension ("per city", "by category").
var groupingPrepositions = map[string]bool{
	"by":   true,
	"per":  true,
	"por":  true,
	"cada": true,
}

// Synthesize builds a plan from a goal description and the discovered record
// path plus sample row. It always succeeds; with nothing to go on it falls
// back to selecting every sample field unchanged.
func Synthesize(goalText, recordPath string, sample *Row) *Plan {
	tokens := splitTokens(goalText)

	if plan, ok := synthesizeAggregation(tokens, recordPath, sample); ok {
		return plan
	}
	if plan, ok := synthesizeMentionedFields(tokens, recordPath, sample); ok {
		return plan
	}
	return synthesizeSelectAll(recordPath, sample)
}

// synthesizeAggregation is template T5: groupBy over the mentioned dimension
// plus one metric per detected aggregation keyword.
func synthesizeAggregation(tokens []string, recordPath string, sample *Row) (*Plan, bool) {
	fns := detectAggregations(tokens)
	if len(fns) == 0 {
		return nil, false
	}

	groupField, metricFields := pickAggregationFields(tokens, sample)

	var metrics []MetricSpec
	for _, fn := range fns {
		if fn == "count" {
			metrics = append(metrics, MetricSpec{As: "count", Fn: "count"})
			continue
		}
		field := pickMetricField(metricFields, groupField, sample)
		if field == "" {
			continue
		}
		metrics = append(metrics, MetricSpec{As: fn + "_" + field, Fn: fn, Field: field})
	}
	if len(metrics) == 0 {
		metrics = append(metrics, MetricSpec{As: "count", Fn: "count"})
	}

	steps := []PlanStep{}
	if groupField != "" {
		steps = append(steps, PlanStep{Op: OpGroupBy, Keys: []string{groupField}})
	}
	steps = append(steps, PlanStep{Op: OpAggregate, Metrics: metrics})

	return &Plan{
		PlanVersion: PlanVersion,
		Source:      PlanInput{RecordPath: recordPath},
		Steps:       steps,
	}, true
}

// detectAggregations returns the distinct aggregation functions named in the
// goal, in token order. A bare "group"/"grouped" keyword triggers the template
// even without a function; count stands in as the metric then.
func detectAggregations(tokens []string) []string {
	var fns []string
	triggered := false
	for _, tok := range tokens {
		fn, ok := aggregationKeywords[tok]
		if !ok {
			continue
		}
		triggered = true
		if fn != "" && !containsString(fns, fn) {
			fns = append(fns, fn)
		}
	}
	if !triggered {
		return nil
	}
	return fns
}

// pickAggregationFields scans the goal for sample-row field references. The
// token following "by"/"per" wins as the grouping dimension; otherwise the
// first mentioned field does. Remaining mentions become metric candidates.
func pickAggregationFields(tokens []string, sample *Row) (groupField string, metricFields []string) {
	var mentioned []string
	afterPreposition := ""
	for i, tok := range tokens {
		// Aggregation keywords double as plausible field names ("sum", "count");
		// they already chose the template, so they never count as mentions.
		if isAggregationKeyword(tok) || groupingPrepositions[tok] {
			continue
		}
		res := Resolve(tok, sample)
		if !res.WasResolved {
			continue
		}
		if containsString(mentioned, res.ResolvedField) {
			continue
		}
		mentioned = append(mentioned, res.ResolvedField)
		if i > 0 && groupingPrepositions[tokens[i-1]] && afterPreposition == "" {
			afterPreposition = res.ResolvedField
		}
	}

	if afterPreposition != "" {
		groupField = afterPreposition
	} else if len(mentioned) > 0 {
		groupField = mentioned[0]
	}
	for _, f := range mentioned {
		if f != groupField {
			metricFields = append(metricFields, f)
		}
	}
	return groupField, metricFields
}

// pickMetricField chooses the field a numeric metric applies to: the first
// mentioned non-group field, else the first numeric sample field that is not
// the group key.
func pickMetricField(metricFields []string, groupField string, sample *Row) string {
	if len(metricFields) > 0 {
		return metricFields[0]
	}
	for _, k := range sample.Keys() {
		if k == groupField {
			continue
		}
		v, _ := sample.Get(k)
		if _, ok := v.(float64); ok {
			return k
		}
	}
	return ""
}

// synthesizeMentionedFields is template T2: a select listing exactly the
// sample-row fields referenced as bare tokens in the goal, in resolution order.
func synthesizeMentionedFields(tokens []string, recordPath string, sample *Row) (*Plan, bool) {
	var fields []FieldSpec
	seen := make(map[string]bool)
	for _, tok := range tokens {
		res := Resolve(tok, sample)
		if !res.WasResolved || seen[res.ResolvedField] {
			continue
		}
		seen[res.ResolvedField] = true
		fields = append(fields, FieldSpec{From: res.ResolvedField, As: res.ResolvedField})
	}
	if len(fields) == 0 {
		return nil, false
	}
	return &Plan{
		PlanVersion: PlanVersion,
		Source:      PlanInput{RecordPath: recordPath},
		Steps:       []PlanStep{{Op: OpSelect, Fields: fields}},
	}, true
}

// synthesizeSelectAll is template T1, the default: every sample field, unchanged.
func synthesizeSelectAll(recordPath string, sample *Row) *Plan {
	var fields []FieldSpec
	for _, k := range sample.Keys() {
		fields = append(fields, FieldSpec{From: k, As: k})
	}
	steps := []PlanStep{}
	if len(fields) > 0 {
		steps = append(steps, PlanStep{Op: OpSelect, Fields: fields})
	}
	return &Plan{
		PlanVersion: PlanVersion,
		Source:      PlanInput{RecordPath: recordPath},
		Steps:       steps,
	}
}

// Tokens that resolve as fields but also appear as aggregation keywords should
// not double as metric names; keep the check available for callers composing
// goals programmatically.
func isAggregationKeyword(tok string) bool {
	_, ok := aggregationKeywords[strings.ToLower(tok)]
	return ok
}
