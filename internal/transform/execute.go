package transform

import (
	"fmt"
	"sort"
	"strings"
)

// ExecutionResult is the executor's output: rows plus non-fatal warnings
// accumulated along the way.
type ExecutionResult struct {
	Rows     []*Row   `json:"rows"`
	Warnings []string `json:"warnings,omitempty"`
}

// Execute runs the plan's steps in order over the document's record set.
//
// The asymmetry is deliberate: a structurally invalid plan fails before any
// row is touched (a malformed plan is a synthesis bug), while per-row problems
// degrade to nulls or dropped rows (malformed data is the normal case this
// engine exists to tolerate).
func Execute(plan *Plan, doc Value) (ExecutionResult, error) {
	if plan == nil {
		return ExecutionResult{}, fmt.Errorf("InvalidPlan: plan is nil")
	}
	if err := plan.Validate(); err != nil {
		return ExecutionResult{}, err
	}

	norm, err := ExtractAndNormalize(doc, plan.Source.RecordPath)
	if err != nil {
		return ExecutionResult{}, err
	}

	ex := &executor{warnings: norm.Warnings}
	rows := norm.Rows
	for i := 0; i < len(plan.Steps); i++ {
		step := plan.Steps[i]
		switch step.Op {
		case OpSelect:
			rows = ex.runSelect(step, rows)
		case OpFilter:
			rows = ex.runFilter(step, rows)
		case OpCompute:
			rows = ex.runCompute(step, rows)
		case OpSort:
			rows = ex.runSort(step, rows)
		case OpGroupBy:
			// Validation guarantees the next step is aggregate; consume both.
			rows = ex.runGroupAggregate(step, plan.Steps[i+1], rows)
			i++
		case OpAggregate:
			rows = ex.runAggregate(step, rows)
		case OpLimit:
			if step.N < len(rows) {
				rows = rows[:step.N]
			}
		}
	}

	if rows == nil {
		rows = []*Row{}
	}
	return ExecutionResult{Rows: rows, Warnings: ex.warnings}, nil
}

type executor struct {
	warnings []string
}

func (ex *executor) warnf(format string, args ...any) {
	// Cap warning volume so a thousand-row document with a missing field does
	// not produce a thousand identical lines.
	const maxWarnings = 25
	if len(ex.warnings) < maxWarnings {
		ex.warnings = append(ex.warnings, fmt.Sprintf(format, args...))
	}
}

// runSelect resolves each requested field once against the first row, then
// copies values under the output names. Output rows carry exactly the
// requested names in request order; unresolved fields yield null.
func (ex *executor) runSelect(step PlanStep, rows []*Row) []*Row {
	sample := sampleOf(rows)
	resolved := make([]FieldResolution, len(step.Fields))
	for i, f := range step.Fields {
		resolved[i] = Resolve(f.From, sample)
		for _, w := range resolved[i].Warnings {
			ex.warnf("select: %s", w)
		}
	}

	out := make([]*Row, 0, len(rows))
	for _, row := range rows {
		next := NewRow()
		for i, f := range step.Fields {
			v, ok := row.Get(resolved[i].ResolvedField)
			if !ok {
				v = nil
			}
			next.Set(f.As, v)
		}
		out = append(out, next)
	}
	return out
}

// runFilter keeps rows where the condition is truthy. A resolution failure on
// either operand drops the row (fail closed) rather than erroring.
func (ex *executor) runFilter(step PlanStep, rows []*Row) []*Row {
	out := make([]*Row, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		keep, ok := evalCondition(step.Where, row)
		if !ok {
			dropped++
			continue
		}
		if keep {
			out = append(out, row)
		}
	}
	if dropped > 0 {
		ex.warnf("filter: dropped %d rows with unresolvable operands", dropped)
	}
	return out
}

// evalCondition evaluates a condition tree; !ok means an operand could not be
// resolved on this row.
func evalCondition(c *Condition, row *Row) (result bool, ok bool) {
	switch c.Op {
	case CondAnd:
		for _, sub := range c.Conds {
			r, ok := evalCondition(sub, row)
			if !ok {
				return false, false
			}
			if !r {
				return false, true
			}
		}
		return true, true
	case CondOr:
		for _, sub := range c.Conds {
			r, ok := evalCondition(sub, row)
			if !ok {
				return false, false
			}
			if r {
				return true, true
			}
		}
		return false, true
	case CondNot:
		r, ok := evalCondition(c.Cond, row)
		if !ok {
			return false, false
		}
		return !r, true
	}

	left, lok := operandValue(c.Left, row)
	right, rok := operandValue(c.Right, row)
	if !lok || !rok {
		return false, false
	}

	switch c.Op {
	case CondEq:
		return looseEqual(left, right), true
	case CondNeq:
		return !looseEqual(left, right), true
	case CondGt, CondGte, CondLt, CondLte:
		cmp, comparable := compareValues(left, right)
		if !comparable {
			return false, true
		}
		switch c.Op {
		case CondGt:
			return cmp > 0, true
		case CondGte:
			return cmp >= 0, true
		case CondLt:
			return cmp < 0, true
		case CondLte:
			return cmp <= 0, true
		}
	}
	return false, false
}

func operandValue(o *Operand, row *Row) (Value, bool) {
	if o.IsLiteral() {
		return o.Value, true
	}
	res := Resolve(o.Field, row)
	if !res.WasResolved {
		return nil, false
	}
	v, _ := row.Get(res.ResolvedField)
	return v, true
}

// runCompute adds one computed field per spec. Expressions were parsed during
// validation; a per-row evaluation problem yields null for that field only.
func (ex *executor) runCompute(step PlanStep, rows []*Row) []*Row {
	parsed := make([]*Expr, len(step.Compute))
	for i, c := range step.Compute {
		// Validate() already proved these parse.
		parsed[i], _ = ParseExpr(c.Expr)
	}

	out := make([]*Row, 0, len(rows))
	nullCount := 0
	for _, row := range rows {
		next := row.Clone()
		for i, c := range step.Compute {
			v, ok := EvalExpr(parsed[i], next)
			if !ok {
				nullCount++
				v = nil
			}
			next.Set(c.As, v)
		}
		out = append(out, next)
	}
	if nullCount > 0 {
		ex.warnf("compute: %d field evaluations yielded null", nullCount)
	}
	return out
}

// runSort stably sorts by the resolved field; nulls and non-comparable values
// sort last regardless of direction.
func (ex *executor) runSort(step PlanStep, rows []*Row) []*Row {
	sample := sampleOf(rows)
	res := Resolve(step.By, sample)
	for _, w := range res.Warnings {
		ex.warnf("sort: %s", w)
	}
	desc := step.Dir == "desc"

	out := append([]*Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		vi, _ := out[i].Get(res.ResolvedField)
		vj, _ := out[j].Get(res.ResolvedField)

		// Nulls and non-orderable values last regardless of direction.
		ri, rj := sortRank(vi), sortRank(vj)
		if ri != rj {
			return ri < rj
		}
		if ri != 0 {
			return false
		}
		if desc {
			less, comparable := sortLess(vj, vi)
			return comparable && less
		}
		less, comparable := sortLess(vi, vj)
		return comparable && less
	})
	return out
}

// sortRank buckets sort values: orderable scalars first, then objects and
// arrays, then nulls. Stable sort keeps document order within a bucket.
func sortRank(v Value) int {
	switch v.(type) {
	case nil:
		return 2
	case float64, string, bool:
		return 0
	default:
		return 1
	}
}

// runGroupAggregate partitions rows by the tuple of resolved key values, then
// emits one row per group: the keys first, then one field per metric. Groups
// keep first-seen order.
func (ex *executor) runGroupAggregate(groupStep, aggStep PlanStep, rows []*Row) []*Row {
	sample := sampleOf(rows)
	resolvedKeys := make([]FieldResolution, len(groupStep.Keys))
	for i, k := range groupStep.Keys {
		resolvedKeys[i] = Resolve(k, sample)
		for _, w := range resolvedKeys[i].Warnings {
			ex.warnf("groupBy: %s", w)
		}
	}

	type group struct {
		keyValues []Value
		rows      []*Row
	}
	var order []string
	groups := make(map[string]*group)

	for _, row := range rows {
		keyValues := make([]Value, len(resolvedKeys))
		var sb strings.Builder
		for i, rk := range resolvedKeys {
			v, _ := row.Get(rk.ResolvedField)
			keyValues[i] = v
			sb.WriteString(GroupKey(v))
			sb.WriteByte('\x1f')
		}
		key := sb.String()
		g, ok := groups[key]
		if !ok {
			g = &group{keyValues: keyValues}
			groups[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, row)
	}

	out := make([]*Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := NewRow()
		for i, rk := range resolvedKeys {
			row.Set(rk.OriginalField, g.keyValues[i])
		}
		for _, m := range aggStep.Metrics {
			row.Set(m.As, ex.computeMetric(m, g.rows))
		}
		out = append(out, row)
	}
	return out
}

// runAggregate without a preceding groupBy collapses the whole row set into a
// single row of metrics.
func (ex *executor) runAggregate(step PlanStep, rows []*Row) []*Row {
	row := NewRow()
	for _, m := range step.Metrics {
		row.Set(m.As, ex.computeMetric(m, rows))
	}
	return []*Row{row}
}

// computeMetric evaluates one metric over a group. Numeric metrics skip
// non-numeric and missing values instead of aborting; count counts every row.
func (ex *executor) computeMetric(m MetricSpec, rows []*Row) Value {
	if m.Fn == "count" {
		return float64(len(rows))
	}

	res := Resolve(m.Field, sampleOf(rows))
	var (
		sum   float64
		count int
		min   float64
		max   float64
	)
	for _, row := range rows {
		v, _ := row.Get(res.ResolvedField)
		n, ok := Numeric(v)
		if !ok {
			continue
		}
		if count == 0 {
			min, max = n, n
		} else {
			if n < min {
				min = n
			}
			if n > max {
				max = n
			}
		}
		sum += n
		count++
	}

	if count == 0 {
		return nil
	}
	switch m.Fn {
	case "sum":
		return sum
	case "avg":
		return sum / float64(count)
	case "min":
		return min
	case "max":
		return max
	}
	return nil
}
