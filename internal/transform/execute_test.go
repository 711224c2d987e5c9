package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsDoc = `{
  "products": [
    {"name": "mouse", "price": 10, "category": "peripherals"},
    {"name": "keyboard", "price": 30, "category": "peripherals"},
    {"name": "headset", "price": 20, "category": "audio"},
    {"name": "monitor", "price": 40, "category": "displays"}
  ]
}`

func productsPlan(steps ...PlanStep) *Plan {
	return &Plan{
		PlanVersion: PlanVersion,
		Source:      PlanInput{RecordPath: "/products"},
		Steps:       steps,
	}
}

func fieldValue(t *testing.T, row *Row, name string) Value {
	t.Helper()
	v, ok := row.Get(name)
	require.True(t, ok, "field %q missing", name)
	return v
}

func TestExecute_SelectPurity(t *testing.T) {
	t.Parallel()

	plan := productsPlan(PlanStep{Op: OpSelect, Fields: []FieldSpec{
		{From: "price", As: "cost"},
		{From: "name", As: "product"},
	}})
	res, err := Execute(plan, mustParse(t, productsDoc))
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)

	for _, row := range res.Rows {
		// Exactly the requested names, in request order; everything else dropped.
		assert.Equal(t, []string{"cost", "product"}, row.Keys())
	}
	assert.Equal(t, 10.0, fieldValue(t, res.Rows[0], "cost"))
	assert.Equal(t, "mouse", fieldValue(t, res.Rows[0], "product"))
}

func TestExecute_SelectUnresolvedFieldYieldsNull(t *testing.T) {
	t.Parallel()

	plan := productsPlan(PlanStep{Op: OpSelect, Fields: []FieldSpec{
		{From: "name", As: "name"},
		{From: "weight", As: "weight"},
	}})
	res, err := Execute(plan, mustParse(t, productsDoc))
	require.NoError(t, err)

	assert.Nil(t, fieldValue(t, res.Rows[0], "weight"))
	assert.NotEmpty(t, res.Warnings)
}

func TestExecute_FilterSortLimitComposition(t *testing.T) {
	t.Parallel()

	plan := productsPlan(
		PlanStep{Op: OpSelect, Fields: []FieldSpec{
			{From: "name", As: "name"},
			{From: "price", As: "price"},
		}},
		PlanStep{Op: OpFilter, Where: &Condition{
			Op:    CondGte,
			Left:  FieldOperand("price"),
			Right: LiteralOperand(20.0),
		}},
		PlanStep{Op: OpSort, By: "price", Dir: "asc"},
		PlanStep{Op: OpLimit, N: 2},
	)
	res, err := Execute(plan, mustParse(t, productsDoc))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, 20.0, fieldValue(t, res.Rows[0], "price"))
	assert.Equal(t, 30.0, fieldValue(t, res.Rows[1], "price"))
}

func TestExecute_AggregateCorrectness(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `[
		{"category":"A","value":10},
		{"category":"A","value":20},
		{"category":"B","value":5}
	]`)
	plan := &Plan{
		PlanVersion: PlanVersion,
		Source:      PlanInput{RecordPath: ""},
		Steps: []PlanStep{
			{Op: OpGroupBy, Keys: []string{"category"}},
			{Op: OpAggregate, Metrics: []MetricSpec{
				{As: "total", Fn: "sum", Field: "value"},
				{As: "n", Fn: "count"},
			}},
		},
	}
	res, err := Execute(plan, doc)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	// Groups keep first-appearance order.
	assert.Equal(t, "A", fieldValue(t, res.Rows[0], "category"))
	assert.Equal(t, 30.0, fieldValue(t, res.Rows[0], "total"))
	assert.Equal(t, 2.0, fieldValue(t, res.Rows[0], "n"))

	assert.Equal(t, "B", fieldValue(t, res.Rows[1], "category"))
	assert.Equal(t, 5.0, fieldValue(t, res.Rows[1], "total"))
	assert.Equal(t, 1.0, fieldValue(t, res.Rows[1], "n"))
}

func TestExecute_AggregateWithoutGroupByCollapsesToOneRow(t *testing.T) {
	t.Parallel()

	plan := productsPlan(PlanStep{Op: OpAggregate, Metrics: []MetricSpec{
		{As: "total", Fn: "sum", Field: "price"},
		{As: "cheapest", Fn: "min", Field: "price"},
		{As: "priciest", Fn: "max", Field: "price"},
		{As: "mean", Fn: "avg", Field: "price"},
		{As: "n", Fn: "count"},
	}})
	res, err := Execute(plan, mustParse(t, productsDoc))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Equal(t, 100.0, fieldValue(t, row, "total"))
	assert.Equal(t, 10.0, fieldValue(t, row, "cheapest"))
	assert.Equal(t, 40.0, fieldValue(t, row, "priciest"))
	assert.Equal(t, 25.0, fieldValue(t, row, "mean"))
	assert.Equal(t, 4.0, fieldValue(t, row, "n"))
}

func TestExecute_AggregateIgnoresNonNumericValues(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `[
		{"g":"x","v":10},
		{"g":"x","v":"not a number"},
		{"g":"x"},
		{"g":"x","v":20}
	]`)
	plan := &Plan{
		PlanVersion: PlanVersion,
		Source:      PlanInput{RecordPath: ""},
		Steps: []PlanStep{
			{Op: OpGroupBy, Keys: []string{"g"}},
			{Op: OpAggregate, Metrics: []MetricSpec{
				{As: "total", Fn: "sum", Field: "v"},
				{As: "n", Fn: "count"},
			}},
		},
	}
	res, err := Execute(plan, doc)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	assert.Equal(t, 30.0, fieldValue(t, res.Rows[0], "total"))
	// count counts rows regardless of field presence.
	assert.Equal(t, 4.0, fieldValue(t, res.Rows[0], "n"))
}

func TestExecute_ComputeAddsField(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `[{"price":10,"quantity":3},{"price":5,"quantity":"oops"}]`)
	plan := &Plan{
		PlanVersion: PlanVersion,
		Source:      PlanInput{RecordPath: ""},
		Steps: []PlanStep{
			{Op: OpCompute, Compute: []ComputeSpec{{As: "revenue", Expr: "price * quantity"}}},
		},
	}
	res, err := Execute(plan, doc)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, 30.0, fieldValue(t, res.Rows[0], "revenue"))
	// Bad operand degrades to null for that row only.
	assert.Nil(t, fieldValue(t, res.Rows[1], "revenue"))
	assert.NotEmpty(t, res.Warnings)
}

func TestExecute_FilterDropsRowsWithUnresolvableOperands(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `[{"price":10},{"cost":99},{"price":30}]`)
	plan := &Plan{
		PlanVersion: PlanVersion,
		Source:      PlanInput{RecordPath: ""},
		Steps: []PlanStep{
			{Op: OpFilter, Where: &Condition{
				Op:    CondGt,
				Left:  FieldOperand("price"),
				Right: LiteralOperand(5.0),
			}},
		},
	}
	res, err := Execute(plan, doc)
	require.NoError(t, err)
	// The row without a price field fails closed.
	require.Len(t, res.Rows, 2)
}

func TestExecute_SortPutsNullsLastBothDirections(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `[{"v":3},{"x":1},{"v":1},{"v":2}]`)
	for _, dir := range []string{"asc", "desc"} {
		plan := &Plan{
			PlanVersion: PlanVersion,
			Source:      PlanInput{RecordPath: ""},
			Steps:       []PlanStep{{Op: OpSort, By: "v", Dir: dir}},
		}
		res, err := Execute(plan, doc)
		require.NoError(t, err)
		require.Len(t, res.Rows, 4)
		_, hasV := res.Rows[3].Get("v")
		assert.False(t, hasV, "dir=%s: row without sort field must land last", dir)
	}
}

func TestExecute_SortPutsNonOrderableValuesLast(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `[{"v":{"nested":1}},{"v":3},{"v":[1,2]},{"v":1},{"v":2}]`)
	for _, dir := range []string{"asc", "desc"} {
		plan := &Plan{
			PlanVersion: PlanVersion,
			Source:      PlanInput{RecordPath: ""},
			Steps:       []PlanStep{{Op: OpSort, By: "v", Dir: dir}},
		}
		res, err := Execute(plan, doc)
		require.NoError(t, err)
		require.Len(t, res.Rows, 5)

		want := []float64{1, 2, 3}
		if dir == "desc" {
			want = []float64{3, 2, 1}
		}
		for i, n := range want {
			assert.Equal(t, n, fieldValue(t, res.Rows[i], "v"), "dir=%s", dir)
		}
		// Object and array rows land after every scalar, keeping document order.
		_, isRow := fieldValue(t, res.Rows[3], "v").(*Row)
		assert.True(t, isRow, "dir=%s: object row must sort after scalars", dir)
		_, isArr := fieldValue(t, res.Rows[4], "v").([]Value)
		assert.True(t, isArr, "dir=%s: array row must sort after the object row", dir)
	}
}

func TestExecute_BooleanConditionComposition(t *testing.T) {
	t.Parallel()

	plan := productsPlan(PlanStep{Op: OpFilter, Where: &Condition{
		Op: CondAnd,
		Conds: []*Condition{
			{Op: CondGte, Left: FieldOperand("price"), Right: LiteralOperand(20.0)},
			{Op: CondNot, Cond: &Condition{
				Op: CondEq, Left: FieldOperand("category"), Right: LiteralOperand("displays"),
			}},
		},
	}})
	res, err := Execute(plan, mustParse(t, productsDoc))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2) // keyboard, headset
}

func TestExecute_FailsFastOnStructurallyInvalidPlans(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, productsDoc)
	tests := []struct {
		name string
		plan *Plan
	}{
		{"nil plan", nil},
		{"unknown op", productsPlan(PlanStep{Op: "explode"})},
		{"groupBy without aggregate", productsPlan(PlanStep{Op: OpGroupBy, Keys: []string{"category"}})},
		{"aggregate without metrics", productsPlan(PlanStep{Op: OpAggregate})},
		{"bad compute expression", productsPlan(PlanStep{Op: OpCompute, Compute: []ComputeSpec{{As: "x", Expr: "price *"}}})},
		{"negative limit", productsPlan(PlanStep{Op: OpLimit, N: -1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(tt.plan, doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "InvalidPlan")
		})
	}
}

func TestExecute_EmptyRecordSetSucceeds(t *testing.T) {
	t.Parallel()

	plan := productsPlan(PlanStep{Op: OpSelect, Fields: []FieldSpec{{From: "name", As: "name"}}})
	res, err := Execute(plan, mustParse(t, `{"products":[]}`))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows)
}

func TestExecute_SamePlanSameInputSameOutput(t *testing.T) {
	t.Parallel()

	plan := productsPlan(
		PlanStep{Op: OpFilter, Where: &Condition{Op: CondGt, Left: FieldOperand("price"), Right: LiteralOperand(10.0)}},
		PlanStep{Op: OpSort, By: "price", Dir: "desc"},
	)
	doc := mustParse(t, productsDoc)

	first, err := Execute(plan, doc)
	require.NoError(t, err)
	second, err := Execute(plan, doc)
	require.NoError(t, err)

	require.Len(t, second.Rows, len(first.Rows))
	for i := range first.Rows {
		assert.True(t, ValueEqual(first.Rows[i], second.Rows[i]))
	}
}
