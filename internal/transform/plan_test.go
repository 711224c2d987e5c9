package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlanJSON = `{
  "planVersion": "1.0",
  "source": {"recordPath": "/products"},
  "steps": [
    {"op": "select", "fields": [{"from": "name", "as": "name"}, {"from": "price", "as": "price"}]},
    {"op": "filter", "where": {"op": "gte", "left": {"field": "price"}, "right": {"value": 20}}},
    {"op": "compute", "compute": [{"as": "tier", "expr": "price > 30 ? 'high' : 'low'"}]},
    {"op": "sort", "by": "price", "dir": "asc"},
    {"op": "limit", "n": 2}
  ]
}`

func TestParsePlan_RoundTrip(t *testing.T) {
	t.Parallel()

	plan, err := ParsePlan([]byte(samplePlanJSON))
	require.NoError(t, err)
	assert.Equal(t, "/products", plan.Source.RecordPath)
	require.Len(t, plan.Steps, 5)

	where := plan.Steps[1].Where
	require.NotNil(t, where)
	assert.Equal(t, CondGte, where.Op)
	assert.False(t, where.Left.IsLiteral())
	assert.Equal(t, "price", where.Left.Field)
	assert.True(t, where.Right.IsLiteral())
	assert.Equal(t, 20.0, where.Right.Value)

	// Re-encode and re-parse: the plan survives the round trip.
	encoded, err := json.Marshal(plan)
	require.NoError(t, err)
	again, err := ParsePlan(encoded)
	require.NoError(t, err)
	assert.Equal(t, plan.Steps[4].N, again.Steps[4].N)
	assert.Equal(t, plan.Steps[0].Fields, again.Steps[0].Fields)
}

func TestOperand_LiteralNullIsDistinctFromField(t *testing.T) {
	t.Parallel()

	var o Operand
	require.NoError(t, json.Unmarshal([]byte(`{"value":null}`), &o))
	assert.True(t, o.IsLiteral())
	assert.Nil(t, o.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"field":"price"}`), &o))
	assert.False(t, o.IsLiteral())

	require.Error(t, json.Unmarshal([]byte(`{}`), &o))
}

func TestPlanValidate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		plan Plan
	}{
		{"missing version", Plan{}},
		{"select without fields", Plan{PlanVersion: "1.0", Steps: []PlanStep{{Op: OpSelect}}}},
		{"filter without where", Plan{PlanVersion: "1.0", Steps: []PlanStep{{Op: OpFilter}}}},
		{"sort without field", Plan{PlanVersion: "1.0", Steps: []PlanStep{{Op: OpSort}}}},
		{"bad sort dir", Plan{PlanVersion: "1.0", Steps: []PlanStep{{Op: OpSort, By: "x", Dir: "sideways"}}}},
		{"metric without field", Plan{PlanVersion: "1.0", Steps: []PlanStep{{Op: OpAggregate, Metrics: []MetricSpec{{As: "s", Fn: "sum"}}}}}},
		{"unknown metric fn", Plan{PlanVersion: "1.0", Steps: []PlanStep{{Op: OpAggregate, Metrics: []MetricSpec{{As: "s", Fn: "median", Field: "x"}}}}}},
		{"unknown condition op", Plan{PlanVersion: "1.0", Steps: []PlanStep{{Op: OpFilter, Where: &Condition{Op: "almost"}}}}},
		{"groupBy at end", Plan{PlanVersion: "1.0", Steps: []PlanStep{{Op: OpGroupBy, Keys: []string{"k"}}}}},
		{
			"groupBy followed by non-aggregate",
			Plan{PlanVersion: "1.0", Steps: []PlanStep{
				{Op: OpGroupBy, Keys: []string{"k"}},
				{Op: OpLimit, N: 1},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "InvalidPlan")
		})
	}
}

func TestPlanValidate_CountNeedsNoField(t *testing.T) {
	t.Parallel()

	plan := Plan{PlanVersion: "1.0", Steps: []PlanStep{
		{Op: OpAggregate, Metrics: []MetricSpec{{As: "n", Fn: "count"}}},
	}}
	require.NoError(t, plan.Validate())
}

func TestValidatePlanJSON_SchemaGate(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidatePlanJSON([]byte(samplePlanJSON)))

	bad := []string{
		`{"steps": []}`,                                                     // missing version/source
		`{"planVersion":"1.0","source":{"recordPath":""},"steps":[{"op":"teleport"}]}`, // unknown op
		`{"planVersion":"1.0","source":{"recordPath":""},"steps":[{"op":"limit","n":-3}]}`,
	}
	for _, src := range bad {
		assert.Error(t, ValidatePlanJSON([]byte(src)), "payload %s", src)
	}
}

func TestParseExternalPlan_ExecutesEndToEnd(t *testing.T) {
	t.Parallel()

	plan, err := ParseExternalPlan([]byte(samplePlanJSON))
	require.NoError(t, err)

	res, err := Execute(plan, mustParse(t, productsDoc))
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "low", fieldValue(t, res.Rows[0], "tier"))
	assert.Equal(t, 20.0, fieldValue(t, res.Rows[0], "price"))
}
