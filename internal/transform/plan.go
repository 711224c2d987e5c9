package transform

import (
	"encoding/json"
	"fmt"
)

// PlanVersion is stamped on every plan this package synthesizes.
const PlanVersion = "1.0"

// Plan is the central artifact: a declarative, replayable description of a row
// pipeline. Same plan + same input always produces the same output.
type Plan struct {
	PlanVersion string     `json:"planVersion"`
	Source      PlanInput  `json:"source"`
	Steps       []PlanStep `json:"steps"`
}

// PlanInput names where the records live inside the source document.
type PlanInput struct {
	RecordPath string `json:"recordPath"`
}

// Step operation tags.
const (
	OpSelect    = "select"
	OpFilter    = "filter"
	OpCompute   = "compute"
	OpSort      = "sort"
	OpGroupBy   = "groupBy"
	OpAggregate = "aggregate"
	OpLimit     = "limit"
)

// PlanStep is a tagged union over the operation kind; Op decides which of the
// other fields are meaningful.
type PlanStep struct {
	Op string `json:"op"`

	Fields  []FieldSpec   `json:"fields,omitempty"`  // select
	Where   *Condition    `json:"where,omitempty"`   // filter
	Compute []ComputeSpec `json:"compute,omitempty"` // compute
	By      string        `json:"by,omitempty"`      // sort
	Dir     string        `json:"dir,omitempty"`     // sort: asc|desc
	Keys    []string      `json:"keys,omitempty"`    // groupBy
	Metrics []MetricSpec  `json:"metrics,omitempty"` // aggregate
	N       int           `json:"n,omitempty"`       // limit
}

// FieldSpec selects a source field under an output name.
type FieldSpec struct {
	From string `json:"from"`
	As   string `json:"as"`
}

// ComputeSpec adds a computed field from an expression.
type ComputeSpec struct {
	As   string `json:"as"`
	Expr string `json:"expr"`
}

// MetricSpec is one aggregate output. Field is omitted for count.
type MetricSpec struct {
	As    string `json:"as"`
	Fn    string `json:"fn"` // sum|count|avg|min|max
	Field string `json:"field,omitempty"`
}

// Condition ops.
const (
	CondEq  = "eq"
	CondNeq = "neq"
	CondGt  = "gt"
	CondGte = "gte"
	CondLt  = "lt"
	CondLte = "lte"
	CondAnd = "and"
	CondOr  = "or"
	CondNot = "not"
)

// Condition is a small expression tree: a comparison over two operands, or a
// boolean composition of sub-conditions.
type Condition struct {
	Op    string       `json:"op"`
	Left  *Operand     `json:"left,omitempty"`
	Right *Operand     `json:"right,omitempty"`
	Conds []*Condition `json:"conds,omitempty"` // and / or
	Cond  *Condition   `json:"cond,omitempty"`  // not
}

// Operand is either a field reference or a literal. A literal null is distinct
// from an absent value, so decoding tracks key presence explicitly.
type Operand struct {
	Field string
	Value Value

	isLiteral bool
}

// FieldOperand builds a field-reference operand.
func FieldOperand(name string) *Operand {
	return &Operand{Field: name}
}

// LiteralOperand builds a literal operand.
func LiteralOperand(v Value) *Operand {
	return &Operand{Value: v, isLiteral: true}
}

// IsLiteral reports whether the operand carries a literal value.
func (o *Operand) IsLiteral() bool {
	return o.isLiteral
}

func (o *Operand) MarshalJSON() ([]byte, error) {
	if o.isLiteral {
		raw, err := EncodeValue(o.Value)
		if err != nil {
			return nil, err
		}
		return []byte(fmt.Sprintf(`{"value":%s}`, raw)), nil
	}
	return json.Marshal(map[string]string{"field": o.Field})
}

func (o *Operand) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("operand must be an object: %w", err)
	}
	if f, ok := raw["field"]; ok {
		if err := json.Unmarshal(f, &o.Field); err != nil {
			return fmt.Errorf("operand field must be a string: %w", err)
		}
		o.isLiteral = false
		return nil
	}
	if v, ok := raw["value"]; ok {
		val, err := ParseDocument(v)
		if err != nil {
			return err
		}
		o.Value = val
		o.isLiteral = true
		return nil
	}
	return fmt.Errorf(`operand needs "field" or "value"`)
}

// ParsePlan decodes and structurally validates a plan from JSON.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("InvalidPlan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate fails fast on any structural problem: unknown ops, missing required
// step fields, unparseable compute expressions, or a groupBy not immediately
// followed by aggregate. Data-content problems are not its concern.
func (p *Plan) Validate() error {
	if p.PlanVersion == "" {
		return fmt.Errorf("InvalidPlan: planVersion is required")
	}
	for i, step := range p.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("InvalidPlan: step %d (%s): %w", i, step.Op, err)
		}
		if step.Op == OpGroupBy {
			if i+1 >= len(p.Steps) || p.Steps[i+1].Op != OpAggregate {
				return fmt.Errorf("InvalidPlan: step %d: groupBy must be immediately followed by aggregate", i)
			}
		}
	}
	return nil
}

func (s *PlanStep) validate() error {
	switch s.Op {
	case OpSelect:
		if len(s.Fields) == 0 {
			return fmt.Errorf("select needs at least one field")
		}
		for _, f := range s.Fields {
			if f.From == "" || f.As == "" {
				return fmt.Errorf("select field needs both from and as")
			}
		}
	case OpFilter:
		if s.Where == nil {
			return fmt.Errorf("filter needs a where condition")
		}
		if err := s.Where.validate(); err != nil {
			return err
		}
	case OpCompute:
		if len(s.Compute) == 0 {
			return fmt.Errorf("compute needs at least one spec")
		}
		for _, c := range s.Compute {
			if c.As == "" {
				return fmt.Errorf("compute spec needs an output name")
			}
			if _, err := ParseExpr(c.Expr); err != nil {
				return err
			}
		}
	case OpSort:
		if s.By == "" {
			return fmt.Errorf("sort needs a field")
		}
		if s.Dir != "" && s.Dir != "asc" && s.Dir != "desc" {
			return fmt.Errorf("sort dir must be asc or desc, got %q", s.Dir)
		}
	case OpGroupBy:
		if len(s.Keys) == 0 {
			return fmt.Errorf("groupBy needs at least one key")
		}
	case OpAggregate:
		if len(s.Metrics) == 0 {
			return fmt.Errorf("aggregate needs at least one metric")
		}
		for _, m := range s.Metrics {
			if m.As == "" {
				return fmt.Errorf("metric needs an output name")
			}
			switch m.Fn {
			case "count":
			case "sum", "avg", "min", "max":
				if m.Field == "" {
					return fmt.Errorf("metric %s needs a field", m.Fn)
				}
			default:
				return fmt.Errorf("unknown metric fn %q", m.Fn)
			}
		}
	case OpLimit:
		if s.N < 0 {
			return fmt.Errorf("limit must be non-negative, got %d", s.N)
		}
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

func (c *Condition) validate() error {
	switch c.Op {
	case CondEq, CondNeq, CondGt, CondGte, CondLt, CondLte:
		if c.Left == nil || c.Right == nil {
			return fmt.Errorf("comparison %s needs left and right operands", c.Op)
		}
	case CondAnd, CondOr:
		if len(c.Conds) == 0 {
			return fmt.Errorf("%s needs sub-conditions", c.Op)
		}
		for _, sub := range c.Conds {
			if err := sub.validate(); err != nil {
				return err
			}
		}
	case CondNot:
		if c.Cond == nil {
			return fmt.Errorf("not needs a sub-condition")
		}
		return c.Cond.validate()
	default:
		return fmt.Errorf("unknown condition op %q", c.Op)
	}
	return nil
}
