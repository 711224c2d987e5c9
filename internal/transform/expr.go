package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Expression mini-language used by compute steps and ternary conditions:
//
//	expr    := or [ "?" expr ":" expr ]
//	or      := and { "||" and }
//	and     := cmp { "&&" cmp }
//	cmp     := sum [ ("=="|"!="|">"|">="|"<"|"<=") sum ]
//	sum     := term { ("+"|"-") term }
//	term    := unary { ("*"|"/") unary }
//	unary   := [ "-" | "!" ] primary
//	primary := number | string | identifier | "(" expr ")"
//
// Parsing and evaluation are separate so each is testable on its own. Parse
// failures are structural (a plan bug); evaluation failures degrade to null.

type exprKind int

const (
	exprLiteral exprKind = iota
	exprField
	exprBinary
	exprUnary
	exprTernary
)

// Expr is a parsed expression AST node.
type Expr struct {
	Kind    exprKind
	Literal Value  // exprLiteral
	Field   string // exprField
	Op      string // exprBinary, exprUnary
	Left    *Expr
	Right   *Expr
	Cond    *Expr // exprTernary condition; Left/Right are the branches
}

// --- tokenizer ---

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokIdent
	tokOp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lexExpr(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNumber, string(runes[start:i]), start})
		case r == '\'' || r == '"':
			quote := r
			i++
			start := i
			for i < len(runes) && runes[i] != quote {
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated string at offset %d", start-1)
			}
			toks = append(toks, token{tokString, string(runes[start:i]), start})
			i++
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, token{tokIdent, string(runes[start:i]), start})
		default:
			two := ""
			if i+1 < len(runes) {
				two = string(runes[i : i+2])
			}
			switch two {
			case "==", "!=", ">=", "<=", "&&", "||":
				toks = append(toks, token{tokOp, two, i})
				i += 2
				continue
			}
			switch r {
			case '+', '-', '*', '/', '(', ')', '?', ':', '>', '<', '!':
				toks = append(toks, token{tokOp, string(r), i})
				i++
			default:
				return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
			}
		}
	}
	toks = append(toks, token{tokEOF, "", len(runes)})
	return toks, nil
}

// --- parser ---

type exprParser struct {
	toks []token
	pos  int
}

// ParseExpr parses an expression string into an AST.
func ParseExpr(src string) (*Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	toks, err := lexExpr(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	p := &exprParser{toks: toks}
	e, err := p.parseTernary()
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("parse %q: unexpected %q at offset %d", src, p.peek().text, p.peek().pos)
	}
	return e, nil
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) acceptOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.next()
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) parseTernary() (*Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, ok := p.acceptOp("?"); !ok {
		return cond, nil
	}
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.acceptOp(":"); !ok {
		return nil, fmt.Errorf("expected ':' in ternary at offset %d", p.peek().pos)
	}
	otherwise, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: exprTernary, Cond: cond, Left: then, Right: otherwise}, nil
}

func (p *exprParser) parseOr() (*Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: exprBinary, Op: "||", Left: left, Right: right}
	}
}

func (p *exprParser) parseAnd() (*Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("&&"); !ok {
			return left, nil
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: exprBinary, Op: "&&", Left: left, Right: right}
	}
}

func (p *exprParser) parseComparison() (*Expr, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("==", "!=", ">=", "<=", ">", "<")
	if !ok {
		return left, nil
	}
	right, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: exprBinary, Op: op, Left: left, Right: right}, nil
}

func (p *exprParser) parseSum() (*Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: exprBinary, Op: op, Left: left, Right: right}
	}
}

func (p *exprParser) parseTerm() (*Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: exprBinary, Op: op, Left: left, Right: right}
	}
}

func (p *exprParser) parseUnary() (*Expr, error) {
	if op, ok := p.acceptOp("-", "!"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: exprUnary, Op: op, Left: operand}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (*Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q at offset %d", t.text, t.pos)
		}
		return &Expr{Kind: exprLiteral, Literal: f}, nil
	case tokString:
		p.next()
		return &Expr{Kind: exprLiteral, Literal: t.text}, nil
	case tokIdent:
		p.next()
		switch t.text {
		case "true":
			return &Expr{Kind: exprLiteral, Literal: true}, nil
		case "false":
			return &Expr{Kind: exprLiteral, Literal: false}, nil
		case "null":
			return &Expr{Kind: exprLiteral, Literal: nil}, nil
		}
		return &Expr{Kind: exprField, Field: t.text}, nil
	case tokOp:
		if t.text == "(" {
			p.next()
			e, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptOp(")"); !ok {
				return nil, fmt.Errorf("expected ')' at offset %d", p.peek().pos)
			}
			return e, nil
		}
	}
	return nil, fmt.Errorf("unexpected %q at offset %d", t.text, t.pos)
}

// --- interpreter ---

// errEvalNull marks per-row evaluation problems (missing operand, division by
// zero). Callers turn it into a JSON null, never into an aborted batch.
var errEvalNull = fmt.Errorf("evaluation yields null")

// EvalExpr evaluates a parsed expression against a row. Field references are
// resolved with the row itself as the sample, so a multilingual reference works
// per row. Evaluation problems return (nil, false), meaning JSON null.
func EvalExpr(e *Expr, row *Row) (Value, bool) {
	v, err := evalExpr(e, row)
	if err != nil {
		return nil, false
	}
	return v, true
}

func evalExpr(e *Expr, row *Row) (Value, error) {
	switch e.Kind {
	case exprLiteral:
		return e.Literal, nil
	case exprField:
		res := Resolve(e.Field, row)
		if !res.WasResolved {
			return nil, errEvalNull
		}
		v, _ := row.Get(res.ResolvedField)
		return v, nil
	case exprUnary:
		operand, err := evalExpr(e.Left, row)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case "-":
			n, ok := Numeric(operand)
			if !ok {
				return nil, errEvalNull
			}
			return -n, nil
		case "!":
			return !Truthy(operand), nil
		}
		return nil, errEvalNull
	case exprTernary:
		cond, err := evalExpr(e.Cond, row)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return evalExpr(e.Left, row)
		}
		return evalExpr(e.Right, row)
	case exprBinary:
		return evalBinary(e, row)
	}
	return nil, errEvalNull
}

func evalBinary(e *Expr, row *Row) (Value, error) {
	switch e.Op {
	case "&&":
		left, err := evalExpr(e.Left, row)
		if err != nil {
			return nil, err
		}
		if !Truthy(left) {
			return false, nil
		}
		right, err := evalExpr(e.Right, row)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	case "||":
		left, err := evalExpr(e.Left, row)
		if err != nil {
			return nil, err
		}
		if Truthy(left) {
			return true, nil
		}
		right, err := evalExpr(e.Right, row)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	left, err := evalExpr(e.Left, row)
	if err != nil {
		return nil, err
	}
	right, err := evalExpr(e.Right, row)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "+", "-", "*", "/":
		ln, lok := Numeric(left)
		rn, rok := Numeric(right)
		if !lok || !rok {
			return nil, errEvalNull
		}
		switch e.Op {
		case "+":
			return ln + rn, nil
		case "-":
			return ln - rn, nil
		case "*":
			return ln * rn, nil
		case "/":
			if rn == 0 {
				return nil, errEvalNull
			}
			return ln / rn, nil
		}
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	case ">", ">=", "<", "<=":
		cmp, ok := compareValues(left, right)
		if !ok {
			return nil, errEvalNull
		}
		switch e.Op {
		case ">":
			return cmp > 0, nil
		case ">=":
			return cmp >= 0, nil
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		}
	}
	return nil, errEvalNull
}

// Truthy follows the usual scripting convention: false, null, zero and the
// empty string are falsy, everything else is truthy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// looseEqual compares numerically when both sides coerce to numbers, exactly
// otherwise.
func looseEqual(a, b Value) bool {
	an, aok := Numeric(a)
	bn, bok := Numeric(b)
	if aok && bok {
		return an == bn
	}
	return ValueEqual(a, b)
}

// compareValues orders two values: numerically when both sides coerce, by
// string otherwise. Mixed or non-comparable operands report !ok.
func compareValues(a, b Value) (int, bool) {
	an, aok := Numeric(a)
	bn, bok := Numeric(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

// sortLess orders values for the sort step: numbers first by value, then
// strings, then booleans. Nulls and non-comparable values are handled by the
// executor, which always pushes them last.
func sortLess(a, b Value) (less bool, comparable bool) {
	cmp, ok := compareValues(a, b)
	if ok {
		return cmp < 0, true
	}
	ab, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return !ab && bb, true
	}
	return false, false
}

// isWholeNumber reports whether a float carries an integral value.
func isWholeNumber(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f)
}
