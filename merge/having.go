package merge

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vegasq/shardql/query"
)

// operatorRank binds HAVING operators from loosest to tightest. Parsed
// chains lean right with no precedence, so evaluation flattens a chain and
// re-associates it by rank.
var operatorRank = map[string]int{
	"OR":  1,
	"AND": 2,
	"=":   3, "!=": 3, "<>": 3, "<": 3, ">": 3, "<=": 3, ">=": 3, "<=>": 3, "LIKE": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
}

// having evaluates a HAVING condition against merged rows. Fields and
// aggregate calls read the shard column that carries them.
type having struct {
	cond    query.Node
	columns *query.ColumnList
}

// filterHaving keeps the rows the condition holds for
func (m *Merger) filterHaving(rows []Row) ([]Row, error) {
	if m.plan.having == nil {
		return rows, nil
	}

	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		v, err := m.plan.having.eval(m.plan.having.cond, row)
		if err != nil {
			return nil, fmt.Errorf("HAVING %s: %w", m.plan.having.cond, err)
		}
		if truthy(v) {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func (h *having) eval(n query.Node, row Row) (interface{}, error) {
	switch n := n.(type) {
	case *query.CompareExpr:
		var operands []query.Node
		var ops []string
		var cur query.Node = n
		for {
			c, ok := cur.(*query.CompareExpr)
			if !ok {
				break
			}
			operands = append(operands, c.Left)
			ops = append(ops, c.Op)
			cur = c.Right
		}
		operands = append(operands, cur)

		values := make([]interface{}, len(operands))
		for i, operand := range operands {
			v, err := h.eval(operand, row)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return reduce(values, ops)
	case *query.Value:
		return literal(n), nil
	case *query.Field:
		return row[trimQuotes(query.KeyFor(h.columns, n))], nil
	case *query.Function:
		if !n.Aggregate {
			return nil, fmt.Errorf("function %s is not supported after the merge", n.Name)
		}
		return row[trimQuotes(query.KeyFor(h.columns, n))], nil
	case *query.CaseExpr:
		return h.evalCase(n, row)
	}
	return nil, fmt.Errorf("%s is not supported after the merge", n)
}

func (h *having) evalCase(c *query.CaseExpr, row Row) (interface{}, error) {
	var subject interface{}
	if c.Subject != nil {
		v, err := h.eval(c.Subject, row)
		if err != nil {
			return nil, err
		}
		subject = v
	}
	for _, w := range c.Whens {
		cond, err := h.eval(w.Cond, row)
		if err != nil {
			return nil, err
		}
		matched := truthy(cond)
		if c.Subject != nil {
			matched = subject != nil && cond != nil && compareValues(subject, cond) == 0
		}
		if matched {
			return h.eval(w.Result, row)
		}
	}
	if c.Else != nil {
		return h.eval(c.Else, row)
	}
	return nil, nil
}

// reduce applies ops between values, tightest rank first and left to right
// within a rank.
func reduce(values []interface{}, ops []string) (interface{}, error) {
	for rank := 5; rank >= 1; rank-- {
		for i := 0; i < len(ops); {
			if operatorRank[ops[i]] != rank {
				i++
				continue
			}
			v, err := apply(ops[i], values[i], values[i+1])
			if err != nil {
				return nil, err
			}
			values = append(values[:i], append([]interface{}{v}, values[i+2:]...)...)
			ops = append(ops[:i], ops[i+1:]...)
		}
	}
	if len(ops) > 0 {
		return nil, fmt.Errorf("unsupported operator %s", ops[0])
	}
	return values[0], nil
}

func apply(op string, a, b interface{}) (interface{}, error) {
	switch op {
	case "AND":
		return truthy(a) && truthy(b), nil
	case "OR":
		return truthy(a) || truthy(b), nil
	case "<=>":
		if a == nil || b == nil {
			return a == nil && b == nil, nil
		}
		return compareValues(a, b) == 0, nil
	}

	// NULL on either side of anything else is unknown
	if a == nil || b == nil {
		return nil, nil
	}
	switch op {
	case "=":
		return compareValues(a, b) == 0, nil
	case "!=", "<>":
		return compareValues(a, b) != 0, nil
	case "<":
		return compareValues(a, b) < 0, nil
	case ">":
		return compareValues(a, b) > 0, nil
	case "<=":
		return compareValues(a, b) <= 0, nil
	case ">=":
		return compareValues(a, b) >= 0, nil
	case "LIKE":
		return like(a, b)
	case "+", "-", "*", "/", "%":
		return arithmetic(op, a, b)
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

func arithmetic(op string, a, b interface{}) (interface{}, error) {
	ai, aInt := toInt64(a)
	bi, bInt := toInt64(b)
	if aInt && bInt && op != "/" {
		switch op {
		case "+":
			return ai + bi, nil
		case "-":
			return ai - bi, nil
		case "*":
			return ai * bi, nil
		case "%":
			if bi == 0 {
				return nil, nil
			}
			return ai % bi, nil
		}
	}

	af, ok := toFloat64(a)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T to number", a)
	}
	bf, ok := toFloat64(b)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T to number", b)
	}
	switch op {
	case "+":
		return af + bf, nil
	case "-":
		return af - bf, nil
	case "*":
		return af * bf, nil
	}
	if bf == 0 {
		return nil, nil
	}
	if op == "%" {
		return math.Mod(af, bf), nil
	}
	return af / bf, nil
}

// like matches a against the pattern b, where % is any run and _ any one
// character. Matching is case-insensitive.
func like(a, b interface{}) (interface{}, error) {
	s, ok := toString(a)
	if !ok {
		s = fmt.Sprint(a)
	}
	pattern, ok := toString(b)
	if !ok {
		return nil, fmt.Errorf("LIKE pattern must be a string, got %T", b)
	}

	var expr strings.Builder
	expr.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			expr.WriteString(".*")
		case '_':
			expr.WriteString(".")
		default:
			expr.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, err
	}
	return re.MatchString(s), nil
}

func literal(v *query.Value) interface{} {
	switch v.Kind {
	case query.NullValue:
		return nil
	case query.NumberValue:
		if n, err := strconv.ParseInt(v.Text, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(v.Text, 64); err == nil {
			return f
		}
	}
	return v.Text
}

// truthy follows SQL: NULL and zero are false
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	}
	if f, ok := toFloat64(v); ok {
		return f != 0
	}
	return true
}
