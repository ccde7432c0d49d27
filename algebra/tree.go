package algebra

import (
	"encoding/json"
	"fmt"
	"maps"
	"math/big"
	"slices"
)

// maxExpandPower bounds the integer powers Expand multiplies out.
const maxExpandPower = 16

// ============================================================
// Traversal
// ============================================================

func children(e Expr) []Expr {
	switch v := e.(type) {
	case *Add:
		return v.terms
	case *Mul:
		return v.factors
	case *Pow:
		return []Expr{v.base, v.exp}
	}
	return nil
}

// walk calls visit on e and then on each of its subexpressions.
func walk(e Expr, visit func(Expr)) {
	visit(e)
	for _, c := range children(e) {
		walk(c, visit)
	}
}

func FreeSymbols(e Expr) map[string]struct{} {
	set := map[string]struct{}{}
	walk(e, func(n Expr) {
		if s, ok := n.(*Sym); ok {
			set[s.name] = struct{}{}
		}
	})
	return set
}

// SortedSymbols returns the free symbols of e in lexical order.
func SortedSymbols(e Expr) []string {
	return slices.Sorted(maps.Keys(FreeSymbols(e)))
}

// ============================================================
// Expansion
// ============================================================

// Expand multiplies out products of sums and small non-negative integer
// powers of sums, then collects like terms.
func Expand(e Expr) Expr { return AddOf(summands(e)...) }

// summands returns the terms of e with every product distributed.
func summands(e Expr) []Expr {
	switch v := e.(type) {
	case *Add:
		var out []Expr
		for _, t := range v.terms {
			out = append(out, summands(t)...)
		}
		return out
	case *Mul:
		acc := []Expr{N(1)}
		for _, f := range v.factors {
			acc = distribute(acc, summands(f))
		}
		return acc
	case *Pow:
		if n, ok := v.exp.(*Num); ok {
			if k, ok := n.Int64(); ok && k >= 0 && k <= maxExpandPower {
				acc, base := []Expr{N(1)}, summands(v.base)
				for ; k > 0; k-- {
					acc = distribute(acc, base)
				}
				return acc
			}
		}
		return []Expr{PowOf(Expand(v.base), Expand(v.exp))}
	}
	return []Expr{e.Simplify()}
}

// distribute multiplies two sums given as term lists and combines like
// terms in the result.
func distribute(left, right []Expr) []Expr {
	out := make([]Expr, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			out = append(out, MulOf(l, r))
		}
	}
	if sum, ok := AddOf(out...).(*Add); ok {
		return sum.terms
	}
	return []Expr{AddOf(out...)}
}

// ============================================================
// Degree
// ============================================================

// Degree returns the polynomial degree of expr in varName, or -1 when expr
// is not a polynomial in it.
func Degree(expr Expr, varName string) int {
	rf, ok := toRatFunc(expr, varName)
	if !ok || rf.den.Degree() > 0 {
		return -1
	}
	if rf.num.IsZero() {
		return 0
	}
	return rf.num.Degree()
}

// ============================================================
// JSON trees
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// FromJSON rebuilds an expression tree from its ToJSON form without
// simplifying it, so the layout survives a round trip.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	n := jsonNode(data)
	typ, err := n.str("type")
	if err != nil {
		return nil, err
	}
	switch typ {
	case "num":
		val, err := n.str("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("num: invalid value %q", val)
		}
		return &Num{val: r}, nil
	case "sym":
		name, err := n.str("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil
	case "add":
		terms, err := n.list("terms")
		if err != nil {
			return nil, err
		}
		return &Add{terms: terms}, nil
	case "mul":
		factors, err := n.list("factors")
		if err != nil {
			return nil, err
		}
		return &Mul{factors: factors}, nil
	case "pow":
		base, err := n.child("base")
		if err != nil {
			return nil, err
		}
		exp, err := n.child("exp")
		if err != nil {
			return nil, err
		}
		return &Pow{base: base, exp: exp}, nil
	}
	return nil, fmt.Errorf("unknown expression type %q", typ)
}

type jsonNode map[string]interface{}

func (n jsonNode) kind() any { return n["type"] }

func (n jsonNode) str(field string) (string, error) {
	s, ok := n[field].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%v: %q must be a non-empty string", n.kind(), field)
	}
	return s, nil
}

func (n jsonNode) child(field string) (Expr, error) {
	m, ok := n[field].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%v: %q must be an object", n.kind(), field)
	}
	e, err := FromJSON(m)
	if err != nil {
		return nil, fmt.Errorf("%v.%s: %w", n.kind(), field, err)
	}
	return e, nil
}

func (n jsonNode) list(field string) ([]Expr, error) {
	raw, ok := n[field].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%v: %q must be an array", n.kind(), field)
	}
	out := make([]Expr, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%v: %s[%d] must be an object", n.kind(), field, i)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%v.%s[%d]: %w", n.kind(), field, i, err)
		}
		out[i] = e
	}
	return out, nil
}
