// Package algebra is the exact symbolic kernel behind problem generation.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat), never floating point
//   - Deterministic simplification and stable output
//   - Parse trees that print back in the layout they were written in
//   - Solving that fails softly: no panics on degenerate input
package algebra

import (
	"fmt"
	"maps"
	"math/big"
	"slices"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	toJSON() map[string]interface{}
}

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("algebra: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == 1 }
func (n *Num) IsNegOne() bool        { return n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == -1 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

// Int64 returns the value when it is an integer that fits in an int64.
func (n *Num) Int64() (int64, bool) {
	if !n.val.IsInt() || !n.val.Num().IsInt64() {
		return 0, false
	}
	return n.val.Num().Int64(), true
}

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) LaTeX() string  { return s.name }
func (s *Sym) Eval() (*Num, bool) {
	return nil, false
}
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	constant := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	for _, t := range flat {
		c, rest := splitCoeff(t)
		if rest == nil {
			constant = numAdd(constant, c)
			continue
		}
		key := rest.String()
		if prev, ok := coeffs[key]; ok {
			coeffs[key] = numAdd(prev, c)
			continue
		}
		coeffs[key] = c
		rests[key] = rest
	}
	result := []Expr{}
	for _, k := range slices.Sorted(maps.Keys(coeffs)) {
		c := coeffs[k]
		switch {
		case c.IsZero():
		case c.IsOne():
			result = append(result, rests[k])
		default:
			result = append(result, MulOf(c, rests[k]))
		}
	}
	if !constant.IsZero() {
		result = append(result, constant)
	}
	switch len(result) {
	case 0:
		return N(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

// splitCoeff splits a simplified term into its numeric coefficient and the
// rest; rest is nil for a plain number.
func splitCoeff(t Expr) (*Num, Expr) {
	switch v := t.(type) {
	case *Num:
		return v, nil
	case *Mul:
		c, ok := v.factors[0].(*Num)
		if !ok {
			return N(1), t
		}
		if len(v.factors) == 2 {
			return c, v.factors[1]
		}
		return c, &Mul{factors: v.factors[1:]}
	}
	return N(1), t
}

func (a *Add) String() string { return a.join(Expr.String, wrapString) }
func (a *Add) LaTeX() string  { return a.join(Expr.LaTeX, wrapLaTeX) }

// join prints the sum, turning "+ -t" into "- t".
func (a *Add) join(show func(Expr) string, wrap func(Expr) string) string {
	if len(a.terms) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, t := range a.terms {
		neg, mag := splitSign(t)
		switch {
		case neg && i == 0:
			sb.WriteString("-" + wrap(mag))
		case neg:
			sb.WriteString(" - " + wrap(mag))
		case i == 0:
			sb.WriteString(show(t))
		default:
			sb.WriteString(" + " + show(t))
		}
	}
	return sb.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalAll(a.terms, o.terms)
}

func (a *Add) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "add", "terms": listJSON(a.terms)}
}
func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	// Like bases with numeric exponents merge: x * x^2 -> x^3.
	coeff := N(1)
	bases := map[string]Expr{}
	exps := map[string]*Num{}
	others := []Expr{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := f, N(1)
		if p, ok := f.(*Pow); ok {
			e, isNum := p.exp.(*Num)
			if !isNum {
				others = append(others, f)
				continue
			}
			base, exp = p.base, e
		}
		key := base.String()
		if prev, ok := exps[key]; ok {
			exps[key] = numAdd(prev, exp)
			continue
		}
		bases[key] = base
		exps[key] = exp
	}
	for key, base := range bases {
		switch merged := PowOf(base, exps[key]).(type) {
		case *Num:
			coeff = numMul(coeff, merged)
		default:
			others = append(others, merged)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}

	slices.SortStableFunc(others, func(a, b Expr) int { return strings.Compare(a.String(), b.String()) })

	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func (m *Mul) String() string {
	if neg, mag := splitSign(m); neg {
		return "-" + wrapString(mag)
	}
	num, den := fraction(m.factors)
	if len(den) == 0 {
		return product(num, "*", Expr.String, wrapString)
	}
	d := product(den, "*", Expr.String, wrapString)
	if len(den) > 1 || needsParens(den[0]) {
		d = "(" + d + ")"
	}
	return product(num, "*", Expr.String, wrapString) + "/" + d
}

func (m *Mul) LaTeX() string {
	if neg, mag := splitSign(m); neg {
		return "-" + wrapLaTeX(mag)
	}
	num, den := fraction(m.factors)
	if len(den) == 0 {
		return product(num, " ", Expr.LaTeX, wrapLaTeX)
	}
	return "\\frac{" + fracPart(num) + "}{" + fracPart(den) + "}"
}

// fracPart prints one side of a fraction, wrapping a lone negative factor.
func fracPart(fs []Expr) string {
	if len(fs) == 1 {
		if _, sum := fs[0].(*Add); !sum {
			return wrapLaTeX(fs[0])
		}
	}
	return product(fs, " ", Expr.LaTeX, wrapLaTeX)
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalAll(m.factors, o.factors)
}

func (m *Mul) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "mul", "factors": listJSON(m.factors)}
}
func (m *Mul) Factors() []Expr { return m.factors }

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}
	if bn, ok := base.(*Num); ok && expIsNum {
		// 0^negative stays symbolic so that solving can report it.
		if r, ok := ratPow(bn.val, en.val); ok {
			return &Num{val: r}
		}
		return &Pow{base: base, exp: exp}
	}
	if inner, ok := base.(*Pow); ok && expIsNum && en.IsInteger() {
		if ie, ok := inner.exp.(*Num); ok && ie.IsInteger() {
			return PowOf(inner.base, numMul(ie, en))
		}
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	if needsParens(p.base) || isCompound(p.base) {
		baseStr = "(" + baseStr + ")"
	}
	expStr := p.exp.String()
	if needsParens(p.exp) || isCompound(p.exp) {
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	baseStr := p.base.LaTeX()
	if needsParens(p.base) || isCompound(p.base) {
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	r, ok := ratPow(b.val, e.val)
	if !ok {
		return nil, false
	}
	return &Num{val: r}, true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr     { return p.base }
func (p *Pow) Exponent() Expr { return p.exp }

// ============================================================
// Equation
// ============================================================

type Equation struct{ LHS, RHS Expr }

func Eq(lhs, rhs Expr) *Equation { return &Equation{LHS: lhs, RHS: rhs} }
func (e *Equation) String() string {
	return e.LHS.String() + " = " + e.RHS.String()
}
func (e *Equation) LaTeX() string { return e.LHS.LaTeX() + " = " + e.RHS.LaTeX() }

// Residual returns LHS - (RHS) as an unsimplified tree, so that
// Residual() = 0 holds exactly when the equation does.
func (e *Equation) Residual() Expr {
	return &Add{terms: []Expr{e.LHS, &Mul{factors: []Expr{N(-1), e.RHS}}}}
}

// ============================================================
// Printing helpers
// ============================================================

// splitSign reports whether e prints with a leading minus and returns what
// follows the sign.
func splitSign(e Expr) (bool, Expr) {
	switch v := e.(type) {
	case *Num:
		if v.IsNegative() {
			return true, numNeg(v)
		}
	case *Mul:
		if len(v.factors) == 0 {
			return false, e
		}
		c, ok := v.factors[0].(*Num)
		if !ok || !c.IsNegative() {
			return false, e
		}
		rest := v.factors[1:]
		if !c.IsNegOne() {
			return true, &Mul{factors: append([]Expr{numNeg(c)}, rest...)}
		}
		// A written -1 next to another number stays visible: -1 \cdot 2.
		if len(rest) > 0 {
			if n, ok := rest[0].(*Num); ok && !n.IsNegative() {
				return true, &Mul{factors: append([]Expr{N(1)}, rest...)}
			}
		}
		switch len(rest) {
		case 0:
			return true, N(1)
		case 1:
			return true, rest[0]
		}
		return true, &Mul{factors: rest}
	}
	return false, e
}

// fraction moves factors with a negative numeric exponent to the denominator.
func fraction(factors []Expr) (num, den []Expr) {
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if e, ok := p.exp.(*Num); ok && e.IsNegative() {
				if e.IsNegOne() {
					den = append(den, p.base)
				} else {
					den = append(den, &Pow{base: p.base, exp: numNeg(e)})
				}
				continue
			}
		}
		num = append(num, f)
	}
	return num, den
}

func product(fs []Expr, sep string, show, wrap func(Expr) string) string {
	switch len(fs) {
	case 0:
		return "1"
	case 1:
		return show(fs[0])
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = wrap(f)
	}
	if sep != " " {
		return strings.Join(parts, sep)
	}
	// Juxtaposed digits would read as one number.
	var sb strings.Builder
	sb.WriteString(parts[0])
	for _, s := range parts[1:] {
		if s[0] >= '0' && s[0] <= '9' {
			sb.WriteString(" \\cdot ")
		} else {
			sb.WriteString(" ")
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func needsParens(e Expr) bool {
	switch v := e.(type) {
	case *Add:
		return true
	case *Num:
		return v.IsNegative()
	case *Mul:
		neg, _ := splitSign(v)
		return neg
	}
	return false
}

func isCompound(e Expr) bool {
	switch v := e.(type) {
	case *Mul, *Pow:
		return true
	case *Num:
		return !v.IsInteger()
	}
	return false
}

func wrapString(e Expr) string {
	if needsParens(e) {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func wrapLaTeX(e Expr) string {
	if needsParens(e) {
		return "\\left(" + e.LaTeX() + "\\right)"
	}
	return e.LaTeX()
}

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func listJSON(es []Expr) []map[string]interface{} {
	out := make([]map[string]interface{}, len(es))
	for i, e := range es {
		out[i] = e.toJSON()
	}
	return out
}
