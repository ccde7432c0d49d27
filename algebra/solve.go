package algebra

import (
	"math/big"
	"sort"
	"strconv"
)

// ============================================================
// Solvers
// ============================================================

// SolveResult holds the distinct real solutions in ascending order.
// Irrational counts the real roots that are not rational numbers and
// IrrationalPositive those of them that are greater than zero; neither set
// appears in Solutions. ExactForm is true when every real root is listed.
// Complex roots are not solutions and are never counted.
type SolveResult struct {
	Solutions          []*Num
	ExactForm          bool
	Irrational         int
	IrrationalPositive int
	Error              string
}

// Ints returns the solutions as int64 values; ok is false if any solution is
// not an integer in range.
func (r SolveResult) Ints() ([]int64, bool) {
	out := make([]int64, 0, len(r.Solutions))
	for _, s := range r.Solutions {
		v, ok := s.Int64()
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// SolveLinear solves a*x + b = 0.
func SolveLinear(a, b Expr) SolveResult {
	an, ok1 := a.Eval()
	bn, ok2 := b.Eval()
	if !ok1 || !ok2 {
		return SolveResult{Error: "linear solver requires numeric coefficients"}
	}
	if an.IsZero() {
		if bn.IsZero() {
			return SolveResult{Error: "identity (0 = 0): infinite solutions"}
		}
		return SolveResult{ExactForm: true, Error: "no solution"}
	}
	x := new(big.Rat).Quo(bn.val, an.val)
	return SolveResult{Solutions: []*Num{{val: x.Neg(x)}}, ExactForm: true}
}

// SolveQuadraticExact solves a*x^2 + b*x + c = 0 over the reals. Irrational
// roots are counted, not listed.
func SolveQuadraticExact(a, b, c Expr) SolveResult {
	an, ok1 := a.Eval()
	bn, ok2 := b.Eval()
	cn, ok3 := c.Eval()
	if !ok1 || !ok2 || !ok3 {
		return SolveResult{Error: "quadratic solver requires numeric coefficients"}
	}
	if an.IsZero() {
		return SolveLinear(b, c)
	}
	disc := new(big.Rat).Mul(bn.val, bn.val)
	fourAC := new(big.Rat).Mul(big.NewRat(4, 1), an.val)
	fourAC.Mul(fourAC, cn.val)
	disc.Sub(disc, fourAC)
	if disc.Sign() < 0 {
		return SolveResult{ExactForm: true, Error: "no real solution"}
	}
	sq, ok := ratRoot(disc, 2)
	if !ok {
		// Both roots are irrational and c != 0. Their product is c/a and
		// their sum -b/a.
		res := SolveResult{Irrational: 2, Error: "irrational roots"}
		product := new(big.Rat).Quo(cn.val, an.val)
		sum := new(big.Rat).Quo(bn.val, an.val)
		sum.Neg(sum)
		switch {
		case product.Sign() < 0:
			res.IrrationalPositive = 1
		case sum.Sign() > 0:
			res.IrrationalPositive = 2
		}
		return res
	}
	twoA := new(big.Rat).Mul(big.NewRat(2, 1), an.val)
	negB := new(big.Rat).Neg(bn.val)
	x1 := new(big.Rat).Sub(negB, sq)
	x1.Quo(x1, twoA)
	x2 := new(big.Rat).Add(negB, sq)
	x2.Quo(x2, twoA)
	roots := []*big.Rat{x1}
	if disc.Sign() != 0 {
		roots = append(roots, x2)
	}
	return SolveResult{Solutions: sortedNums(roots), ExactForm: true}
}

// SolveFor solves expr = 0 for varName over the reals. expr must mention no
// other symbol once its inputs are substituted. Failures are reported through
// Error and an empty, inexact result; SolveFor never panics on degenerate
// input.
func SolveFor(expr Expr, varName string) SolveResult {
	rf, ok := toRatFunc(expr, varName)
	if !ok {
		return SolveResult{Error: "expression is not a rational function of " + varName + " of degree at most " + strconv.Itoa(maxDegree)}
	}
	if rf.num.IsZero() {
		return SolveResult{Error: "identity (0 = 0): infinite solutions"}
	}
	rr := polyRoots(coprimeTo(rf.num, rf.den))
	kept := rr.rational[:0]
	for _, r := range rr.rational {
		if rf.den.EvalAt(r).Sign() != 0 {
			kept = append(kept, r)
		}
	}
	res := SolveResult{
		Solutions:          sortedNums(kept),
		ExactForm:          rr.irrational == 0,
		Irrational:         rr.irrational,
		IrrationalPositive: rr.irrationalPositive,
	}
	switch {
	case rr.irrational > 0:
		res.Error = "irrational roots"
	case len(res.Solutions) == 0:
		res.Error = "no real solution"
	}
	return res
}

// realRoots are the real roots of a polynomial: the rational ones and a count
// of the rest.
type realRoots struct {
	rational           []*big.Rat
	irrational         int
	irrationalPositive int
}

// polyRoots finds the rational roots of p and counts its other real roots.
func polyRoots(p Poly) realRoots {
	p = p.trim()
	var rr realRoots
	for p.Degree() > 0 && p[0].Sign() == 0 {
		rr.rational = append(rr.rational, new(big.Rat))
		p = p[1:]
	}
	for p.Degree() > 2 {
		r, ok := rationalRoot(p)
		if !ok {
			rr.irrational, rr.irrationalPositive = sturmCount(p)
			return rr
		}
		rr.rational = append(rr.rational, r)
		p = deflate(p, r)
	}
	var res SolveResult
	switch p.Degree() {
	case 2:
		res = SolveQuadraticExact(&Num{val: p[2]}, &Num{val: p[1]}, &Num{val: p[0]})
	case 1:
		res = SolveLinear(&Num{val: p[1]}, &Num{val: p[0]})
	default:
		return rr
	}
	for _, s := range res.Solutions {
		rr.rational = append(rr.rational, s.val)
	}
	rr.irrational, rr.irrationalPositive = res.Irrational, res.IrrationalPositive
	return rr
}

// sturmCount returns the number of distinct real roots of p and how many of
// them are positive. p(0) must not be zero.
func sturmCount(p Poly) (total, positive int) {
	seq := []Poly{p, p.derivative()}
	for {
		_, r := polyDivMod(seq[len(seq)-2], seq[len(seq)-1])
		if r.IsZero() {
			break
		}
		// Only signs matter, so -r is scaled to a unit leading coefficient.
		scale := new(big.Rat).Abs(r.lead())
		scale.Neg(scale.Inv(scale))
		next := make(Poly, len(r))
		for i, c := range r {
			next[i] = new(big.Rat).Mul(c, scale)
		}
		seq = append(seq, next)
	}
	atNegInf := make([]int, len(seq))
	atZero := make([]int, len(seq))
	atPosInf := make([]int, len(seq))
	for i, q := range seq {
		atPosInf[i] = q.lead().Sign()
		atNegInf[i] = atPosInf[i]
		if q.Degree()%2 == 1 {
			atNegInf[i] = -atNegInf[i]
		}
		atZero[i] = q[0].Sign()
	}
	return signChanges(atNegInf) - signChanges(atPosInf), signChanges(atZero) - signChanges(atPosInf)
}

func signChanges(signs []int) int {
	n, last := 0, 0
	for _, s := range signs {
		if s == 0 {
			continue
		}
		if last != 0 && s != last {
			n++
		}
		last = s
	}
	return n
}

// maxDivisorSearch bounds the integers factored by trial division.
const maxDivisorSearch = 1 << 40

// maxRootCandidates bounds the p/q pairs rationalRoot tries.
const maxRootCandidates = 1 << 16

// rationalRoot finds a root p/q of poly with p dividing the constant term and
// q dividing the leading coefficient. poly must have a nonzero constant term.
func rationalRoot(poly Poly) (*big.Rat, bool) {
	lcm := big.NewInt(1)
	for _, c := range poly {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	scale := new(big.Rat).SetInt(lcm)
	lead := new(big.Rat).Mul(poly[len(poly)-1], scale)
	constant := new(big.Rat).Mul(poly[0], scale)
	ps, ok := divisors(new(big.Int).Abs(constant.Num()))
	if !ok {
		return nil, false
	}
	qs, ok := divisors(new(big.Int).Abs(lead.Num()))
	if !ok || len(ps)*len(qs) > maxRootCandidates {
		return nil, false
	}
	for _, q := range qs {
		for _, p := range ps {
			for _, sign := range []int64{1, -1} {
				cand := big.NewRat(sign*p, q)
				if poly.EvalAt(cand).Sign() == 0 {
					return cand, true
				}
			}
		}
	}
	return nil, false
}

func divisors(n *big.Int) ([]int64, bool) {
	if !n.IsInt64() || n.Int64() > maxDivisorSearch || n.Sign() <= 0 {
		return nil, false
	}
	v := n.Int64()
	var small, large []int64
	for d := int64(1); d*d <= v; d++ {
		if v%d != 0 {
			continue
		}
		small = append(small, d)
		if d != v/d {
			large = append(large, v/d)
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small, true
}

// sortedNums sorts ascending and drops duplicates.
func sortedNums(rs []*big.Rat) []*Num {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Cmp(rs[j]) < 0 })
	out := make([]*Num, 0, len(rs))
	for i, r := range rs {
		if i > 0 && r.Cmp(rs[i-1]) == 0 {
			continue
		}
		out = append(out, NRat(r))
	}
	return out
}
