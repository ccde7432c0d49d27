package algebra

import (
	"math/big"
)

// maxExponent bounds integer powers so that huge exponents fail instead of
// exhausting memory.
const maxExponent = 64

// maxDegree bounds the degree of every polynomial toRatFunc builds, so nested
// powers such as (x^64)^64 fail instead of being multiplied out.
const maxDegree = 64

// maxRatBits bounds the numerator and denominator size of exact powers.
const maxRatBits = 1 << 14

// ============================================================
// Poly: dense univariate polynomial
// ============================================================

// Poly holds coefficients in ascending order: p[i] multiplies x^i.
// The zero polynomial is the empty slice.
type Poly []*big.Rat

func polyConst(r *big.Rat) Poly { return Poly{new(big.Rat).Set(r)}.trim() }

func polyX() Poly { return Poly{new(big.Rat), big.NewRat(1, 1)} }

func (p Poly) trim() Poly {
	for len(p) > 0 && p[len(p)-1].Sign() == 0 {
		p = p[:len(p)-1]
	}
	return p
}

// Degree is -1 for the zero polynomial.
func (p Poly) Degree() int  { return len(p) - 1 }
func (p Poly) IsZero() bool { return len(p) == 0 }

func (p Poly) EvalAt(x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, p[i])
	}
	return acc
}

func polyAdd(a, b Poly) Poly {
	if len(a) < len(b) {
		a, b = b, a
	}
	out := make(Poly, len(a))
	for i := range a {
		out[i] = new(big.Rat).Set(a[i])
		if i < len(b) {
			out[i].Add(out[i], b[i])
		}
	}
	return out.trim()
}

func polyMul(a, b Poly) Poly {
	if a.IsZero() || b.IsZero() {
		return nil
	}
	out := make(Poly, len(a)+len(b)-1)
	for i := range out {
		out[i] = new(big.Rat)
	}
	tmp := new(big.Rat)
	for i, x := range a {
		for j, y := range b {
			out[i+j].Add(out[i+j], tmp.Mul(x, y))
		}
	}
	return out.trim()
}

func polyPow(a Poly, k int64) Poly {
	out := polyConst(big.NewRat(1, 1))
	for ; k > 0; k-- {
		out = polyMul(out, a)
	}
	return out
}

func (p Poly) lead() *big.Rat { return p[len(p)-1] }

// monic scales p so its leading coefficient is 1.
func (p Poly) monic() Poly {
	if p.IsZero() {
		return p
	}
	inv := new(big.Rat).Inv(p.lead())
	out := make(Poly, len(p))
	for i, c := range p {
		out[i] = new(big.Rat).Mul(c, inv)
	}
	return out
}

func (p Poly) derivative() Poly {
	if p.Degree() < 1 {
		return nil
	}
	out := make(Poly, p.Degree())
	for i := 1; i < len(p); i++ {
		out[i-1] = new(big.Rat).Mul(p[i], big.NewRat(int64(i), 1))
	}
	return out.trim()
}

// polyDivMod returns q and r with a = q*b + r and deg r < deg b.
// b must not be zero.
func polyDivMod(a, b Poly) (q, r Poly) {
	r = make(Poly, len(a))
	for i, c := range a {
		r[i] = new(big.Rat).Set(c)
	}
	r = r.trim()
	if len(r) < len(b) {
		return nil, r
	}
	q = make(Poly, len(r)-len(b)+1)
	for i := range q {
		q[i] = new(big.Rat)
	}
	tmp := new(big.Rat)
	for len(r) >= len(b) {
		shift := len(r) - len(b)
		c := new(big.Rat).Quo(r.lead(), b.lead())
		q[shift] = c
		for i, bc := range b {
			r[i+shift].Sub(r[i+shift], tmp.Mul(c, bc))
		}
		r = r.trim()
	}
	return q.trim(), r
}

// polyGCD returns the monic greatest common divisor of a and b.
func polyGCD(a, b Poly) Poly {
	for !b.IsZero() {
		_, r := polyDivMod(a, b)
		a, b = b, r.monic()
	}
	return a.monic()
}

// coprimeTo removes from p every factor it shares with d.
func coprimeTo(p, d Poly) Poly {
	for !p.IsZero() {
		g := polyGCD(p, d)
		if g.Degree() < 1 {
			break
		}
		p, _ = polyDivMod(p, g)
	}
	return p
}

// deflate divides p by (x - r), where r is a root of p.
func deflate(p Poly, r *big.Rat) Poly {
	n := p.Degree()
	q := make(Poly, n)
	q[n-1] = new(big.Rat).Set(p[n])
	for i := n - 1; i >= 1; i-- {
		q[i-1] = new(big.Rat).Mul(r, q[i])
		q[i-1].Add(q[i-1], p[i])
	}
	return q
}

// ============================================================
// Rational functions
// ============================================================

// ratFunc is num(x)/den(x); den is never the zero polynomial.
type ratFunc struct{ num, den Poly }

func (r ratFunc) tooLarge() bool {
	return r.num.Degree() > maxDegree || r.den.Degree() > maxDegree
}

func (r ratFunc) isConst() bool { return r.num.Degree() <= 0 && r.den.Degree() == 0 }

func (r ratFunc) constValue() *big.Rat {
	if r.num.IsZero() {
		return new(big.Rat)
	}
	return new(big.Rat).Quo(r.num[0], r.den[0])
}

// toRatFunc rewrites e as a quotient of polynomials in varName. It fails when
// e mentions any other symbol, divides by zero, or raises the variable to a
// non-integer power.
func toRatFunc(e Expr, varName string) (ratFunc, bool) {
	one := polyConst(big.NewRat(1, 1))
	switch v := e.(type) {
	case *Num:
		return ratFunc{num: polyConst(v.val), den: one}, true
	case *Sym:
		if v.name != varName {
			return ratFunc{}, false
		}
		return ratFunc{num: polyX(), den: one}, true
	case *Add:
		acc := ratFunc{den: one}
		for _, t := range v.terms {
			r, ok := toRatFunc(t, varName)
			if !ok {
				return ratFunc{}, false
			}
			acc = ratFunc{
				num: polyAdd(polyMul(acc.num, r.den), polyMul(r.num, acc.den)),
				den: polyMul(acc.den, r.den),
			}
			if acc.tooLarge() {
				return ratFunc{}, false
			}
		}
		return acc, true
	case *Mul:
		acc := ratFunc{num: one, den: one}
		for _, f := range v.factors {
			r, ok := toRatFunc(f, varName)
			if !ok {
				return ratFunc{}, false
			}
			acc = ratFunc{num: polyMul(acc.num, r.num), den: polyMul(acc.den, r.den)}
			if acc.tooLarge() {
				return ratFunc{}, false
			}
		}
		return acc, true
	case *Pow:
		exp, ok := v.exp.Eval()
		if !ok {
			return ratFunc{}, false
		}
		base, ok := toRatFunc(v.base, varName)
		if !ok {
			return ratFunc{}, false
		}
		if base.isConst() {
			r, ok := ratPow(base.constValue(), exp.val)
			if !ok {
				return ratFunc{}, false
			}
			return ratFunc{num: polyConst(r), den: one}, true
		}
		k, ok := exp.Int64()
		if !ok || k > maxExponent || k < -maxExponent {
			return ratFunc{}, false
		}
		if k < 0 {
			if base.num.IsZero() {
				return ratFunc{}, false
			}
			k = -k
			base.num, base.den = base.den, base.num
		}
		if int64(base.num.Degree())*k > maxDegree || int64(base.den.Degree())*k > maxDegree {
			return ratFunc{}, false
		}
		return ratFunc{num: polyPow(base.num, k), den: polyPow(base.den, k)}, true
	}
	return ratFunc{}, false
}

// Polynomial returns the coefficients of e in varName when e is a polynomial
// in it.
func Polynomial(e Expr, varName string) (Poly, bool) {
	rf, ok := toRatFunc(e, varName)
	if !ok || rf.den.Degree() != 0 {
		return nil, false
	}
	inv := new(big.Rat).Inv(rf.den[0])
	out := make(Poly, len(rf.num))
	for i, c := range rf.num {
		out[i] = new(big.Rat).Mul(c, inv)
	}
	return out, true
}

// ============================================================
// Exact powers and roots
// ============================================================

// ratPow computes base^exp exactly. Rational exponents p/q succeed only when
// base has an exact q-th root.
func ratPow(base, exp *big.Rat) (*big.Rat, bool) {
	if !exp.IsInt() {
		if !exp.Denom().IsInt64() || exp.Denom().Int64() > maxExponent {
			return nil, false
		}
		root, ok := ratRoot(base, exp.Denom().Int64())
		if !ok {
			return nil, false
		}
		return ratPow(root, new(big.Rat).SetInt(exp.Num()))
	}
	if !exp.Num().IsInt64() {
		return nil, false
	}
	k := exp.Num().Int64()
	if k > maxExponent || k < -maxExponent {
		return nil, false
	}
	if base.Sign() == 0 && k < 0 {
		return nil, false
	}
	neg := k < 0
	if neg {
		k = -k
	}
	if int64(base.Num().BitLen())*k > maxRatBits || int64(base.Denom().BitLen())*k > maxRatBits {
		return nil, false
	}
	num := new(big.Int).Exp(base.Num(), big.NewInt(k), nil)
	den := new(big.Int).Exp(base.Denom(), big.NewInt(k), nil)
	if neg {
		num, den = den, num
	}
	return new(big.Rat).SetFrac(num, den), true
}

// ratRoot returns the exact real k-th root of r, if there is one.
func ratRoot(r *big.Rat, k int64) (*big.Rat, bool) {
	if k <= 0 {
		return nil, false
	}
	neg := r.Sign() < 0
	if neg && k%2 == 0 {
		return nil, false
	}
	abs := new(big.Rat).Abs(r)
	num, ok := intRoot(abs.Num(), k)
	if !ok {
		return nil, false
	}
	den, ok := intRoot(abs.Denom(), k)
	if !ok {
		return nil, false
	}
	out := new(big.Rat).SetFrac(num, den)
	if neg {
		out.Neg(out)
	}
	return out, true
}

// intRoot returns the exact k-th root of a non-negative n.
func intRoot(n *big.Int, k int64) (*big.Int, bool) {
	if n.Sign() == 0 || k == 1 {
		return new(big.Int).Set(n), true
	}
	var root *big.Int
	if k == 2 {
		root = new(big.Int).Sqrt(n)
	} else {
		lo := big.NewInt(0)
		hi := new(big.Int).Lsh(big.NewInt(1), uint(n.BitLen()/int(k)+1))
		bk := big.NewInt(k)
		one := big.NewInt(1)
		for lo.Cmp(hi) < 0 {
			mid := new(big.Int).Add(lo, hi)
			mid.Add(mid, one).Rsh(mid, 1)
			if new(big.Int).Exp(mid, bk, nil).Cmp(n) <= 0 {
				lo = mid
			} else {
				hi = mid.Sub(mid, one)
			}
		}
		root = lo
	}
	if new(big.Int).Exp(root, big.NewInt(k), nil).Cmp(n) != 0 {
		return nil, false
	}
	return root, true
}
