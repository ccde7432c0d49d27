package chalkdoc

import (
	"fmt"

	"github.com/chalkdoc/chalkdoc/algebra"
)

// Outcome classifies what happened to one candidate.
type Outcome int

const (
	Accepted Outcome = iota
	NoSolution
	NonIntegerSolution
	NonPositiveSolution
	OutOfRange
)

var outcomeNames = [...]string{
	Accepted:            "accepted",
	NoSolution:          "no_solution",
	NonIntegerSolution:  "non_integer_solution",
	NonPositiveSolution: "non_positive_solution",
	OutOfRange:          "out_of_range",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	for i, name := range outcomeNames {
		if name == string(b) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Solver finds the exact real roots of e = 0 in symbol.
type Solver interface {
	SolveFor(e algebra.Expr, symbol string) algebra.SolveResult
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(e algebra.Expr, symbol string) algebra.SolveResult

func (f SolverFunc) SolveFor(e algebra.Expr, symbol string) algebra.SolveResult { return f(e, symbol) }

// ExactSolver solves over the rationals with the algebra package.
var ExactSolver Solver = SolverFunc(algebra.SolveFor)

// Filter decides whether a solution set is usable. With positiveOnly, real
// roots <= 0 are dropped first, irrational ones included; every remaining
// root must then be an integer in unknown. Accepted roots are returned in
// ascending order.
func Filter(res algebra.SolveResult, unknown Range, positiveOnly bool) ([]int64, Outcome) {
	if len(res.Solutions) == 0 && res.Irrational == 0 {
		return nil, NoSolution
	}
	irrational, irrationalPositive := res.Irrational, res.IrrationalPositive
	if !res.ExactForm && irrational == 0 {
		// Uncounted roots of unknown sign.
		irrational, irrationalPositive = 1, 1
	}
	kept := res.Solutions
	if positiveOnly {
		kept = make([]*algebra.Num, 0, len(res.Solutions))
		for _, s := range res.Solutions {
			if s.IsPositive() {
				kept = append(kept, s)
			}
		}
		irrational = irrationalPositive
		if len(kept) == 0 && irrational == 0 {
			return nil, NonPositiveSolution
		}
	}
	if irrational > 0 {
		return nil, NonIntegerSolution
	}
	out := make([]int64, 0, len(kept))
	for _, s := range kept {
		if !s.IsInteger() {
			return nil, NonIntegerSolution
		}
		v, ok := s.Int64()
		if !ok || !unknown.Contains(v) {
			return nil, OutOfRange
		}
		out = append(out, v)
	}
	return out, Accepted
}
