package chalkdoc

import (
	"strings"

	"github.com/chalkdoc/chalkdoc/algebra"
)

// Normalize turns "LHS = RHS" into the expression LHS - (RHS), which is zero
// exactly when the equation holds. The tree is not simplified.
func Normalize(equation string) (algebra.Expr, error) {
	if n := strings.Count(equation, "="); n != 1 {
		return nil, malformed(nil, "%q must contain exactly one '=', found %d", equation, n)
	}
	eq, err := algebra.ParseEquation(equation)
	if err != nil {
		return nil, malformed(err, "%v", err)
	}
	return eq.Residual(), nil
}
