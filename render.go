package chalkdoc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/chalkdoc/chalkdoc/algebra"
)

// Render builds the problem for an accepted candidate. Each input token of
// the template equation is replaced by "(value)", each side is re-parsed
// without evaluation and printed as LaTeX.
func Render(t Template, c Candidate, roots []int64) (ProblemInstance, error) {
	inputs := t.Inputs()
	if len(c.Values) != len(inputs) {
		return ProblemInstance{}, fmt.Errorf("candidate has %d values for %d inputs", len(c.Values), len(inputs))
	}
	left, right, ok := strings.Cut(t.Equation, "=")
	if !ok {
		return ProblemInstance{}, malformed(nil, "%q has no '='", t.Equation)
	}
	values := make(map[string]int64, len(inputs))
	for i, v := range inputs {
		lit := "(" + strconv.FormatInt(c.Values[i], 10) + ")"
		left = strings.ReplaceAll(left, v.Symbol, lit)
		right = strings.ReplaceAll(right, v.Symbol, lit)
		values[v.Symbol] = c.Values[i]
	}
	lhs, err := algebra.Parse(left)
	if err != nil {
		return ProblemInstance{}, malformed(err, "render left side: %v", err)
	}
	rhs, err := algebra.Parse(right)
	if err != nil {
		return ProblemInstance{}, malformed(err, "render right side: %v", err)
	}
	unknown := t.UnknownSymbol()
	return ProblemInstance{
		Inputs:    values,
		Unknown:   unknown,
		Solutions: slices.Clone(roots),
		Problem:   algebra.Eq(lhs, rhs).LaTeX(),
		Answer:    FormatAnswer(unknown, roots),
	}, nil
}

// FormatAnswer renders "u = v" for one root and "u = [v1, v2]" otherwise.
func FormatAnswer(unknown string, roots []int64) string {
	if len(roots) == 1 {
		return unknown + " = " + strconv.FormatInt(roots[0], 10)
	}
	parts := make([]string, len(roots))
	for i, r := range roots {
		parts[i] = strconv.FormatInt(r, 10)
	}
	return unknown + " = [" + strings.Join(parts, ", ") + "]"
}

// ParseAnswer reads a string produced by FormatAnswer.
func ParseAnswer(s string) (string, []int64, error) {
	lhs, rhs, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("answer %q has no '='", s)
	}
	symbol := strings.TrimSpace(lhs)
	if symbol == "" {
		return "", nil, fmt.Errorf("answer %q has no symbol", s)
	}
	values, err := parseValues(rhs)
	if err != nil {
		return "", nil, fmt.Errorf("answer %q: %w", s, err)
	}
	return symbol, values, nil
}

// parseValues reads "3" or "[-2, 2]".
func parseValues(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// CheckAnswer grades a response against p. The response may be a full
// answer ("c = 2") or just the value(s) ("2", "[-2, 2]"); order and
// duplicates do not matter.
func CheckAnswer(p ProblemInstance, response string) bool {
	var values []int64
	if strings.Contains(response, "=") {
		symbol, vs, err := ParseAnswer(response)
		if err != nil || symbol != p.Unknown {
			return false
		}
		values = vs
	} else {
		vs, err := parseValues(response)
		if err != nil {
			return false
		}
		values = vs
	}
	slices.Sort(values)
	values = slices.Compact(values)
	return slices.Equal(values, p.Solutions)
}
