package chalkdoc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/chalkdoc/chalkdoc/algebra"
)

// NumType is the kind of value a variable takes.
type NumType string

const (
	NumInteger NumType = "integer"
	// NumDecimal is reserved; templates using it are rejected.
	NumDecimal NumType = "decimal"
)

// VariableSpec constrains one variable of a template. Symbol is a single
// ASCII letter; the admissible values are Min..Max inclusive, without 0
// unless ZeroOK is set.
type VariableSpec struct {
	Symbol  string  `json:"symbol"`
	Min     int64   `json:"min"`
	Max     int64   `json:"max"`
	ZeroOK  bool    `json:"zero_ok"`
	NumType NumType `json:"num_type,omitempty"`
}

// Template is an equation plus the constraints on its variables. Variables
// are ordered; the order fixes substitution and enumeration order. Unknown
// names the variable to solve for and defaults to the last declared one.
type Template struct {
	Equation     string         `json:"equation"`
	PositiveOnly bool           `json:"positive_only"`
	Variables    []VariableSpec `json:"variables"`
	Unknown      string         `json:"unknown,omitempty"`
}

// UnknownSymbol returns the symbol solved for.
func (t Template) UnknownSymbol() string {
	if t.Unknown != "" {
		return t.Unknown
	}
	if len(t.Variables) == 0 {
		return ""
	}
	return t.Variables[len(t.Variables)-1].Symbol
}

// Inputs returns the declared variables other than the unknown, in order.
func (t Template) Inputs() []VariableSpec {
	unknown := t.UnknownSymbol()
	out := make([]VariableSpec, 0, len(t.Variables))
	for _, v := range t.Variables {
		if v.Symbol != unknown {
			out = append(out, v)
		}
	}
	return out
}

func (t Template) variable(symbol string) (VariableSpec, bool) {
	for _, v := range t.Variables {
		if v.Symbol == symbol {
			return v, true
		}
	}
	return VariableSpec{}, false
}

// Validate checks the whole template without generating anything.
func (t Template) Validate() error {
	if err := t.validateDeclarations(); err != nil {
		return err
	}
	expr, err := Normalize(t.Equation)
	if err != nil {
		return err
	}
	if err := t.checkSymbols(expr); err != nil {
		return err
	}
	_, err = BuildRanges(t.Variables)
	return err
}

func (t Template) validateDeclarations() error {
	if strings.TrimSpace(t.Equation) == "" {
		return templatef("equation is empty")
	}
	if len(t.Variables) == 0 {
		return templatef("no variables declared")
	}
	seen := map[string]bool{}
	for _, v := range t.Variables {
		if len(v.Symbol) != 1 || !isLetter(v.Symbol[0]) {
			return templatef("symbol %q must be a single ASCII letter", v.Symbol)
		}
		if seen[v.Symbol] {
			return templatef("symbol %q declared twice", v.Symbol)
		}
		seen[v.Symbol] = true
		switch v.NumType {
		case "", NumInteger:
		default:
			return templatef("%s: num_type %q is not supported", v.Symbol, v.NumType)
		}
	}
	if !seen[t.UnknownSymbol()] {
		return templatef("unknown %q is not a declared variable", t.Unknown)
	}
	return nil
}

// checkSymbols requires the declared variables and the equation's symbols to
// be the same set.
func (t Template) checkSymbols(expr algebra.Expr) error {
	used := algebra.FreeSymbols(expr)
	for _, name := range algebra.SortedSymbols(expr) {
		if _, ok := t.variable(name); !ok {
			return templatef("symbol %q is used but not declared", name)
		}
	}
	for _, v := range t.Variables {
		if _, ok := used[v.Symbol]; !ok {
			return templatef("variable %q does not appear in the equation", v.Symbol)
		}
	}
	return nil
}

// Key is a stable digest of the template, suitable as a cache key.
func (t Template) Key() string {
	canon := t
	canon.Unknown = t.UnknownSymbol()
	canon.Variables = append([]VariableSpec(nil), t.Variables...)
	for i := range canon.Variables {
		if canon.Variables[i].NumType == "" {
			canon.Variables[i].NumType = NumInteger
		}
	}
	b, _ := json.Marshal(canon)
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// DetectVariables lists the distinct letters of an equation in sorted order;
// each one is a variable that needs a range.
func DetectVariables(equation string) []string {
	seen := map[string]bool{}
	var out []string
	for i := 0; i < len(equation); i++ {
		c := equation[i]
		if isLetter(c) && !seen[string(c)] {
			seen[string(c)] = true
			out = append(out, string(c))
		}
	}
	sort.Strings(out)
	return out
}

// SplitCategories parses a comma separated category list.
func SplitCategories(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
