package chalkdoc

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ProblemInstance is one generated problem. Solutions is non-empty and
// ascending.
type ProblemInstance struct {
	Inputs    map[string]int64
	Unknown   string
	Solutions []int64
	Problem   string
	Answer    string
}

// Values maps every input symbol to its value and the unknown to its list of
// solutions.
func (p ProblemInstance) Values() map[string]any {
	out := make(map[string]any, len(p.Inputs)+1)
	for k, v := range p.Inputs {
		out[k] = v
	}
	out[p.Unknown] = p.Solutions
	return out
}

type problemJSON struct {
	Values  map[string]json.RawMessage `json:"values"`
	Problem string                     `json:"problem"`
	Answer  string                     `json:"answer"`
}

func (p ProblemInstance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Values  map[string]any `json:"values"`
		Problem string         `json:"problem"`
		Answer  string         `json:"answer"`
	}{p.Values(), p.Problem, p.Answer})
}

func (p *ProblemInstance) UnmarshalJSON(b []byte) error {
	var raw problemJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := ProblemInstance{Inputs: map[string]int64{}, Problem: raw.Problem, Answer: raw.Answer}
	for sym, msg := range raw.Values {
		var list []int64
		if err := json.Unmarshal(msg, &list); err == nil {
			if out.Unknown != "" {
				return fmt.Errorf("problem has two unknowns: %s and %s", out.Unknown, sym)
			}
			out.Unknown, out.Solutions = sym, list
			continue
		}
		var v int64
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("value of %s: %w", sym, err)
		}
		out.Inputs[sym] = v
	}
	if out.Unknown == "" {
		return fmt.Errorf("problem has no unknown")
	}
	slices.Sort(out.Solutions)
	*p = out
	return nil
}
