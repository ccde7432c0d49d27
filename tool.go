package chalkdoc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/chalkdoc/chalkdoc/algebra"
)

// ============================================================
// Tool-call interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall dispatches req with a default Generator.
func HandleToolCall(req ToolRequest) ToolResponse {
	return New(Options{}).HandleToolCall(context.Background(), req)
}

func (g *Generator) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	// decode re-encodes an object param into a typed value.
	decode := func(key string, out interface{}) error {
		v, ok := req.Params[key]
		if !ok {
			return fmt.Errorf("missing param: %s", key)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("param %s: %w", key, err)
		}
		if err := json.Unmarshal(b, out); err != nil {
			return fmt.Errorf("param %s: %w", key, err)
		}
		return nil
	}
	// getExpr reads either an equation string or an expression tree.
	getExpr := func() (algebra.Expr, error) {
		if _, ok := req.Params["equation"]; ok {
			eq, err := getString("equation")
			if err != nil {
				return nil, err
			}
			return Normalize(eq)
		}
		raw, ok := req.Params["expr"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("missing param: equation or expr")
		}
		return algebra.FromJSON(raw)
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

	switch req.Tool {
	case "generate_problems":
		var t Template
		if err := decode("template", &t); err != nil {
			return fail(err)
		}
		res, err := g.Generate(ctx, t)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: res, String: fmt.Sprintf("%d problems", res.Count)}

	case "detect_variables":
		eq, err := getString("equation")
		if err != nil {
			return fail(err)
		}
		vars := DetectVariables(eq)
		return ToolResponse{Result: vars, String: strings.Join(vars, ", ")}

	case "normalize_equation":
		e, err := getExpr()
		if err != nil {
			return fail(err)
		}
		tree, err := algebra.ToJSON(e)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: json.RawMessage(tree),
			LaTeX:  e.LaTeX() + " = 0",
			String: algebra.Expand(e).String() + " = 0",
		}

	case "solve_for":
		e, err := getExpr()
		if err != nil {
			return fail(err)
		}
		unknown, err := getString("unknown")
		if err != nil {
			return fail(err)
		}
		values := map[string]int64{}
		if _, ok := req.Params["values"]; ok {
			if err := decode("values", &values); err != nil {
				return fail(err)
			}
		}
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			e = e.Sub(name, algebra.N(values[name]))
		}
		res := g.solver.SolveFor(e, unknown)
		if res.Error != "" && len(res.Solutions) == 0 {
			return ToolResponse{Error: res.Error}
		}
		strs := make([]string, len(res.Solutions))
		latex := make([]string, len(res.Solutions))
		for i, s := range res.Solutions {
			strs[i] = s.String()
			latex[i] = s.LaTeX()
		}
		return ToolResponse{
			Result: strs,
			LaTeX:  unknown + " = " + strings.Join(latex, ", "),
			String: strings.Join(strs, ", "),
			Error:  res.Error,
		}

	case "check_answer":
		var p ProblemInstance
		if err := decode("problem", &p); err != nil {
			return fail(err)
		}
		response, err := getString("response")
		if err != nil {
			return fail(err)
		}
		ok := CheckAnswer(p, response)
		return ToolResponse{Result: ok, String: fmt.Sprintf("%t", ok)}

	case "tool_spec":
		return ToolResponse{Result: json.RawMessage(ToolSpec()), String: "tool spec"}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ToolSpec describes the tools HandleToolCall accepts, as JSON.
func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("generate_problems", "Generate every problem of an equation template", []string{"template"}, map[string]string{"template": "object"}),
		ts("detect_variables", "List the variables of an equation", []string{"equation"}, map[string]string{"equation": "string"}),
		ts("normalize_equation", "Rewrite an equation as expr = 0", []string{}, map[string]string{"equation": "string", "expr": "object"}),
		ts("solve_for", "Solve exactly for one unknown after substituting values", []string{"unknown"}, map[string]string{"equation": "string", "expr": "object", "unknown": "string", "values": "object"}),
		ts("check_answer", "Grade a response against a generated problem", []string{"problem", "response"}, map[string]string{"problem": "object", "response": "string"}),
		ts("tool_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
