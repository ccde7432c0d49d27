package chalkdoc_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/chalkdoc/chalkdoc"
	"github.com/chalkdoc/chalkdoc/algebra"
)

func solve(t *testing.T, expr string) algebra.SolveResult {
	t.Helper()
	e, err := algebra.Parse(expr)
	if err != nil {
		t.Fatal(err)
	}
	return algebra.SolveFor(e, "x")
}

// ============================================================
// Filter tests
// ============================================================

func TestFilter(t *testing.T) {
	wide := chalkdoc.Range{Min: -10, Max: 10, ZeroOK: true}
	cases := []struct {
		name     string
		expr     string
		unknown  chalkdoc.Range
		positive bool
		want     []int64
		outcome  chalkdoc.Outcome
	}{
		{"two roots", "x^2 - 4", wide, false, []int64{-2, 2}, chalkdoc.Accepted},
		{"positive trims", "x^2 - 4", wide, true, []int64{2}, chalkdoc.Accepted},
		{"one root out of range", "x^2 - 4", chalkdoc.Range{Min: 1, Max: 10}, false, nil, chalkdoc.OutOfRange},
		{"fraction", "2x - 1", wide, false, nil, chalkdoc.NonIntegerSolution},
		{"negative only", "x + 1", wide, true, nil, chalkdoc.NonPositiveSolution},
		{"complex", "x^2 + 1", wide, false, nil, chalkdoc.NoSolution},
		{"irrational", "x^2 - 2", wide, false, nil, chalkdoc.NonIntegerSolution},
		{"zero excluded", "x", chalkdoc.Range{Min: -10, Max: 10}, false, nil, chalkdoc.OutOfRange},
		{"partly irrational", "x^3 - 2x", wide, false, nil, chalkdoc.NonIntegerSolution},
		{"cube with complex pair", "x^3 - 8", wide, false, []int64{2}, chalkdoc.Accepted},
		{"negative irrationals kept", "(x - 2)(x^2 + 4x + 2)", wide, false, nil, chalkdoc.NonIntegerSolution},
		{"negative irrationals trimmed", "(x - 2)(x^2 + 4x + 2)", wide, true, []int64{2}, chalkdoc.Accepted},
		{"positive irrational survives", "(x - 2)(x^2 - 2)", wide, true, nil, chalkdoc.NonIntegerSolution},
		{"only negative irrationals", "x^2 + 4x + 2", wide, true, nil, chalkdoc.NonPositiveSolution},
		{"quartic irrationals trimmed", "(x - 3)(x^3 + 3x + 5)", wide, true, []int64{3}, chalkdoc.Accepted},
	}
	for _, c := range cases {
		got, outcome := chalkdoc.Filter(solve(t, c.expr), c.unknown, c.positive)
		if outcome != c.outcome || !reflect.DeepEqual(got, c.want) {
			t.Errorf("%s: want %v %s, got %v %s", c.name, c.want, c.outcome, got, outcome)
		}
	}
}

func TestOutcome_Text(t *testing.T) {
	b, err := json.Marshal(map[chalkdoc.Outcome]int{chalkdoc.OutOfRange: 2})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"out_of_range":2}` {
		t.Errorf("unexpected JSON: %s", b)
	}
	var back map[chalkdoc.Outcome]int
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back[chalkdoc.OutOfRange] != 2 {
		t.Errorf("round trip lost the count: %v", back)
	}
}

// ============================================================
// Renderer tests
// ============================================================

func TestRender(t *testing.T) {
	cases := []struct {
		equation string
		values   []int64
		roots    []int64
		problem  string
		answer   string
	}{
		{"a+b=c", []int64{1, 1}, []int64{2}, "1 + 1 = c", "c = 2"},
		{"2a + b = c", []int64{-3, 4}, []int64{-2}, `2 \left(-3\right) + 4 = c`, "c = -2"},
		{"ab=c", []int64{-1, 2}, []int64{-2}, `-1 \cdot 2 = c`, "c = -2"},
		{"a - b = c", []int64{1, -1}, []int64{2}, `1 - \left(-1\right) = c`, "c = 2"},
		{"a/b = c", []int64{6, 3}, []int64{2}, `\frac{6}{3} = c`, "c = 2"},
		{"a/b = c", []int64{-3, -3}, []int64{1}, `-\frac{3}{\left(-3\right)} = c`, "c = 1"},
		{"c^2 = a + b", []int64{3, 6}, []int64{-3, 3}, `c^{2} = 3 + 6`, "c = [-3, 3]"},
	}
	for _, c := range cases {
		tmpl := chalkdoc.Template{Equation: c.equation, Variables: []chalkdoc.VariableSpec{
			{Symbol: "a", Min: -10, Max: 10}, {Symbol: "b", Min: -10, Max: 10}, {Symbol: "c", Min: -10, Max: 10},
		}}
		p, err := chalkdoc.Render(tmpl, chalkdoc.Candidate{Values: c.values}, c.roots)
		if err != nil {
			t.Fatalf("Render(%q): %v", c.equation, err)
		}
		if p.Problem != c.problem {
			t.Errorf("Render(%q) problem = %s, want %s", c.equation, p.Problem, c.problem)
		}
		if p.Answer != c.answer {
			t.Errorf("Render(%q) answer = %s, want %s", c.equation, p.Answer, c.answer)
		}
	}
}

func TestRender_WrongArity(t *testing.T) {
	if _, err := chalkdoc.Render(sumTemplate(), chalkdoc.Candidate{Values: []int64{1}}, []int64{2}); err == nil {
		t.Error("want error for missing input value")
	}
}

func TestParseAnswer(t *testing.T) {
	sym, values, err := chalkdoc.ParseAnswer("a = [-2, 2]")
	if err != nil || sym != "a" || !reflect.DeepEqual(values, []int64{-2, 2}) {
		t.Errorf("got %s %v %v", sym, values, err)
	}
	for _, bad := range []string{"a 2", "= 2", "a = two", "a = [1,]"} {
		if _, _, err := chalkdoc.ParseAnswer(bad); err == nil {
			t.Errorf("ParseAnswer(%q): want error", bad)
		}
	}
}

func TestCheckAnswer(t *testing.T) {
	p := chalkdoc.ProblemInstance{Unknown: "a", Solutions: []int64{-2, 2}}
	cases := map[string]bool{
		"a = [-2, 2]": true,
		"[2, -2]":     true,
		"2, -2, 2":    true,
		"2":           false,
		"x = [-2, 2]": false,
		"nonsense":    false,
	}
	for response, want := range cases {
		if got := chalkdoc.CheckAnswer(p, response); got != want {
			t.Errorf("CheckAnswer(%q) = %v, want %v", response, got, want)
		}
	}
}

func TestProblemInstance_JSON(t *testing.T) {
	p := chalkdoc.ProblemInstance{
		Inputs:    map[string]int64{"a": 1, "b": 1},
		Unknown:   "c",
		Solutions: []int64{2},
		Problem:   "1 + 1 = c",
		Answer:    "c = 2",
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"values":{"a":1,"b":1,"c":[2]},"problem":"1 + 1 = c","answer":"c = 2"}`
	if string(b) != want {
		t.Errorf("want %s, got %s", want, b)
	}
	var back chalkdoc.ProblemInstance
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, p) {
		t.Errorf("round trip: want %+v, got %+v", p, back)
	}
}

func TestProblemInstance_JSONErrors(t *testing.T) {
	for _, in := range []string{
		`{"values":{"a":1},"problem":"","answer":""}`,
		`{"values":{"a":[1],"b":[2]},"problem":"","answer":""}`,
		`{"values":{"a":"x","b":[2]},"problem":"","answer":""}`,
	} {
		var p chalkdoc.ProblemInstance
		if err := json.Unmarshal([]byte(in), &p); err == nil {
			t.Errorf("Unmarshal(%s): want error", in)
		}
	}
}
