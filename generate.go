package chalkdoc

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/chalkdoc/chalkdoc/algebra"
)

// DefaultMaxCandidates caps a run when Options.MaxCandidates is zero.
const DefaultMaxCandidates = 1_000_000

// Options configures a Generator.
type Options struct {
	// MaxCandidates fails runs whose candidate count exceeds it. Zero means
	// DefaultMaxCandidates; a negative value disables the check.
	MaxCandidates int64
	// Workers > 1 solves candidates concurrently.
	Workers int
	// Solver defaults to ExactSolver.
	Solver Solver
	// Logger receives per-stage timings. Nil discards them.
	Logger *log.Logger
}

// Generator runs templates through normalization, enumeration, solving,
// filtering and rendering. It is safe for concurrent use.
type Generator struct {
	maxCandidates int64
	workers       int
	solver        Solver
	logger        *log.Logger
}

func New(opts Options) *Generator {
	g := &Generator{
		maxCandidates: opts.MaxCandidates,
		workers:       opts.Workers,
		solver:        opts.Solver,
		logger:        opts.Logger,
	}
	if g.maxCandidates == 0 {
		g.maxCandidates = DefaultMaxCandidates
	}
	if g.solver == nil {
		g.solver = ExactSolver
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard, "", 0)
	}
	return g
}

// Result is the output of one run. Outcomes counts every candidate by what
// happened to it, accepted ones included.
type Result struct {
	Problems   []ProblemInstance `json:"problems"`
	Count      int               `json:"count"`
	Candidates int64             `json:"candidates"`
	Outcomes   map[Outcome]int   `json:"outcomes"`
}

// Generate runs t with default options.
func Generate(t Template) (*Result, error) {
	return New(Options{}).Generate(context.Background(), t)
}

// Stage is the progress of one generation run.
type Stage int

const (
	StageInit Stage = iota
	StageNormalized
	StageRanged
	StageEnumerating
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "INIT"
	case StageNormalized:
		return "NORMALIZED"
	case StageRanged:
		return "RANGED"
	case StageEnumerating:
		return "ENUMERATING"
	case StageDone:
		return "DONE"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

func isAllowedTransition(from, to Stage) bool {
	return to == from+1 && to <= StageDone
}

type run struct {
	stage   Stage
	started time.Time
	logger  *log.Logger
}

func (r *run) advance(to Stage) error {
	if !isAllowedTransition(r.stage, to) {
		return fmt.Errorf("disallowed stage transition: %s -> %s", r.stage, to)
	}
	r.logger.Printf("%s finished in %s", r.stage, time.Since(r.started))
	r.stage = to
	r.started = time.Now()
	return nil
}

// job is everything a worker needs to evaluate one candidate.
type job struct {
	tmpl         Template
	expr         algebra.Expr
	inputs       []VariableSpec
	unknown      string
	unknownRange Range
	solver       Solver
}

type evaluation struct {
	index   int64
	outcome Outcome
	problem ProblemInstance
	err     error
}

func (j *job) evaluate(c Candidate) evaluation {
	e := j.expr
	for i, v := range j.inputs {
		e = e.Sub(v.Symbol, algebra.N(c.Values[i]))
	}
	roots, outcome := Filter(j.solver.SolveFor(e, j.unknown), j.unknownRange, j.tmpl.PositiveOnly)
	ev := evaluation{index: c.Index, outcome: outcome}
	if outcome == Accepted {
		ev.problem, ev.err = Render(j.tmpl, c, roots)
	}
	return ev
}

// Generate runs t. Template problems are returned as *GenerationError;
// cancellation returns ctx.Err().
func (g *Generator) Generate(ctx context.Context, t Template) (*Result, error) {
	r := &run{stage: StageInit, started: time.Now(), logger: g.logger}
	if err := t.validateDeclarations(); err != nil {
		return nil, err
	}
	expr, err := Normalize(t.Equation)
	if err != nil {
		return nil, err
	}
	if err := t.checkSymbols(expr); err != nil {
		return nil, err
	}
	if err := r.advance(StageNormalized); err != nil {
		return nil, err
	}

	unknown := t.UnknownSymbol()
	spec, _ := t.variable(unknown)
	unknownRange, err := NewRange(spec)
	if err != nil {
		return nil, err
	}
	inputs := t.Inputs()
	ranges, err := BuildRanges(inputs)
	if err != nil {
		return nil, err
	}
	count := CandidateCount(ranges)
	if g.maxCandidates > 0 && count > g.maxCandidates {
		return nil, tooMany(count, g.maxCandidates)
	}
	g.logger.Printf("solving %s = 0 for %s over %d candidates", expr, unknown, count)
	if err := r.advance(StageRanged); err != nil {
		return nil, err
	}
	if err := r.advance(StageEnumerating); err != nil {
		return nil, err
	}

	j := &job{tmpl: t, expr: expr, inputs: inputs, unknown: unknown, unknownRange: unknownRange, solver: g.solver}
	res := &Result{Candidates: count, Outcomes: map[Outcome]int{}}
	var accepted []evaluation
	collect := func(ev evaluation) error {
		if ev.err != nil {
			return ev.err
		}
		res.Outcomes[ev.outcome]++
		if ev.outcome == Accepted {
			accepted = append(accepted, ev)
		}
		return nil
	}
	if g.workers > 1 {
		err = g.parallel(ctx, j, Candidates(ranges), collect)
	} else {
		err = serial(ctx, j, Candidates(ranges), collect)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(accepted, func(a, b int) bool { return accepted[a].index < accepted[b].index })
	res.Problems = make([]ProblemInstance, len(accepted))
	for i, ev := range accepted {
		res.Problems[i] = ev.problem
	}
	res.Count = len(res.Problems)
	if err := r.advance(StageDone); err != nil {
		return nil, err
	}
	g.logger.Printf("generated %d problems from %d candidates", res.Count, count)
	return res, nil
}
