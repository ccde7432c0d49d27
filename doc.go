// Package chalkdoc generates gradable practice problems from equation
// templates.
//
// A Template names an equation such as "a+b=c", an integer range for every
// variable and the unknown to solve for. Generate enumerates every
// admissible assignment of the other variables, solves the equation exactly
// for the unknown and keeps the assignments whose solutions are integers in
// the unknown's own range:
//
//	res, err := chalkdoc.Generate(chalkdoc.Template{
//		Equation: "a+b=c",
//		Variables: []chalkdoc.VariableSpec{
//			{Symbol: "a", Min: 1, Max: 9},
//			{Symbol: "b", Min: 1, Max: 9},
//			{Symbol: "c", Min: 1, Max: 20},
//		},
//	})
//
// Each ProblemInstance carries the rendered problem ("1 + 2 = c"), its
// answer ("c = 3") and the values that produced it. Symbolic work is done by
// the algebra subpackage; persistence and transport live under internal/.
package chalkdoc
