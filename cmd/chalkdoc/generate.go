package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chalkdoc/chalkdoc"
	"github.com/chalkdoc/chalkdoc/internal/config"
)

type generateOptions struct {
	equation     string
	vars         []string
	unknown      string
	positiveOnly bool
	asJSON       bool
	verbose      bool
	workers      int

	save         bool
	topic        string
	instructions string
	categories   string
}

func newGenerateCmd(configPath *string) *cobra.Command {
	o := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate every valid problem for a template",
		Example: `  chalkdoc generate --equation "a+b=c" --var a:-1:2 --var b:1:2 --var c:1:100
  chalkdoc generate --equation "a**2=b" --var b:1:9 --var a:-10:10:zero --unknown a --positive-only`,
		Args: positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), *configPath, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.equation, "equation", "e", "", "equation template, e.g. \"a+b=c\"")
	f.StringArrayVarP(&o.vars, "var", "v", nil, "variable as symbol:min:max[:zero|:nozero], repeatable, in declaration order")
	f.StringVarP(&o.unknown, "unknown", "u", "", "variable to solve for (default: last --var)")
	f.BoolVar(&o.positiveOnly, "positive-only", false, "keep only strictly positive solutions")
	f.BoolVar(&o.asJSON, "json", false, "print the result as JSON")
	f.BoolVar(&o.verbose, "verbose", false, "log stage timings to stderr")
	f.IntVar(&o.workers, "workers", 1, "number of solver workers")
	f.BoolVar(&o.save, "save", false, "save the problems as a topic in the configured store")
	f.StringVar(&o.topic, "topic", "", "topic name (with --save)")
	f.StringVar(&o.instructions, "instructions", "", "topic instructions (with --save)")
	f.StringVar(&o.categories, "categories", "", "comma separated topic categories (with --save)")
	return cmd
}

// parseVar reads symbol:min:max with an optional :zero or :nozero suffix.
// Zero is excluded unless :zero is given.
func parseVar(s string) (chalkdoc.VariableSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return chalkdoc.VariableSpec{}, usagef("--var %q: want symbol:min:max[:zero|:nozero]", s)
	}
	v := chalkdoc.VariableSpec{Symbol: strings.TrimSpace(parts[0])}
	var err error
	if v.Min, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64); err != nil {
		return chalkdoc.VariableSpec{}, usagef("--var %q: bad min: %v", s, err)
	}
	if v.Max, err = strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64); err != nil {
		return chalkdoc.VariableSpec{}, usagef("--var %q: bad max: %v", s, err)
	}
	if len(parts) == 4 {
		switch strings.TrimSpace(parts[3]) {
		case "zero":
			v.ZeroOK = true
		case "nozero":
		default:
			return chalkdoc.VariableSpec{}, usagef("--var %q: suffix must be zero or nozero", s)
		}
	}
	return v, nil
}

func (o *generateOptions) template() (chalkdoc.Template, error) {
	if strings.TrimSpace(o.equation) == "" {
		return chalkdoc.Template{}, usagef("--equation is required")
	}
	if len(o.vars) == 0 {
		return chalkdoc.Template{}, usagef("at least one --var is required (detected: %s)",
			strings.Join(chalkdoc.DetectVariables(o.equation), ", "))
	}
	t := chalkdoc.Template{Equation: o.equation, PositiveOnly: o.positiveOnly, Unknown: o.unknown}
	for _, s := range o.vars {
		v, err := parseVar(s)
		if err != nil {
			return chalkdoc.Template{}, err
		}
		t.Variables = append(t.Variables, v)
	}
	return t, nil
}

func runGenerate(ctx context.Context, stdout, stderr io.Writer, configPath string, o *generateOptions) error {
	tmpl, err := o.template()
	if err != nil {
		return err
	}
	if o.save && strings.TrimSpace(o.topic) == "" {
		return usagef("--save requires --topic")
	}

	opts := chalkdoc.Options{Workers: o.workers}
	if o.verbose {
		opts.Logger = log.New(stderr, "chalkdoc: ", 0)
	}

	if o.save {
		return saveTopic(ctx, stdout, configPath, opts, o, tmpl)
	}

	res, err := chalkdoc.New(opts).Generate(ctx, tmpl)
	if err != nil {
		return err
	}
	if o.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	for i, p := range res.Problems {
		fmt.Fprintf(stdout, "%d. %s\t%s\n", i+1, p.Problem, p.Answer)
	}
	fmt.Fprintf(stderr, "%d problems from %d candidates\n", res.Count, res.Candidates)
	return nil
}

func saveTopic(ctx context.Context, stdout io.Writer, configPath string, opts chalkdoc.Options, o *generateOptions, tmpl chalkdoc.Template) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return configError{err}
	}
	if cfg.StoreDriver == config.DriverMemory {
		return configError{fmt.Errorf("--save needs a persistent store; set store.driver to %s or %s", config.DriverRedis, config.DriverMongo)}
	}
	opts.MaxCandidates = cfg.MaxCandidates
	topic, err := chalkdoc.BuildTopic(ctx, chalkdoc.New(opts), chalkdoc.TopicInput{
		Topic:        o.topic,
		Instructions: o.instructions,
		Categories:   chalkdoc.SplitCategories(o.categories),
		Template:     tmpl,
	})
	if err != nil {
		return err
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return configError{err}
	}
	defer b.close(ctx)

	id, err := b.store.Save(ctx, topic)
	if err != nil {
		return err
	}
	if o.asJSON {
		return json.NewEncoder(stdout).Encode(map[string]any{"id": id, "count": topic.Count})
	}
	fmt.Fprintf(stdout, "saved topic %s with %d problems\n", id, topic.Count)
	return nil
}

func newVariablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variables EQUATION",
		Short: "List the variables of an equation",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := chalkdoc.Normalize(args[0]); err != nil {
				return err
			}
			for _, v := range chalkdoc.DetectVariables(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}
