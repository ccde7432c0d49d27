// Command chalkdoc generates practice problems from equation templates.
//
// Usage:
//
//	chalkdoc generate --equation "a+b=c" --var a:-1:2 --var b:1:2 --var c:1:100
//	chalkdoc variables "ax+b=c"
//	chalkdoc serve --config chalkdoc.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chalkdoc/chalkdoc"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitInput   = 2
	exitConfig  = 3
)

// usageError marks errors caused by the command line rather than by a run.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// configError marks failures to load configuration or reach a backend.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ue usageError
	var ce configError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue), chalkdoc.IsInputError(err):
		return exitInput
	case errors.As(err, &ce):
		return exitConfig
	default:
		return exitFailure
	}
}

// positional reports argument count errors as usage errors.
func positional(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "chalkdoc",
		Short:         "Generate gradable practice problems from equation templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, json or toml)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	root.AddCommand(
		newGenerateCmd(&configPath),
		newVariablesCmd(),
		newServeCmd(&configPath),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chalkdoc:", err)
	}
	os.Exit(exitCode(err))
}
