package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandrolain/goformula"
	"github.com/sandrolain/goformula/pkg/types"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Params      []string
	ParamsFile  string
	Epsilon     float64
	IntegerOnly bool
	Strings     string
	AsString    bool
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <formula>",
		Short: "Compile and evaluate a formula",
		Long: `Compile a formula, bind its parameters and print the result.

Parameters come from an optional YAML file (--params) and from repeated
-p name=value flags; flags win on conflict. Values are typed by inference:
true/false become booleans, whole numbers integers, decimals floats, and
everything else strings.

Example:
  goformula eval 'round(price * 1.22, 2)' -p price=10.5
  goformula eval 'a = b' -p a=0.1 -p b=0.1000000001 --epsilon 1e-6
  goformula eval 'greeting & " " & name' --params bindings.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter binding name=value (repeatable)")
	cmd.Flags().StringVar(&opts.ParamsFile, "params", "", "YAML file with parameter bindings")
	cmd.Flags().Float64Var(&opts.Epsilon, "epsilon", 0, "tolerance for numeric equality")
	cmd.Flags().BoolVar(&opts.IntegerOnly, "integer-only", false, "apply the tolerance to integer comparisons only")
	cmd.Flags().StringVar(&opts.Strings, "strings", "exact", "string comparison mode (exact|ignorecase|trimspace)")
	cmd.Flags().BoolVar(&opts.AsString, "string", false, "render the result as a string")

	return cmd
}

func runEval(opts *EvalOptions, source string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	bindings, err := LoadBindings(opts.ParamsFile, opts.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid parameters", err)
	}

	compileOpts, err := toleranceOptions(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid tolerance", err)
	}

	f, err := goformula.Compile(source, compileOpts...)
	if err != nil {
		return reportEngineError(out, err)
	}

	if opts.AsString {
		s, err := f.EvalString(bindings)
		if err != nil {
			return reportEngineError(out, err)
		}
		return out.Success(s)
	}

	v, err := f.Eval(bindings)
	if err != nil {
		return reportEngineError(out, err)
	}
	return out.Success(v)
}

// toleranceOptions maps the eval flags onto compile options. No tolerance
// flags means exact semantics.
func toleranceOptions(opts *EvalOptions) ([]goformula.Option, error) {
	mode, err := stringMode(opts.Strings)
	if err != nil {
		return nil, err
	}
	if opts.Epsilon == 0 && !opts.IntegerOnly && mode == types.StringExact {
		return nil, nil
	}
	return []goformula.Option{
		goformula.WithTolerance(types.Tolerance{
			Epsilon:     opts.Epsilon,
			IntegerOnly: opts.IntegerOnly,
			Strings:     mode,
		}),
	}, nil
}

func stringMode(s string) (types.StringMode, error) {
	switch s {
	case "exact", "":
		return types.StringExact, nil
	case "ignorecase":
		return types.StringIgnoreCase, nil
	case "trimspace":
		return types.StringTrimSpace, nil
	default:
		return types.StringExact, fmt.Errorf("unknown string mode %q", s)
	}
}

// reportEngineError prints an engine error with its code and converts it to
// an exit error.
func reportEngineError(out *OutputFormatter, err error) error {
	code := "E0000"
	var ee *types.Error
	if errors.As(err, &ee) {
		code = string(ee.Code)
	}
	if outErr := out.Error(code, err.Error()); outErr != nil {
		return WrapExitError(ExitCommandError, "writing output", outErr)
	}
	return WrapExitError(ExitFailure, "evaluation failed", err)
}

// configureLogging routes pipeline debug logging to stderr when verbose.
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
