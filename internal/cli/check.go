package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/goformula"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
}

// checkReport is the payload printed by the check command.
type checkReport struct {
	Result     string            `json:"result" yaml:"result"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <formula>",
		Short: "Type-check a formula",
		Long: `Parse and type-check a formula without evaluating it, printing the
inferred result type and the inferred type of every parameter.

Example:
  goformula check 'round(price * 1.22, 2)'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *CheckOptions, source string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	f, err := goformula.Compile(source)
	if err != nil {
		return reportEngineError(out, err)
	}

	report := checkReport{
		Result:     f.ReturnType().String(),
		Parameters: make(map[string]string),
	}
	for _, name := range f.Parameters() {
		p, _ := f.Parameter(name)
		report.Parameters[name] = p.ReturnType().String()
	}

	if opts.Format == "json" {
		return out.Success(report)
	}
	return out.Success(renderReport(report))
}

// renderReport formats the check report for text output.
func renderReport(r checkReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "result: %s", r.Result)
	names := make([]string, 0, len(r.Parameters))
	for name := range r.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n%s: %s", name, r.Parameters[name])
	}
	return b.String()
}
