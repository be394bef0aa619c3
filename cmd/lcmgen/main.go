// Command lcmgen generates Go types from .lcm message definitions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type genOptions struct {
	outDir        string
	modulePath    string
	packagePrefix []string
	derive        []string
}

func newRootCommand() *cobra.Command {
	var opts genOptions

	cmd := &cobra.Command{
		Use:   "lcmgen [flags] <file.lcm>...",
		Short: "Generate Go types from LCM message definitions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.outDir, "out", ".", "output directory for generated Go packages")
	flags.StringVar(&opts.modulePath, "module", "", "Go module path generated files import each other under (required)")
	flags.StringArrayVar(&opts.packagePrefix, "package-prefix", nil, "namespace component spliced onto every parsed file's namespace, repeatable for nested prefixes")
	flags.StringArrayVar(&opts.derive, "derive", nil, "extra method to emit on every generated record (currently: stringer)")

	return cmd
}
