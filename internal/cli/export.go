package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgraph/pkg/pipeline"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		opts   pipeline.RenderOptions
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the graph as JSON, YAML, DOT or SVG",
		Long: `Export serializes the built graph.

JSON and YAML hold every ABI class, both registry maps, the direct and closed
edges of each object, and the reverse graph. A JSON export can be loaded back
with --graph to query a system without access to its package database.

DOT and SVG draw one ABI class; --object limits the drawing to one object and
what it links against.`,
		Example: `  linkgraph export -o graph.json
  linkgraph export --format svg --abi X86_64 --object /usr/bin/xz --transitive -o xz.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			runner := c.newRunner(ctx)
			defer runner.Close()
			res, err := c.loadResult(ctx, runner)
			if err != nil {
				return err
			}

			prog := newProgress(loggerFromContext(ctx))
			data, err := runner.Render(ctx, res, opts)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			prog.done("Exported " + opts.Format)
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Format, "format", "f", pipeline.FormatJSON, "output format: json, yaml, dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.ABI, "abi", "", "ABI class to draw (dot, svg)")
	cmd.Flags().StringVar(&opts.Root, "object", "", "draw only this object and its dependencies (dot, svg)")
	cmd.Flags().BoolVar(&opts.Transitive, "transitive", false, "draw closed instead of direct edges (dot, svg)")
	return cmd
}
