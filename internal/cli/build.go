package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the linkage graph and print statistics",
		Long: `Build ingests every installed package, builds the shared-library graph with
its transitive closure, stores it in the cache, and prints a summary.

Later queries against an unchanged package database reuse the cached graph.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner := c.newRunner(ctx)
			defer runner.Close()

			out, err := runner.Execute(ctx, c.pipelineOptions())
			if err != nil {
				return err
			}
			res := out.Graph
			w := cmd.OutOrStdout()

			printSuccess(w, "Built linkage graph %s", StyleNumber.Render(res.ID))
			printStats(w, res.Stats.Objects, res.Stats.ClosedEdges, out.CacheInfo.BuildHit)
			printKeyValue(w, "packages", fmt.Sprint(out.Stats.Packages))
			printKeyValue(w, "records", fmt.Sprint(out.Stats.Records))
			printKeyValue(w, "abi classes", fmt.Sprint(res.Stats.ABIs))
			printKeyValue(w, "libraries", fmt.Sprint(res.Stats.Libraries))
			printKeyValue(w, "direct edges", fmt.Sprint(res.Stats.DirectEdges))
			printKeyValue(w, "closed edges", fmt.Sprint(res.Stats.ClosedEdges))
			printKeyValue(w, "reverse", string(res.Reverse.Kind))
			printKeyValue(w, "snapshot", res.SnapshotHash)

			missing := 0
			for _, abi := range res.Forward.ABIs() {
				missing += len(res.Unresolved(abi))
			}
			if missing > 0 {
				printWarning(w, "%s referenced but not provided by any package", plural(missing, "soname"))
				printNextStep(w, "List them", "linkgraph unresolved")
			}
			return nil
		},
	}
}
