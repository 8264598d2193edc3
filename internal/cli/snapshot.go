package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgraph/pkg/source/manifest"
)

// snapshotCommand creates the snapshot command.
func (c *CLI) snapshotCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture installed linkage records as a TOML manifest",
		Long: `Snapshot reads the package feed and writes every record as a structured TOML
manifest. Build from it elsewhere with --manifest.`,
		Example: `  linkgraph snapshot -o host-a.toml
  linkgraph --manifest host-a.toml deps /usr/bin/xz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner := c.newRunner(ctx)
			defer runner.Close()

			snap, err := runner.Ingest(ctx, c.pipelineOptions())
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := manifest.Encode(&buf, snap); err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Captured %s, %s", plural(snap.PackageCount(), "package"), plural(snap.Len(), "record"))
			printFile(cmd.ErrOrStderr(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
