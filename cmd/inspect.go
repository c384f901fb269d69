package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingspeech/assetgen/internal/manifest"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <manifest>",
		Short: "Print a run manifest written by generate --manifest",
		Example: `  assetgen inspect build/assets.yaml
  assetgen inspect build/assets.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Read(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if m.Settings.Timestamp != "" {
				fmt.Fprintf(out, "Run %s (quality %d, method %d, incremental %t)\n",
					m.Settings.Timestamp, m.Settings.Quality, m.Settings.Method, m.Settings.Incremental)
			}

			var generated, fresh, skipped int
			var total int64
			for _, e := range m.Entries {
				switch e.Status {
				case manifest.StatusSkipped:
					skipped++
					fmt.Fprintf(out, "  %-10s %-9s %s\n", e.Spec, e.Status, e.Source)
					continue
				case manifest.StatusFresh:
					fresh++
				default:
					generated++
					total += e.Bytes
				}
				fmt.Fprintf(out, "  %-10s %-9s %s %dx%d %d bytes\n", e.Spec, e.Status, e.OutputPath, e.Width, e.Height, e.Bytes)
			}

			fmt.Fprintf(out, "\nGenerated: %d (%d bytes)\n", generated, total)
			fmt.Fprintf(out, "Up to date: %d\n", fresh)
			fmt.Fprintf(out, "Skipped assets: %d\n", skipped)
			return nil
		},
	}
}
