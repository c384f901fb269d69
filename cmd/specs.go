package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newSpecsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "specs",
		Short: "List the registered assets and their outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings()
			if err != nil {
				return err
			}
			reg, err := g.loadRegistry(s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, spec := range reg.Specs() {
				status := "present"
				if _, err := os.Stat(spec.SourcePath); err != nil {
					status = "missing"
				}

				widths := make([]string, len(spec.Widths))
				for i, w := range spec.Widths {
					widths[i] = fmt.Sprint(w)
				}

				fmt.Fprintf(out, "%s\n", spec.Name)
				fmt.Fprintf(out, "  source:  %s (%s)\n", spec.SourcePath, status)
				fmt.Fprintf(out, "  output:  %s\n", spec.OutputDir)
				fmt.Fprintf(out, "  widths:  %s\n", strings.Join(widths, ", "))
			}
			return nil
		},
	}
}
