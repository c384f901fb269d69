package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kingspeech/assetgen/internal/assets"
	"github.com/kingspeech/assetgen/internal/derivative"
	"github.com/kingspeech/assetgen/internal/watch"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate derivatives whenever a source image changes",
		Long: `Runs a full generation, then watches the folders holding the registered
sources and regenerates an asset when its source is created or rewritten.
Failures while watching are logged and do not stop the watcher.`,
		Example: `  # Watch the site in the current directory
  assetgen watch --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings()
			if err != nil {
				return err
			}
			runner, _, err := newRunner(cmd, s, f)
			if err != nil {
				return err
			}
			reg, err := g.loadRegistry(s)
			if err != nil {
				return err
			}

			if _, err := runner.Run(cmd.Context(), reg); err != nil {
				return err
			}

			w, err := watch.New(reg, func(ctx context.Context, spec assets.AssetSpec) error {
				one, err := reg.Filter([]string{spec.Name})
				if err != nil {
					return err
				}
				_, err = runner.Run(ctx, one)
				return err
			})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				_ = w.Close()
				return err
			}
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&f.quality, "quality", derivative.DefaultQuality, "WebP quality 0-100 (overrides ASSETGEN_WEBP_QUALITY)")
	cmd.Flags().IntVar(&f.method, "method", derivative.DefaultMethod, "WebP compression effort 0-6 (overrides ASSETGEN_WEBP_METHOD)")

	return cmd
}
