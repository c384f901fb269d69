package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kingspeech/assetgen/internal/config"
	"github.com/kingspeech/assetgen/internal/derivative"
	"github.com/kingspeech/assetgen/internal/manifest"
	"github.com/kingspeech/assetgen/internal/pipeline"
)

type generateFlags struct {
	quality     int
	method      int
	jobs        int
	manifest    string
	incremental bool
	dryRun      bool
}

func newGenerateCmd(g *globalFlags) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate all registered derivatives",
		Long: `Creates the output directories, then writes every derivative of every
registered asset. A missing source is reported and skipped; an undecodable
source or an unwritable output aborts the run with a non-zero exit status.

Every run is a full rebuild unless --incremental is given, in which case
outputs newer than their source are left in place.`,
		Example: `  # Regenerate everything under the current directory
  assetgen generate

  # Only the hero banner, and record what was written
  assetgen generate --only hero --manifest build/assets.yaml

  # Show the files that would be written
  assetgen generate --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, g, f)
		},
	}

	cmd.Flags().IntVar(&f.quality, "quality", derivative.DefaultQuality, "WebP quality 0-100 (overrides ASSETGEN_WEBP_QUALITY)")
	cmd.Flags().IntVar(&f.method, "method", derivative.DefaultMethod, "WebP compression effort 0-6 (overrides ASSETGEN_WEBP_METHOD)")
	cmd.Flags().IntVar(&f.jobs, "jobs", 1, "Assets processed concurrently (overrides ASSETGEN_JOBS)")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "Write a run manifest (.yaml or .parquet)")
	cmd.Flags().BoolVar(&f.incremental, "incremental", false, "Skip outputs newer than their source")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print planned outputs without writing")

	return cmd
}

func runGenerate(cmd *cobra.Command, g *globalFlags, f *generateFlags) error {
	s, err := g.settings()
	if err != nil {
		return err
	}
	runner, opts, err := newRunner(cmd, s, f)
	if err != nil {
		return err
	}
	reg, err := g.loadRegistry(s)
	if err != nil {
		return err
	}

	if f.dryRun {
		runner.Plan(reg)
		return nil
	}

	report, err := runner.Run(cmd.Context(), reg)
	if err != nil {
		return err
	}

	if f.manifest != "" {
		if err := manifest.Write(f.manifest, report.Manifest(opts)); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		slog.Info("Manifest written", "path", f.manifest)
	}
	return nil
}

// newRunner merges settings from the environment with explicitly set flags.
func newRunner(cmd *cobra.Command, s *config.Settings, f *generateFlags) (*pipeline.Runner, derivative.Options, error) {
	flags := cmd.Flags()
	if flags.Changed("quality") {
		s.Quality = f.quality
	}
	if flags.Changed("method") {
		s.Method = f.method
	}
	if flags.Changed("jobs") {
		s.Jobs = f.jobs
	}
	if err := s.Validate(); err != nil {
		return nil, derivative.Options{}, err
	}

	opts := s.GeneratorOptions()
	opts.Incremental = f.incremental

	return &pipeline.Runner{
		Generator: derivative.New(opts),
		Out:       cmd.OutOrStdout(),
		Jobs:      s.Jobs,
	}, opts, nil
}
