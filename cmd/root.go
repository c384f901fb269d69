package cmd

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kingspeech/assetgen/internal/assets"
	"github.com/kingspeech/assetgen/internal/config"
)

// globalFlags are shared by every subcommand and override the environment.
type globalFlags struct {
	root         string
	registryPath string
	only         []string
	verbose      bool
}

func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "assetgen",
		Short: "Generate web-optimized WebP derivatives for the landing page",
		Long: `Assetgen resizes the landing page source images into WebP derivatives.

Each registered asset produces one {base}-{width}.webp file per configured width
next to its output directory. Sources narrower than a target width are re-encoded
at their native size, never upscaled. Running without a subcommand is the same as
"assetgen generate".`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if g.verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, g, &generateFlags{})
		},
	}

	cmd.PersistentFlags().StringVar(&g.root, "root", "", "Site root directory (overrides ASSETGEN_ROOT)")
	cmd.PersistentFlags().StringVar(&g.registryPath, "registry", "", "YAML asset registry (overrides ASSETGEN_REGISTRY)")
	cmd.PersistentFlags().StringSliceVar(&g.only, "only", nil, "Restrict to the named assets")
	cmd.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Verbose logging")

	cmd.AddCommand(newGenerateCmd(g))
	cmd.AddCommand(newWatchCmd(g))
	cmd.AddCommand(newSpecsCmd(g))
	cmd.AddCommand(newInspectCmd())

	return cmd
}

func (g *globalFlags) settings() (*config.Settings, error) {
	s, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.root != "" {
		s.Root = g.root
	}
	if g.registryPath != "" {
		s.RegistryPath = g.registryPath
	}
	return s, nil
}

func (g *globalFlags) loadRegistry(s *config.Settings) (*assets.Registry, error) {
	reg, err := s.Registry()
	if err != nil {
		return nil, err
	}
	return reg.Filter(g.only)
}
