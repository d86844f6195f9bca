package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapforge/internal/bundler"
	"github.com/leapstack-labs/leapforge/internal/pipeline"
	"github.com/leapstack-labs/leapforge/pkg/core"
	"github.com/spf13/cobra"
)

// NewBuildCommand resolves the configuration and runs the production
// bundle.
func NewBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Resolve the configuration and run a production build",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			log := getLogger(cmd.Context())
			cctx := buildContext(cfg, core.CommandBuild)

			opts := pipelineOptions(cfg)
			opts.Negotiate = false // no dev server in a production build

			start := time.Now()
			resolved, err := pipeline.Resolve(log, cctx, opts)
			if err != nil {
				return err
			}
			log.Info("configuration resolved",
				"platform", cctx.Platform, "out_dir", resolved.Build.OutDir)

			if err := bundler.BuildTargets(cmd.Context(), cctx, resolved); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Build completed in %s\n",
				time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
