package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leapforge/internal/pipeline"
	"github.com/leapstack-labs/leapforge/pkg/core"
	"github.com/spf13/cobra"
)

// NewDevCommand starts the watch pipeline. The first resolution is
// delivered synchronously; afterwards the session goes live and accepted
// rebuilds arrive debounced until interrupted.
func NewDevCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dev",
		Short: "Watch the configuration module and keep it resolved",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			log := getLogger(cmd.Context())
			cctx := buildContext(cfg, core.CommandDev)

			opts := pipelineOptions(cfg)
			opts.OnUpdate = func(resolved *core.Config) {
				log.Info("configuration updated",
					"host", resolved.Server.Host, "port", resolved.Server.Port)
			}

			sched := pipeline.NewScheduler(log, cctx, opts)
			resolved, err := sched.Start()
			if err != nil {
				// No usable configuration exists yet.
				return err
			}
			defer func() { _ = sched.Close() }()

			fmt.Fprintf(cmd.OutOrStdout(), "Dev server address: http://%s:%d\n",
				resolved.Server.Host, resolved.Server.Port)
			log.Debug("compiled artifact", "path", sched.ArtifactPath())

			sched.GoLive()
			log.Info("watching configuration module", "entry", compilerEntry(cfg, cctx))

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigChan:
				fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
}
