package commands

import (
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/leapforge/internal/pipeline"
	"github.com/leapstack-labs/leapforge/pkg/core"
	"github.com/spf13/cobra"
)

// NewResolveCommand resolves the configuration once and prints it.
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the configuration module and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			log := getLogger(cmd.Context())

			resolved, err := pipeline.Resolve(log, buildContext(cfg, core.CommandBuild), pipelineOptions(cfg))
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(resolved, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
