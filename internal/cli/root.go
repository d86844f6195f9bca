// Package cli provides the leapforge command-line interface.
package cli

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapforge/internal/cli/commands"
	"github.com/leapstack-labs/leapforge/internal/cli/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version = "0.1.0"
)

var cfgFile string

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapforge",
		Short: "LeapForge - Front-end build configuration pipeline",
		Long: `LeapForge resolves a dynamic Starlark configuration module
(leapforge.star) into the canonical configuration consumed by the bundler,
the dev server, and the platform packagers.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))

			ctx := context.WithValue(cmd.Context(), commands.ConfigKey{}, cfg)
			ctx = context.WithValue(ctx, commands.LoggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./leapforge.yaml)")
	rootCmd.PersistentFlags().String("root", "", "project root directory")
	rootCmd.PersistentFlags().String("entry", "", "configuration module path (default: <root>/leapforge.star)")
	rootCmd.PersistentFlags().String("platform", "", "target platform (web|desktop|ios|android|embedded)")
	rootCmd.PersistentFlags().String("host", "", "requested dev server host")
	rootCmd.PersistentFlags().Int("port", 0, "requested dev server port")
	rootCmd.PersistentFlags().Bool("negotiate", true, "negotiate a bindable dev server address")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("platform", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"web", "desktop", "ios", "android", "embedded"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewResolveCommand())
	rootCmd.AddCommand(commands.NewDevCommand())
	rootCmd.AddCommand(commands.NewBuildCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
