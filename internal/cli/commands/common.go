// Package commands implements the leapforge subcommands.
package commands

import (
	"context"
	"log/slog"
	"path/filepath"

	cliconfig "github.com/leapstack-labs/leapforge/internal/cli/config"
	"github.com/leapstack-labs/leapforge/internal/compiler"
	"github.com/leapstack-labs/leapforge/internal/pipeline"
	"github.com/leapstack-labs/leapforge/pkg/core"
)

// ConfigKey stores the loaded host options in the command context.
type ConfigKey struct{}

// LoggerKey stores the logger in the command context.
type LoggerKey struct{}

// getConfig retrieves the host options from the command context.
func getConfig(ctx context.Context) *cliconfig.Config {
	if c, ok := ctx.Value(ConfigKey{}).(*cliconfig.Config); ok {
		return c
	}
	return &cliconfig.Config{Root: ".", Platform: core.PlatformWeb}
}

// getLogger retrieves the logger from the command context.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// buildContext assembles the immutable compilation context for one run.
func buildContext(cfg *cliconfig.Config, command string) *core.Context {
	mode := core.ModeProduction
	if command == core.CommandDev {
		mode = core.ModeDevelopment
	}
	return &core.Context{
		Command:  command,
		Mode:     mode,
		Dev:      command == core.CommandDev,
		Platform: cfg.Platform,
		Arch:     cfg.Arch,
		RootDir:  cfg.Root,
		SrcDir:   filepath.Join(cfg.Root, "src"),
		OutDir:   filepath.Join(cfg.Root, "dist"),
		CacheDir: filepath.Join(cfg.Root, ".leapforge"),
		Package:  cfg.Package,
	}
}

// compilerEntry mirrors the pipeline's entry default for display.
func compilerEntry(cfg *cliconfig.Config, cctx *core.Context) string {
	if cfg.Entry != "" {
		return cfg.Entry
	}
	return filepath.Join(cctx.RootDir, compiler.EntryFileName)
}

// pipelineOptions maps host options onto pipeline options.
func pipelineOptions(cfg *cliconfig.Config) pipeline.Options {
	return pipeline.Options{
		Entry:     cfg.Entry,
		Host:      cfg.Host,
		Port:      cfg.Port,
		Negotiate: cfg.Negotiate,
	}
}
