// Package bundler maps the resolved configuration onto esbuild options and
// runs builds. Only the interface between the resolved configuration and
// the bundler lives here; everything past api.Build is esbuild's.
package bundler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/leapstack-labs/leapforge/pkg/core"
	"golang.org/x/sync/errgroup"
)

// targetNames maps configuration target strings to esbuild targets.
var targetNames = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// BuildOptions converts the resolved configuration into esbuild options for
// the given platform split.
func BuildOptions(cctx *core.Context, cfg *core.Config) api.BuildOptions {
	opts := api.BuildOptions{
		EntryPoints:   []string{filepath.Join(cctx.RootDir, cfg.Build.Entry)},
		Bundle:        true,
		Write:         true,
		Outdir:        cfg.Build.OutDir,
		AbsWorkingDir: cctx.RootDir,
		Define:        cfg.Build.Define,
		External:      cfg.Build.External,
		PublicPath:    cfg.Build.PublicPath,
		Format:        api.FormatESModule,
		LogLevel:      api.LogLevelSilent,
	}

	if cctx.Browser() {
		opts.Platform = api.PlatformBrowser
	} else {
		opts.Platform = api.PlatformNeutral
	}

	if t, ok := targetNames[strings.ToLower(cfg.Build.Target)]; ok {
		opts.Target = t
	} else {
		opts.Target = api.DefaultTarget
	}

	if cfg.Build.Minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}
	if cfg.Build.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}

	return opts
}

// Build runs one bundle for the resolved configuration.
func Build(cctx *core.Context, cfg *core.Config) error {
	return run(BuildOptions(cctx, cfg))
}

// BuildTargets bundles the client build and, when server-side rendering is
// enabled, the server build concurrently.
func BuildTargets(ctx context.Context, cctx *core.Context, cfg *core.Config) error {
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return run(BuildOptions(cctx, cfg))
	})

	if cfg.Server.SSR.Enabled {
		g.Go(func() error {
			opts := BuildOptions(cctx, cfg)
			opts.Platform = api.PlatformNeutral
			opts.Outdir = filepath.Join(cfg.Build.OutDir, "server")
			opts.Sourcemap = api.SourceMapNone
			return run(opts)
		})
	}

	return g.Wait()
}

// run executes a build and collects esbuild's errors into one error value.
func run(opts api.BuildOptions) error {
	result := api.Build(opts)
	if len(result.Errors) == 0 {
		return nil
	}

	var b strings.Builder
	for _, err := range result.Errors {
		if err.Location != nil {
			fmt.Fprintf(&b, "%s:%d:%d: %s\n",
				err.Location.File, err.Location.Line, err.Location.Column, err.Text)
		} else {
			fmt.Fprintf(&b, "%s\n", err.Text)
		}
	}
	return fmt.Errorf("bundle errors:\n%s", b.String())
}
