// Package pipeline ties the compiler, deriver, and address resolver into
// the two entry points of the system: a one-shot Resolve and a persistent
// watch Scheduler with a two-phase startup handshake.
package pipeline

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/leapforge/internal/compiler"
	"github.com/leapstack-labs/leapforge/internal/config"
	"github.com/leapstack-labs/leapforge/internal/envfile"
	"github.com/leapstack-labs/leapforge/internal/layout"
	"github.com/leapstack-labs/leapforge/pkg/core"
)

// DebounceWindow is the quiet period applied to rebuild delivery once a
// session is live. Bursts inside the window collapse into one update.
const DebounceWindow = 550 * time.Millisecond

// Options configure one pipeline run or session.
type Options struct {
	// Entry is the configuration module path. Defaults to leapforge.star
	// in the context's root directory.
	Entry string

	// Host, Port, and Negotiate control dev-server address negotiation.
	Host      string
	Port      int
	Negotiate bool

	// Plugins are extension hooks run during derivation pass one.
	Plugins []core.Plugin

	// OnUpdate receives debounced updates for accepted rebuilds once the
	// session is live. Only the Scheduler uses it.
	OnUpdate func(*core.Config)

	// EnvFiles and Layout replace the default collaborators, mainly for
	// tests.
	EnvFiles core.EnvFileLoader
	Layout   core.LayoutValidator

	// Debounce overrides DebounceWindow when positive.
	Debounce time.Duration
}

func (o *Options) entry(cctx *core.Context) string {
	if o.Entry != "" {
		return o.Entry
	}
	return filepath.Join(cctx.RootDir, compiler.EntryFileName)
}

func (o *Options) deriver(log *slog.Logger) *config.Deriver {
	envFiles := o.EnvFiles
	if envFiles == nil {
		envFiles = envfile.NewLoader()
	}
	lay := o.Layout
	if lay == nil {
		lay = layout.Checker{}
	}
	return config.NewDeriver(log, nil, envFiles, lay, o.Plugins)
}

func (o *Options) deriveOptions() config.Options {
	return config.Options{Host: o.Host, Port: o.Port, Negotiate: o.Negotiate}
}

// Resolve compiles the configuration module once and derives the resolved
// configuration. The compiled artifact is removed on every exit path.
func Resolve(log *slog.Logger, cctx *core.Context, opts Options) (*core.Config, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	raw, err := compiler.New(log).Run(cctx, opts.entry(cctx))
	if err != nil {
		return nil, err
	}
	return opts.deriver(log).Derive(cctx, raw, opts.deriveOptions())
}
