// Package config derives the canonical resolved configuration: the raw
// value returned by the user's configure() function is deep-merged over an
// exhaustive default skeleton, then an ordered set of derivation passes
// fills in cross-field values. Later passes read only fields earlier passes
// produced; any failure aborts the whole derivation, so a caller never sees
// a partially derived result.
package config

import (
	"log/slog"
	"net"
	"strconv"

	"github.com/leapstack-labs/leapforge/internal/address"
	"github.com/leapstack-labs/leapforge/pkg/core"
)

// Options are the caller-supplied knobs for one derivation.
type Options struct {
	// Host and Port override the merged dev-server request when set.
	Host string
	Port int

	// Negotiate enables address negotiation for the dev server.
	Negotiate bool
}

// Deriver runs the merge and derivation pipeline. The address resolver it
// holds keeps its negotiation cache across calls, so repeated derivations in
// one watch session do not rebind.
type Deriver struct {
	log      *slog.Logger
	addrs    *address.Resolver
	envFiles core.EnvFileLoader
	layout   core.LayoutValidator
	plugins  []core.Plugin
}

// NewDeriver wires a deriver. envFiles and layout may be nil, in which case
// the corresponding steps are skipped.
func NewDeriver(log *slog.Logger, addrs *address.Resolver, envFiles core.EnvFileLoader, layout core.LayoutValidator, plugins []core.Plugin) *Deriver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if addrs == nil {
		addrs = address.NewResolver(log)
	}
	return &Deriver{
		log:      log,
		addrs:    addrs,
		envFiles: envFiles,
		layout:   layout,
		plugins:  plugins,
	}
}

// deriveState carries cross-pass scratch data for one derivation run.
type deriveState struct {
	cctx     *core.Context
	cfg      *core.Config
	opts     Options
	api      *core.PluginAPI
	envFiles []string
}

type pass struct {
	name string
	run  func(*deriveState) error
}

// Derive merges raw over the defaults and runs the ordered passes. It
// returns a complete configuration or an error, never a partial result.
func (d *Deriver) Derive(cctx *core.Context, raw map[string]any, opts Options) (*core.Config, error) {
	cfg, err := merge(cctx, raw)
	if err != nil {
		return nil, err
	}
	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}

	st := &deriveState{
		cctx: cctx,
		cfg:  cfg,
		opts: opts,
		api:  core.NewPluginAPI(cctx, d.log),
	}

	passes := []pass{
		{"plugins", d.runPlugins},
		{"mode", d.structureMode},
		{"targets", d.segmentTargets},
		{"paths", d.normalizePaths},
		{"platforms", d.selectPlatform},
		{"environment", d.assembleEnv},
		{"metadata", d.deriveMetadata},
	}
	for _, p := range passes {
		if err := p.run(st); err != nil {
			d.log.Debug("derivation aborted", "pass", p.name, "error", err)
			return nil, err
		}
	}
	return cfg, nil
}

// runPlugins invokes registered hooks in registration order. Any hook
// failure aborts the derivation.
func (d *Deriver) runPlugins(st *deriveState) error {
	for _, p := range d.plugins {
		if p.Setup == nil {
			continue
		}
		if err := p.Setup(st.cfg, st.api); err != nil {
			return &core.PluginError{Plugin: p.Name, Err: err}
		}
	}
	return nil
}

// structureMode applies mode-specific structure: layout validation, SSR
// defaults, dev-server address negotiation, asset normalization, and the
// naming-case enum.
func (d *Deriver) structureMode(st *deriveState) error {
	cfg := st.cfg

	if d.layout != nil {
		if err := d.layout.Validate(st.cctx.RootDir, []string{cfg.Build.Entry}); err != nil {
			return err
		}
	}

	ssr := &cfg.Server.SSR
	if ssr.Enabled && ssr.Strategy == "" {
		ssr.Strategy = core.SSRStrategyStream
	}
	if ssr.Strategy != "" && ssr.Strategy != core.SSRStrategyStream && ssr.Strategy != core.SSRStrategyBuffer {
		return &core.ValidationError{
			Field:   "server.ssr.strategy",
			Value:   ssr.Strategy,
			Allowed: []string{core.SSRStrategyStream, core.SSRStrategyBuffer},
		}
	}

	if st.opts.Negotiate {
		b, err := d.addrs.Negotiate(st.cctx, address.Request{
			Host: cfg.Server.Host,
			Port: cfg.Server.Port,
		})
		if err != nil {
			return err
		}
		cfg.Server.Host = b.Host
		cfg.Server.Port = b.Port
	}
	if cfg.Server.Origin == "" {
		cfg.Server.Origin = "http://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	}

	cfg.Build.Assets = NormalizeAssets(cfg.Build.Assets)

	switch cfg.Build.NamingCase {
	case core.NamingKebab, core.NamingCamel, core.NamingSnake, core.NamingPascal:
	default:
		d.log.Warn("unsupported naming case, falling back",
			"value", cfg.Build.NamingCase, "fallback", core.NamingKebab)
		cfg.Build.NamingCase = core.NamingKebab
	}
	return nil
}

// segmentTargets fills the symbol-replacement table and compiler target for
// the browser / non-browser split. User entries always win.
func (d *Deriver) segmentTargets(st *deriveState) error {
	cfg := st.cfg
	for key, value := range defaultDefine(st.cctx) {
		if _, ok := cfg.Build.Define[key]; !ok {
			cfg.Build.Define[key] = value
		}
	}
	if cfg.Build.Target == "" {
		if st.cctx.Browser() {
			cfg.Build.Target = DefaultBrowserTarget
		} else {
			cfg.Build.Target = DefaultNodeTarget
		}
	}
	return nil
}

// normalizePaths resolves the output directory and formats the public base
// path and router base.
func (d *Deriver) normalizePaths(st *deriveState) error {
	cfg := st.cfg
	cfg.Build.OutDir = absOutDir(st.cctx.RootDir, cfg.Build.OutDir)
	cfg.Build.PublicPath = FormatPublicPath(cfg.Build.PublicPath)
	if cfg.Build.RouterBase == "" {
		cfg.Build.RouterBase = RouterBase(cfg.Build.PublicPath)
	}
	return nil
}

// selectPlatform merges the platform-specific default fragment.
func (d *Deriver) selectPlatform(st *deriveState) error {
	applyPlatformFragment(st.cctx, st.cfg)
	return nil
}

// assembleEnv flattens env-file variables and process/platform flags into
// one mapping. Explicit entries from the user configuration win last.
func (d *Deriver) assembleEnv(st *deriveState) error {
	vars := make(map[string]string)

	if d.envFiles != nil {
		ef, err := d.envFiles.Load(st.cctx.RootDir, st.cctx.Mode)
		if err != nil {
			return &core.ValidationError{Field: "env", Message: err.Error()}
		}
		for k, v := range ef.Variables {
			vars[k] = v
		}
		st.envFiles = ef.FileNames
		if ef.FromCache {
			d.log.Debug("environment files served from cache", "files", ef.FileNames)
		}
	}

	vars["LEAPFORGE_PLATFORM"] = st.cctx.Platform
	vars["LEAPFORGE_MODE"] = st.cctx.Mode
	vars["LEAPFORGE_ARCH"] = st.cctx.Arch
	vars["LEAPFORGE_DEV"] = strconv.FormatBool(st.cctx.Dev)
	if st.cctx.Package.Version != "" {
		vars["LEAPFORGE_VERSION"] = st.cctx.Package.Version
	}

	for k, v := range st.cfg.Env {
		vars[k] = v
	}
	st.cfg.Env = vars
	return nil
}

// deriveMetadata writes the forward-only feature-flag bag. No earlier pass
// reads it.
func (d *Deriver) deriveMetadata(st *deriveState) error {
	cfg := st.cfg
	flags := map[string]bool{
		"ssr":      cfg.Server.SSR.Enabled,
		"desktop":  cfg.Desktop.Enabled,
		"mobile":   cfg.Mobile.Enabled,
		"embedded": cfg.Embedded.Enabled,
		"plugins":  len(d.plugins) > 0,
	}
	for k, v := range st.api.Flags() {
		flags[k] = v
	}
	cfg.Meta.Flags = flags
	if st.envFiles == nil {
		st.envFiles = []string{}
	}
	cfg.Meta.EnvFiles = st.envFiles
	return nil
}
