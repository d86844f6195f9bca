package core

import (
	"log/slog"
	"os"
)

// Plugin is an extension hook invoked during the first derivation pass.
// Hooks run in registration order and may mutate the configuration in place.
type Plugin struct {
	Name  string
	Setup func(cfg *Config, api *PluginAPI) error
}

// PluginAPI is the handle passed to plugin hooks alongside the mutable
// configuration.
type PluginAPI struct {
	Context *Context
	Logger  *slog.Logger

	flags map[string]bool
}

// NewPluginAPI creates the hook handle for one derivation run.
func NewPluginAPI(ctx *Context, logger *slog.Logger) *PluginAPI {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PluginAPI{
		Context: ctx,
		Logger:  logger,
		flags:   make(map[string]bool),
	}
}

// Env looks up a process environment variable.
func (a *PluginAPI) Env(key string) (string, bool) {
	return os.LookupEnv(key)
}

// SetFlag records a feature flag. Flags surface in Meta.Flags after the
// final derivation pass; they are never visible to earlier passes.
func (a *PluginAPI) SetFlag(name string, value bool) {
	a.flags[name] = value
}

// Flags returns the flags recorded by hooks so far.
func (a *PluginAPI) Flags() map[string]bool {
	return a.flags
}
