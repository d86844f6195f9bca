package config

import "github.com/leapstack-labs/leapforge/pkg/core"

// Default configuration values.
const (
	DefaultHost   = "localhost"
	DefaultPort   = 3000
	DefaultEntry  = "src/index.js"
	DefaultOutDir = "dist"

	// DefaultBrowserTarget and DefaultNodeTarget are the compiler target
	// strings for browser and non-browser builds.
	DefaultBrowserTarget = "es2020"
	DefaultNodeTarget    = "esnext"
)

// defaultSkeleton returns the exhaustive default tree the raw configuration
// is merged over. Every nested branch a derivation pass reads exists here,
// so no pass ever sees a missing parent.
func defaultSkeleton(cctx *core.Context) map[string]any {
	return map[string]any{
		"server": map[string]any{
			"host":   DefaultHost,
			"port":   DefaultPort,
			"origin": "",
			"ssr": map[string]any{
				"enabled":  false,
				"strategy": "",
			},
		},
		"build": map[string]any{
			"entry":       DefaultEntry,
			"out_dir":     DefaultOutDir,
			"target":      "",
			"define":      map[string]any{},
			"external":    []any{},
			"minify":      !cctx.Dev,
			"sourcemap":   cctx.Dev,
			"public_path": "",
			"router_base": "",
			"naming_case": core.NamingKebab,
			"assets":      []any{},
		},
		"desktop": map[string]any{
			"enabled":         false,
			"identifier":      "",
			"formats":         []any{},
			"single_instance": false,
		},
		"mobile": map[string]any{
			"enabled":     false,
			"scheme":      "",
			"permissions": []any{},
		},
		"embedded": map[string]any{
			"enabled":   false,
			"toolchain": "",
			"features":  []any{},
		},
		"env": map[string]any{},
		"meta": map[string]any{
			"flags":     map[string]any{},
			"env_files": []any{},
		},
	}
}

// defaultDefine returns the symbol-replacement table for the build target
// segment. User-supplied entries always win over these.
func defaultDefine(cctx *core.Context) map[string]string {
	dev := "false"
	if cctx.Dev {
		dev = "true"
	}
	define := map[string]string{
		"process.env.NODE_ENV": `"` + cctx.Mode + `"`,
		"__DEV__":              dev,
	}
	if cctx.Browser() {
		define["global"] = "window"
	} else {
		define["global"] = "globalThis"
	}
	return define
}
