package config

import (
	"strings"

	"github.com/leapstack-labs/leapforge/pkg/core"
)

// Platform fragment defaults. Each fragment contributes only to its own
// sub-tree; scalars fill empty fields, lists are unioned and de-duplicated.
var (
	defaultDesktopFormats    = []string{"appimage", "dmg", "msi"}
	defaultMobilePermissions = []string{"internet"}
	defaultEmbeddedFeatures  = []string{"net"}
)

// applyPlatformFragment merges the default fragment of the selected platform
// into the configuration.
func applyPlatformFragment(cctx *core.Context, cfg *core.Config) {
	switch cctx.Platform {
	case core.PlatformDesktop:
		cfg.Desktop.Enabled = true
		if cfg.Desktop.Identifier == "" {
			cfg.Desktop.Identifier = defaultIdentifier(cctx.Package.Name)
		}
		cfg.Desktop.Formats = unionStrings(cfg.Desktop.Formats, defaultDesktopFormats)

	case core.PlatformIOS, core.PlatformAndroid:
		cfg.Mobile.Enabled = true
		if cfg.Mobile.Scheme == "" {
			cfg.Mobile.Scheme = schemeFromName(cctx.Package.Name)
		}
		cfg.Mobile.Permissions = unionStrings(cfg.Mobile.Permissions, defaultMobilePermissions)

	case core.PlatformEmbedded:
		cfg.Embedded.Enabled = true
		if cfg.Embedded.Toolchain == "" {
			cfg.Embedded.Toolchain = "arm-none-eabi"
		}
		cfg.Embedded.Features = unionStrings(cfg.Embedded.Features, defaultEmbeddedFeatures)
	}
}

// unionStrings unions two lists, de-duplicated, keeping the first list's
// order and appending new entries from the second.
func unionStrings(first, second []string) []string {
	seen := make(map[string]bool, len(first)+len(second))
	out := make([]string, 0, len(first)+len(second))
	for _, s := range first {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, s := range second {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// defaultIdentifier derives a reverse-DNS identifier from the package name.
func defaultIdentifier(name string) string {
	if name == "" {
		name = "app"
	}
	return "com.leapforge." + sanitizeName(name)
}

// schemeFromName derives a URL scheme from the package name.
func schemeFromName(name string) string {
	if name == "" {
		return "app"
	}
	return sanitizeName(name)
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "app"
	}
	return b.String()
}
