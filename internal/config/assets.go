package config

import (
	"path"
	"strings"
)

// OverrideMarker prefixes an asset entry that must be used verbatim instead
// of receiving the assets/ prefix.
const OverrideMarker = "~"

// assetPrefix is prepended to unmarked asset entries.
const assetPrefix = "assets"

// NormalizeAssets applies the path-prefixing rule and de-duplicates on the
// resolved path. The first occurrence of a path wins.
func NormalizeAssets(entries []string) []string {
	seen := make(map[string]bool, len(entries))
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		var resolved string
		if strings.HasPrefix(entry, OverrideMarker) {
			resolved = path.Clean(strings.TrimPrefix(entry, OverrideMarker))
		} else {
			resolved = path.Join(assetPrefix, entry)
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		out = append(out, resolved)
	}
	return out
}
