package config

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FormatPublicPath normalizes the public base path: empty input is the
// root, a full URL keeps its scheme and host and only gets a trailing slash
// enforced, anything else gets a leading and trailing slash.
func FormatPublicPath(s string) string {
	if s == "" || s == "/" {
		return "/"
	}
	if isAbsoluteURL(s) {
		if !strings.HasSuffix(s, "/") {
			s += "/"
		}
		return s
	}
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s
}

// RouterBase derives the router base from a public path. For a URL the base
// is the path component with query and fragment ignored; a plain path is
// returned in its normalized form.
func RouterBase(publicPath string) string {
	if !isAbsoluteURL(publicPath) {
		return FormatPublicPath(publicPath)
	}
	u, err := url.Parse(publicPath)
	if err != nil || u.Path == "" {
		return "/"
	}
	return FormatPublicPath(u.Path)
}

// absOutDir resolves a relative output directory against the project root.
func absOutDir(root, out string) string {
	if out == "" {
		out = DefaultOutDir
	}
	if filepath.IsAbs(out) {
		return filepath.Clean(out)
	}
	return filepath.Join(root, out)
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
