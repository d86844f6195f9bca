// Package config loads the static host-process options from leapforge.yaml,
// environment variables, and CLI flags. The dynamic configuration module is
// separate; this file only tells the pipeline where to find it and how to
// run it.
package config

import "github.com/leapstack-labs/leapforge/pkg/core"

// Config holds the host-process options.
type Config struct {
	// Entry is the configuration module path. Empty means
	// leapforge.star in the project root.
	Entry string `koanf:"entry"`

	// Root is the project root directory.
	Root string `koanf:"root"`

	Platform string `koanf:"platform"`
	Arch     string `koanf:"arch"`

	// Host and Port are the requested dev-server address; Negotiate
	// enables address negotiation.
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	Negotiate bool   `koanf:"negotiate"`

	Verbose bool `koanf:"verbose"`

	Package core.PackageInfo `koanf:"package"`
}
