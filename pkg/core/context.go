// Package core defines the shared types of the configuration pipeline:
// the compilation context handed to the user's configure() function, the
// resolved configuration consumed by the bundler and platform packagers,
// the error taxonomy, and the plugin contract.
package core

// Command values for Context.Command.
const (
	CommandDev   = "dev"
	CommandBuild = "build"
)

// Mode values for Context.Mode.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Supported target platforms.
const (
	PlatformWeb      = "web"
	PlatformDesktop  = "desktop"
	PlatformIOS      = "ios"
	PlatformAndroid  = "android"
	PlatformEmbedded = "embedded"
)

// PackageInfo carries the package metadata of the project being built.
type PackageInfo struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
}

// Context describes a single build invocation. The host process creates it
// once and never mutates it; every configure() call receives the same value.
type Context struct {
	Command  string
	Mode     string
	Dev      bool
	Platform string
	Arch     string

	RootDir  string
	SrcDir   string
	OutDir   string
	CacheDir string

	Package PackageInfo
}

// Browser reports whether the target platform runs the bundle in a browser
// runtime.
func (c *Context) Browser() bool {
	return c.Platform == PlatformWeb
}

// DeviceTarget reports whether the build is installed onto a separate
// physical device, which must reach the dev server over the network rather
// than via loopback.
func (c *Context) DeviceTarget() bool {
	return c.Platform == PlatformIOS || c.Platform == PlatformAndroid
}
