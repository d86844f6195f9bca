package core

// SSR rendering strategies accepted by ServerConfig.SSR.Strategy.
const (
	SSRStrategyStream = "stream"
	SSRStrategyBuffer = "buffer"
)

// Asset naming cases accepted by BuildConfig.NamingCase. Unknown values fall
// back to NamingKebab during derivation.
const (
	NamingKebab  = "kebab"
	NamingCamel  = "camel"
	NamingSnake  = "snake"
	NamingPascal = "pascal"
)

// SSRConfig holds server-side rendering settings.
type SSRConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Strategy string `koanf:"strategy"`
}

// ServerConfig holds dev-server network settings.
type ServerConfig struct {
	Host   string    `koanf:"host"`
	Port   int       `koanf:"port"`
	Origin string    `koanf:"origin"`
	SSR    SSRConfig `koanf:"ssr"`
}

// BuildConfig holds bundler settings.
type BuildConfig struct {
	Entry      string            `koanf:"entry"`
	OutDir     string            `koanf:"out_dir"`
	Target     string            `koanf:"target"`
	Define     map[string]string `koanf:"define"`
	External   []string          `koanf:"external"`
	Minify     bool              `koanf:"minify"`
	Sourcemap  bool              `koanf:"sourcemap"`
	PublicPath string            `koanf:"public_path"`
	RouterBase string            `koanf:"router_base"`
	NamingCase string            `koanf:"naming_case"`
	Assets     []string          `koanf:"assets"`
}

// DesktopConfig is the desktop packager sub-tree.
type DesktopConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Identifier     string   `koanf:"identifier"`
	Formats        []string `koanf:"formats"`
	SingleInstance bool     `koanf:"single_instance"`
}

// MobileConfig is the mobile packager sub-tree.
type MobileConfig struct {
	Enabled     bool     `koanf:"enabled"`
	Scheme      string   `koanf:"scheme"`
	Permissions []string `koanf:"permissions"`
}

// EmbeddedConfig is the embedded packager sub-tree.
type EmbeddedConfig struct {
	Enabled   bool     `koanf:"enabled"`
	Toolchain string   `koanf:"toolchain"`
	Features  []string `koanf:"features"`
}

// Metadata is a forward-only side channel written by the final derivation
// pass. Earlier passes never read it.
type Metadata struct {
	Flags    map[string]bool `koanf:"flags"`
	EnvFiles []string        `koanf:"env_files"`
}

// Config is the fully merged, derived, and validated configuration. Every
// field is populated after derivation even when the user supplied nothing.
type Config struct {
	Server   ServerConfig      `koanf:"server"`
	Build    BuildConfig       `koanf:"build"`
	Desktop  DesktopConfig     `koanf:"desktop"`
	Mobile   MobileConfig      `koanf:"mobile"`
	Embedded EmbeddedConfig    `koanf:"embedded"`
	Env      map[string]string `koanf:"env"`
	Meta     Metadata          `koanf:"meta"`
}

// EnvFiles is the result of loading environment files for a mode.
type EnvFiles struct {
	Variables map[string]string
	FileNames []string
	FromCache bool
}

// EnvFileLoader loads mode-specific environment files from a project root.
type EnvFileLoader interface {
	Load(root, mode string) (*EnvFiles, error)
}

// LayoutValidator checks that required source entries exist under a root.
type LayoutValidator interface {
	Validate(root string, entries []string) error
}
