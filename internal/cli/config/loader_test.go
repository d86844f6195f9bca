package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.Root)
	assert.Equal(t, "web", cfg.Platform)
	assert.Equal(t, runtime.GOARCH, cfg.Arch)
	assert.True(t, cfg.Negotiate)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Entry)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `
root: `+dir+`
platform: desktop
host: 0.0.0.0
port: 4000
package:
  name: demo
  version: 1.2.3
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, "desktop", cfg.Platform)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "demo", cfg.Package.Name)
	assert.Equal(t, "1.2.3", cfg.Package.Version)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, "platform: desktop\n")

	t.Setenv("LEAPFORGE_PLATFORM", "android")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "android", cfg.Platform)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("LEAPFORGE_PORT", "4000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("platform", "web", "")
	require.NoError(t, flags.Parse([]string{"--port", "5000"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port, "changed flags win over environment")
	assert.Equal(t, "web", cfg.Platform, "unchanged flags do not override")
}

func TestLoadRelativeEntryJoinedToRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `
root: `+dir+`
entry: conf/leapforge.star
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "conf", "leapforge.star"), cfg.Entry)
}

func TestLoadAbsoluteEntryKept(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "elsewhere", "leapforge.star")
	path := writeYAML(t, dir, `
root: `+dir+`
entry: `+entry+`
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, entry, cfg.Entry)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoadMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, "platform: [unclosed\n")

	_, err := Load(path, nil)
	require.Error(t, err)
}
