package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapforge/internal/testutil"
	"github.com/leapstack-labs/leapforge/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func newTestCompiler(t *testing.T) *Compiler {
	t.Helper()
	c := New(testutil.NewTestLogger(t))
	c.tmpDir = t.TempDir()
	return c
}

func devContext(root string) *core.Context {
	return &core.Context{
		Command:  core.CommandDev,
		Mode:     core.ModeDevelopment,
		Dev:      true,
		Platform: core.PlatformWeb,
		Arch:     "amd64",
		RootDir:  root,
		SrcDir:   filepath.Join(root, "src"),
		OutDir:   filepath.Join(root, "dist"),
		CacheDir: filepath.Join(root, ".leapforge"),
		Package:  core.PackageInfo{Name: "demo", Version: "0.0.1"},
	}
}

func TestRunValidModule(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, EntryFileName, `
def configure(ctx):
    return {
        "server": {"port": 4000},
        "build": {"minify": not ctx.dev},
        "env": {"MODE": ctx.mode},
    }
`)
	c := newTestCompiler(t)

	raw, err := c.Run(devContext(dir), entry)
	require.NoError(t, err)

	server, ok := raw["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(4000), server["port"])

	build, ok := raw["build"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, build["minify"], "ctx.dev is visible to the module")

	env, ok := raw["env"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "development", env["MODE"])
}

func TestRunContextFields(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, EntryFileName, `
def configure(ctx):
    return {
        "env": {
            "CMD": ctx.command,
            "PLATFORM": ctx.platform,
            "ROOT": ctx.root_dir,
            "NAME": ctx.package.name,
            "VERSION": ctx.package.version,
        },
    }
`)
	c := newTestCompiler(t)

	raw, err := c.Run(devContext(dir), entry)
	require.NoError(t, err)

	env := raw["env"].(map[string]any)
	assert.Equal(t, "dev", env["CMD"])
	assert.Equal(t, "web", env["PLATFORM"])
	assert.Equal(t, dir, env["ROOT"])
	assert.Equal(t, "demo", env["NAME"])
	assert.Equal(t, "0.0.1", env["VERSION"])
}

func TestRunLocalImport(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "ports.star", `
DEV_PORT = 4100
`)
	entry := writeModule(t, dir, EntryFileName, `
load("ports.star", "DEV_PORT")

def configure(ctx):
    return {"server": {"port": DEV_PORT}}
`)
	c := newTestCompiler(t)

	raw, err := c.Run(devContext(dir), entry)
	require.NoError(t, err)
	server := raw["server"].(map[string]any)
	assert.Equal(t, int64(4100), server["port"])
}

func TestRunNestedImport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "conf"), 0o755))
	writeModule(t, filepath.Join(dir, "conf"), "shared.star", `
ORIGIN = "http://dev.local"
`)
	entry := writeModule(t, dir, EntryFileName, `
load("conf/shared.star", "ORIGIN")

def configure(ctx):
    return {"server": {"origin": ORIGIN}}
`)
	c := newTestCompiler(t)

	raw, err := c.Run(devContext(dir), entry)
	require.NoError(t, err)
	server := raw["server"].(map[string]any)
	assert.Equal(t, "http://dev.local", server["origin"])
}

func TestRunJSONBuiltin(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, EntryFileName, `
def configure(ctx):
    parsed = json.decode('{"flag": true}')
    return {"env": {"FLAG": json.encode(parsed["flag"])}}
`)
	c := newTestCompiler(t)

	raw, err := c.Run(devContext(dir), entry)
	require.NoError(t, err)
	env := raw["env"].(map[string]any)
	assert.Equal(t, "true", env["FLAG"])
}

func TestRunSyntaxError(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, EntryFileName, `
def configure(ctx)
    return {}
`)
	c := newTestCompiler(t)

	_, err := c.Run(devContext(dir), entry)
	var cerr *core.CompileError
	require.ErrorAs(t, err, &cerr)
}

func TestRunMissingFile(t *testing.T) {
	c := newTestCompiler(t)

	_, err := c.Run(devContext(t.TempDir()), filepath.Join(t.TempDir(), EntryFileName))
	var cerr *core.CompileError
	require.ErrorAs(t, err, &cerr)
}

func TestRunConfigureMissing(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, EntryFileName, `
def setup(ctx):
    return {}
`)
	c := newTestCompiler(t)

	_, err := c.Run(devContext(dir), entry)
	var lerr *core.LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Message, "missing")
}

func TestRunConfigureNotCallable(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, EntryFileName, `
configure = 42
`)
	c := newTestCompiler(t)

	_, err := c.Run(devContext(dir), entry)
	var lerr *core.LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Message, "not callable")
}

func TestRunModuleRaises(t *testing.T) {
	t.Run("during init", func(t *testing.T) {
		dir := t.TempDir()
		entry := writeModule(t, dir, EntryFileName, `
fail("broken at top level")

def configure(ctx):
    return {}
`)
		c := newTestCompiler(t)

		_, err := c.Run(devContext(dir), entry)
		var lerr *core.LoadError
		require.ErrorAs(t, err, &lerr)
	})

	t.Run("during the call", func(t *testing.T) {
		dir := t.TempDir()
		entry := writeModule(t, dir, EntryFileName, `
def configure(ctx):
    fail("broken inside configure")
`)
		c := newTestCompiler(t)

		_, err := c.Run(devContext(dir), entry)
		var lerr *core.LoadError
		require.ErrorAs(t, err, &lerr)
	})
}

func TestRunWrongReturnShape(t *testing.T) {
	tests := []struct {
		name string
		body string
		got  string
	}{
		{name: "list", body: `return []`, got: "list"},
		{name: "string", body: `return "nope"`, got: "string"},
		{name: "none", body: `return None`, got: "NoneType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			entry := writeModule(t, dir, EntryFileName, "def configure(ctx):\n    "+tt.body+"\n")
			c := newTestCompiler(t)

			_, err := c.Run(devContext(dir), entry)
			var serr *core.ShapeError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.got, serr.Got)
		})
	}
}

func TestRunImportRejected(t *testing.T) {
	tests := []struct {
		name string
		load string
	}{
		{name: "absolute path", load: `load("/etc/conf.star", "X")`},
		{name: "escaping path", load: `load("../outside.star", "X")`},
		{name: "wrong extension", load: `load("conf.yaml", "X")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			entry := writeModule(t, dir, EntryFileName, tt.load+"\n\ndef configure(ctx):\n    return {}\n")
			c := newTestCompiler(t)

			_, err := c.Run(devContext(dir), entry)
			require.Error(t, err)
		})
	}
}

func TestRunArtifactRemoved(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, EntryFileName, `
def configure(ctx):
    return {}
`)
	c := newTestCompiler(t)

	_, err := c.Run(devContext(dir), entry)
	require.NoError(t, err)

	leftovers, err := filepath.Glob(filepath.Join(c.tmpDir, "leapforge-*.starc"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "one-shot runs must not leave artifacts behind")
}

func TestRunArtifactRemovedOnError(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, EntryFileName, `
def configure(ctx):
    return "nope"
`)
	c := newTestCompiler(t)

	_, err := c.Run(devContext(dir), entry)
	require.Error(t, err)

	leftovers, err := filepath.Glob(filepath.Join(c.tmpDir, "leapforge-*.starc"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
