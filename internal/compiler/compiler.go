// Package compiler compiles the user's dynamic configuration module
// (leapforge.star) into a serialized program artifact, reloads it, and calls
// its configure(ctx) function to obtain the raw configuration.
//
// Only the module and its local relative load() imports are compiled;
// predeclared built-in modules stay external. The artifact is written to a
// uniquely named temporary file so concurrent invocations never collide.
package compiler

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapforge/pkg/core"
	starjson "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// EntryFileName is the conventional name of the configuration module.
const EntryFileName = "leapforge.star"

// entryFunction is the global configure() must be exported as.
const entryFunction = "configure"

// Compiler compiles and executes configuration modules.
type Compiler struct {
	log    *slog.Logger
	tmpDir string
}

// New creates a compiler writing artifacts to the system temp directory.
func New(log *slog.Logger) *Compiler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Compiler{log: log, tmpDir: os.TempDir()}
}

// result is one completed compile-and-invoke attempt.
type result struct {
	raw   map[string]any
	files []string // entry plus local imports, absolute paths
}

// Run performs a one-shot compile, load, and invoke. The temporary artifact
// is removed on every exit path.
func (c *Compiler) Run(cctx *core.Context, entry string) (map[string]any, error) {
	artifact := c.artifactPath()
	defer func() { _ = os.Remove(artifact) }()

	res, err := c.compileAndRun(cctx, entry, artifact)
	if err != nil {
		return nil, err
	}
	return res.raw, nil
}

// artifactPath returns a collision-free temp path for a compiled artifact.
func (c *Compiler) artifactPath() string {
	return filepath.Join(c.tmpDir, fmt.Sprintf("leapforge-%s.starc", uuid.NewString()))
}

// predeclared returns the built-in globals available to configuration
// modules. These stay external to the compiled artifact.
func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"json":   starjson.Module,
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	}
}

// compileAndRun compiles entry to the artifact path, reloads the artifact,
// executes the module, and calls configure(ctx). A fresh import cache is
// used per attempt so reloads always observe the latest code.
func (c *Compiler) compileAndRun(cctx *core.Context, entry, artifact string) (*result, error) {
	absEntry, err := filepath.Abs(entry)
	if err != nil {
		return nil, &core.CompileError{File: entry, Detail: err.Error()}
	}

	src, err := os.ReadFile(absEntry)
	if err != nil {
		return nil, &core.CompileError{File: entry, Detail: fmt.Sprintf("read: %v", err)}
	}

	decls := predeclared()
	_, prog, err := starlark.SourceProgram(absEntry, src, decls.Has) //nolint:staticcheck // SA1019: will migrate to SourceProgramOptions later
	if err != nil {
		return nil, &core.CompileError{File: entry, Detail: err.Error()}
	}

	if err := writeArtifact(prog, artifact); err != nil {
		return nil, &core.CompileError{File: entry, Detail: err.Error()}
	}
	prog = nil // the reloaded artifact is the only program kept alive

	loaded, err := loadArtifact(artifact)
	if err != nil {
		return nil, &core.LoadError{File: entry, Message: fmt.Sprintf("artifact: %v", err)}
	}

	imports := newImportLoader(filepath.Dir(absEntry), decls)
	thread := &starlark.Thread{
		Name: "configure",
		Load: imports.load,
		Print: func(_ *starlark.Thread, msg string) {
			c.log.Debug("config module print", "message", msg)
		},
	}

	globals, err := loaded.Init(thread, decls)
	if err != nil {
		return nil, &core.LoadError{File: entry, Message: err.Error()}
	}

	fn, ok := globals[entryFunction]
	if !ok {
		return nil, &core.LoadError{File: entry, Message: "configure function missing"}
	}
	if _, ok := fn.(starlark.Callable); !ok {
		return nil, &core.LoadError{
			File:    entry,
			Message: fmt.Sprintf("configure is not callable (got %s)", fn.Type()),
		}
	}

	ret, err := starlark.Call(thread, fn, starlark.Tuple{contextValue(cctx)}, nil)
	if err != nil {
		return nil, &core.LoadError{File: entry, Message: err.Error()}
	}

	dict, ok := ret.(*starlark.Dict)
	if !ok {
		return nil, &core.ShapeError{Got: ret.Type()}
	}
	rawAny, err := toGo(dict)
	if err != nil {
		return nil, &core.ShapeError{Got: err.Error()}
	}
	raw := rawAny.(map[string]any)

	files := append([]string{absEntry}, imports.files()...)
	return &result{raw: raw, files: files}, nil
}

// writeArtifact serializes the compiled program.
func writeArtifact(prog *starlark.Program, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if err := prog.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("artifact write: %w", err)
	}
	return f.Close()
}

// loadArtifact decodes a previously serialized program.
func loadArtifact(path string) (*starlark.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return starlark.CompiledProgram(f)
}
