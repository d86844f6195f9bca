package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
)

// importLoader resolves load() statements to local .star files relative to
// the entry module's directory. Absolute paths and paths escaping the module
// directory are rejected; built-in modules are served from predeclared and
// never touch disk.
//
// The cache lives for one compile attempt only, so a watch-mode reload
// always re-reads changed imports.
type importLoader struct {
	root  string
	decls starlark.StringDict
	cache map[string]*importEntry
}

type importEntry struct {
	globals starlark.StringDict
	err     error
}

func newImportLoader(root string, decls starlark.StringDict) *importLoader {
	return &importLoader{root: root, decls: decls, cache: make(map[string]*importEntry)}
}

func (l *importLoader) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	if !strings.HasSuffix(module, ".star") {
		return nil, fmt.Errorf("cannot load %q: only local .star modules may be loaded", module)
	}
	if filepath.IsAbs(module) {
		return nil, fmt.Errorf("cannot load %q: absolute paths are not allowed", module)
	}

	path := filepath.Clean(filepath.Join(l.root, module))
	if !strings.HasPrefix(path, l.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("cannot load %q: module escapes the project directory", module)
	}

	if e, ok := l.cache[path]; ok {
		return e.globals, e.err
	}

	// Reserve the slot to break load cycles.
	e := &importEntry{err: fmt.Errorf("cycle in load graph at %q", module)}
	l.cache[path] = e

	src, err := os.ReadFile(path)
	if err != nil {
		e.err = fmt.Errorf("load %q: %w", module, err)
		return nil, e.err
	}

	sub := &starlark.Thread{Name: "load:" + module, Load: l.load, Print: thread.Print}
	globals, err := starlark.ExecFile(sub, path, src, l.decls) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	e.globals, e.err = globals, err
	return globals, err
}

// files returns the absolute paths of every module loaded so far, sorted.
func (l *importLoader) files() []string {
	out := make([]string, 0, len(l.cache))
	for path := range l.cache {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
