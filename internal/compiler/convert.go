package compiler

import (
	"fmt"

	"github.com/leapstack-labs/leapforge/pkg/core"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// contextValue exposes the compilation context to configure() as a frozen
// struct value.
func contextValue(ctx *core.Context) starlark.Value {
	pkg := starlarkstruct.FromStringDict(starlark.String("package"), starlark.StringDict{
		"name":    starlark.String(ctx.Package.Name),
		"version": starlark.String(ctx.Package.Version),
	})
	s := starlarkstruct.FromStringDict(starlark.String("ctx"), starlark.StringDict{
		"command":   starlark.String(ctx.Command),
		"mode":      starlark.String(ctx.Mode),
		"dev":       starlark.Bool(ctx.Dev),
		"platform":  starlark.String(ctx.Platform),
		"arch":      starlark.String(ctx.Arch),
		"root_dir":  starlark.String(ctx.RootDir),
		"src_dir":   starlark.String(ctx.SrcDir),
		"out_dir":   starlark.String(ctx.OutDir),
		"cache_dir": starlark.String(ctx.CacheDir),
		"package":   pkg,
	})
	s.Freeze()
	return s
}

// toGo converts a Starlark value to its Go representation.
// Returns: string, int64, float64, bool, []any, map[string]any, or nil.
func toGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil

	case starlark.String:
		return string(val), nil

	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return val.String(), nil
		}
		return i64, nil

	case starlark.Float:
		return float64(val), nil

	case starlark.Bool:
		return bool(val), nil

	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := toGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case *starlark.Tuple:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := toGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case *starlark.Dict:
		result := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := toGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			result[string(key)] = gv
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Type())
	}
}
