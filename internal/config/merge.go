package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/leapforge/pkg/core"
)

// mergeDelim separates nested keys during the flatten/merge round trip.
// "." would split define-table keys like "process.env.NODE_ENV".
const mergeDelim = "::"

// merge deep-merges the raw configuration over the default skeleton and
// unmarshals the result into the typed tree. Scalars are last-write-wins;
// nested branches merge key by key.
func merge(cctx *core.Context, raw map[string]any) (*core.Config, error) {
	k := koanf.New(mergeDelim)
	if err := k.Load(confmap.Provider(defaultSkeleton(cctx), mergeDelim), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if len(raw) > 0 {
		if err := k.Load(confmap.Provider(raw, mergeDelim), nil); err != nil {
			return nil, fmt.Errorf("failed to merge configuration: %w", err)
		}
	}

	var cfg core.Config
	dc := &mapstructure.DecoderConfig{
		TagName:          "koanf",
		WeaklyTypedInput: true,
		Result:           &cfg,
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", DecoderConfig: dc}); err != nil {
		return nil, &core.ValidationError{Field: "config", Message: err.Error()}
	}

	// Later passes index these without nil checks.
	if cfg.Build.Define == nil {
		cfg.Build.Define = make(map[string]string)
	}
	if cfg.Env == nil {
		cfg.Env = make(map[string]string)
	}
	if cfg.Meta.Flags == nil {
		cfg.Meta.Flags = make(map[string]bool)
	}
	return &cfg, nil
}
