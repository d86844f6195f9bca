// Package envfile loads environment variables from dotenv files in the
// project root. Results are cached per (root, mode) and invalidated by file
// modification time, so unchanged files are not re-read across rebuilds.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/leapforge/pkg/core"
)

// Loader implements core.EnvFileLoader.
type Loader struct {
	mu    sync.Mutex
	cache map[string]*cached
}

type cached struct {
	result core.EnvFiles
	mtimes map[string]time.Time
}

// NewLoader creates an env-file loader with an empty cache.
func NewLoader() *Loader {
	return &Loader{cache: make(map[string]*cached)}
}

// Load reads .env and .env.{mode} from root, later files overriding earlier
// ones. Missing files are skipped; a file that exists but fails to parse is
// an error.
func (l *Loader) Load(root, mode string) (*core.EnvFiles, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	candidates := []string{".env"}
	if mode != "" {
		candidates = append(candidates, ".env."+mode)
	}

	var present []string
	mtimes := make(map[string]time.Time)
	for _, name := range candidates {
		path := filepath.Join(root, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		present = append(present, name)
		mtimes[name] = info.ModTime()
	}

	key := root + "\x00" + mode
	if c, ok := l.cache[key]; ok && sameMtimes(c.mtimes, mtimes) {
		out := c.result
		out.FromCache = true
		return &out, nil
	}

	k := koanf.New(".")
	for _, name := range present {
		path := filepath.Join(root, name)
		if err := k.Load(file.Provider(path), dotenv.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}

	vars := make(map[string]string)
	for key, v := range k.All() {
		vars[key] = fmt.Sprintf("%v", v)
	}

	result := core.EnvFiles{Variables: vars, FileNames: present}
	l.cache[key] = &cached{result: result, mtimes: mtimes}

	out := result
	return &out, nil
}

func sameMtimes(a, b map[string]time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for name, t := range a {
		if !b[name].Equal(t) {
			return false
		}
	}
	return true
}
