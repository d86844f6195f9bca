package compiler

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/leapforge/pkg/core"
)

// coalesceWindow collapses the burst of filesystem events an editor emits
// for one save into a single recompile.
const coalesceWindow = 100 * time.Millisecond

// RebuildFunc is invoked once per compile attempt, success or failure.
type RebuildFunc func(raw map[string]any, err error)

// WatchSession is a persistent compiler session. It recompiles when the
// entry module or any of its local imports change and invokes the callback
// per attempt.
//
// One artifact path is reused across rebuilds and rewritten each time, so a
// reload always observes the latest code; the previous program is dropped
// before each reload. The artifact is removed only by Abort, never after a
// successful rebuild, leaving it available for inspection.
type WatchSession struct {
	c        *Compiler
	cctx     *core.Context
	entry    string
	artifact string
	onResult RebuildFunc
	watcher  *fsnotify.Watcher

	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	files    map[string]bool
	dirs     map[string]bool
}

// Watch starts a persistent session for entry. The first compile attempt
// runs immediately and is reported through onResult like every later one.
func (c *Compiler) Watch(cctx *core.Context, entry string, onResult RebuildFunc) (*WatchSession, error) {
	absEntry, err := filepath.Abs(entry)
	if err != nil {
		return nil, &core.CompileError{File: entry, Detail: err.Error()}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &core.CompileError{File: entry, Detail: err.Error()}
	}

	ws := &WatchSession{
		c:        c,
		cctx:     cctx,
		entry:    absEntry,
		artifact: c.artifactPath(),
		onResult: onResult,
		watcher:  watcher,
		done:     make(chan struct{}),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	ws.track([]string{absEntry})

	go ws.run()
	return ws, nil
}

// Artifact returns the path of the compiled artifact for inspection.
func (ws *WatchSession) Artifact() string { return ws.artifact }

// Close stops the session. The artifact stays on disk.
func (ws *WatchSession) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		close(ws.done)
		err = ws.watcher.Close()
	})
	return err
}

// Abort stops the session on a terminal failure path and removes the
// artifact.
func (ws *WatchSession) Abort() {
	_ = ws.Close()
	_ = os.Remove(ws.artifact)
}

// run performs the initial attempt, then serves filesystem events. All
// rebuilds happen on this goroutine, so at most one compile is in flight.
func (ws *WatchSession) run() {
	ws.rebuild()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ws.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-ws.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !ws.tracked(ev.Name) {
				continue
			}
			ws.c.log.Debug("config module changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(coalesceWindow)
			} else {
				timer.Stop()
				timer.Reset(coalesceWindow)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			ws.rebuild()

		case err, ok := <-ws.watcher.Errors:
			if !ok {
				return
			}
			ws.c.log.Warn("watcher error", "error", err)
		}
	}
}

// rebuild runs one compile attempt against the shared artifact path.
func (ws *WatchSession) rebuild() {
	res, err := ws.c.compileAndRun(ws.cctx, ws.entry, ws.artifact)
	if err != nil {
		ws.onResult(nil, err)
		return
	}
	ws.track(res.files)
	ws.onResult(res.raw, nil)
}

// track adds files (and their parent directories) to the watch set.
// Directories are watched rather than files so editor rename-and-replace
// saves keep being observed.
func (ws *WatchSession) track(files []string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, f := range files {
		ws.files[f] = true
		dir := filepath.Dir(f)
		if !ws.dirs[dir] {
			if err := ws.watcher.Add(dir); err != nil {
				ws.c.log.Warn("failed to watch directory", "dir", dir, "error", err)
				continue
			}
			ws.dirs[dir] = true
		}
	}
}

func (ws *WatchSession) tracked(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.files[abs]
}
