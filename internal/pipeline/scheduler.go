package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapforge/internal/compiler"
	"github.com/leapstack-labs/leapforge/internal/config"
	"github.com/leapstack-labs/leapforge/pkg/core"
)

// Phase is the watch session state.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseFirstBuildPending
	PhaseLive
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseFirstBuildPending:
		return "first-build-pending"
	case PhaseLive:
		return "live"
	default:
		return "unknown"
	}
}

// Scheduler drives the compiler in watch mode. The first completed
// compilation, success or failure, resolves synchronously to the Start
// caller; further rebuilds are delivered through the update callback only
// after the caller signals GoLive, each passed through the debounce window.
//
// Errors during the first cycle are returned from Start, and the caller is
// expected to terminate. Errors on later cycles are downgraded to warnings
// and the previously delivered configuration stays authoritative.
type Scheduler struct {
	log      *slog.Logger
	cctx     *core.Context
	opts     Options
	deriver  *config.Deriver
	comp     *compiler.Compiler
	debounce time.Duration

	session *compiler.WatchSession
	first   chan firstResult

	mu        sync.Mutex
	phase     Phase
	firstDone bool
	pending   *core.Config
	timer     *time.Timer
}

type firstResult struct {
	cfg *core.Config
	err error
}

// NewScheduler creates a scheduler in the Initializing phase.
func NewScheduler(log *slog.Logger, cctx *core.Context, opts Options) *Scheduler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DebounceWindow
	}
	return &Scheduler{
		log:      log,
		cctx:     cctx,
		opts:     opts,
		deriver:  opts.deriver(log),
		comp:     compiler.New(log),
		debounce: debounce,
		first:    make(chan firstResult, 1),
		phase:    PhaseInitializing,
	}
}

// Start begins the watch session and blocks until the first compilation
// cycle completes, returning its result. On failure the session is aborted
// and the compiled artifact removed; no usable configuration exists yet, so
// the caller should treat the error as fatal.
func (s *Scheduler) Start() (*core.Config, error) {
	s.mu.Lock()
	s.phase = PhaseFirstBuildPending
	s.mu.Unlock()

	session, err := s.comp.Watch(s.cctx, s.opts.entry(s.cctx), s.handleResult)
	if err != nil {
		return nil, err
	}
	s.session = session

	r := <-s.first
	if r.err != nil {
		session.Abort()
		return nil, r.err
	}
	return r.cfg, nil
}

// GoLive transitions the session from FirstBuildPending to Live. The
// transition happens at most once; the session stays Live afterwards.
func (s *Scheduler) GoLive() {
	s.mu.Lock()
	if s.phase == PhaseFirstBuildPending {
		s.phase = PhaseLive
	}
	s.mu.Unlock()
}

// Phase returns the current session phase.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ArtifactPath returns the compiled artifact location for inspection.
func (s *Scheduler) ArtifactPath() string {
	if s.session == nil {
		return ""
	}
	return s.session.Artifact()
}

// Close stops the session. The compiled artifact stays on disk.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	return s.session.Close()
}

// handleResult receives every compile attempt from the watch session,
// derives the configuration, and applies the phase-dependent delivery
// policy. Compile attempts arrive strictly in emission order.
func (s *Scheduler) handleResult(raw map[string]any, err error) {
	var cfg *core.Config
	if err == nil {
		cfg, err = s.deriver.Derive(s.cctx, raw, s.opts.deriveOptions())
	}

	s.mu.Lock()
	if s.phase != PhaseLive {
		if !s.firstDone {
			s.firstDone = true
			s.mu.Unlock()
			s.first <- firstResult{cfg: cfg, err: err}
			return
		}
		s.mu.Unlock()
		// The module changed again before the caller consumed the first
		// result. Rare but legitimate.
		if err != nil {
			s.log.Warn("rebuild failed before session went live", "error", err)
		} else {
			s.log.Warn("rebuild completed before session went live, discarding update")
		}
		return
	}

	if err != nil {
		s.mu.Unlock()
		s.log.Warn("rebuild failed, keeping previous configuration", "error", err)
		return
	}

	s.pending = cfg
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flush)
	} else {
		s.timer.Stop()
		s.timer.Reset(s.debounce)
	}
	s.mu.Unlock()
}

// flush delivers the most recent pending update after a quiet window.
func (s *Scheduler) flush() {
	s.mu.Lock()
	cfg := s.pending
	s.pending = nil
	s.mu.Unlock()

	if cfg == nil {
		return
	}
	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(cfg)
	}
}
