// Package engine runs behavior trees and object pools on a single owner
// goroutine. Trees and pools are not safe for concurrent use; the Engine is the
// only place that touches them once Run has started, and callers reach them
// through Do.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/liquid/internal/core/behavior"
	"github.com/zeusync/liquid/internal/core/events"
	"github.com/zeusync/liquid/internal/core/observability/log"
	"github.com/zeusync/liquid/internal/core/pool"
)

var (
	ErrRunning       = errors.New("engine: already running")
	ErrStopped       = errors.New("engine: stopped")
	ErrDuplicateTree = errors.New("engine: duplicate tree name")
	ErrNilTree       = errors.New("engine: nil tree")
	// ErrHalt ends Run without an error when returned from a FrameHook.
	ErrHalt = errors.New("engine: halt")
)

// FrameHook runs at the start of every frame, before trees and pools advance.
type FrameHook func(e *Engine, frame uint64, delta time.Duration) error

// Stats is a snapshot of the engine counters.
type Stats struct {
	Frames      uint64
	Elapsed     time.Duration
	Trees       int
	TreeErrors  uint64
	Completions uint64
	Interrupts  uint64
	Pools       []pool.Stats
}

type Option func(*Engine)

func WithLogger(l log.Log) Option {
	return func(e *Engine) { e.log = log.OrNop(l) }
}

// WithBus subscribes the engine to tree notifications on b.
func WithBus(b events.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

type command struct {
	fn   func(*Engine) error
	done chan error
}

type runState struct {
	cmds    chan command
	stopped chan struct{}
}

type Engine struct {
	cfg   Config
	pools *pool.Manager

	trees map[string]*behavior.BehaviorTree
	order []string
	hooks []FrameHook

	frames      uint64
	elapsed     time.Duration
	treeErrors  uint64
	completions uint64
	interrupts  uint64

	state atomic.Pointer[runState]
	subs  []events.Subscription
	log   log.Log
	bus   events.Bus
}

func New(cfg Config, pools *pool.Manager, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pools == nil {
		return nil, errors.New("engine: nil pool manager")
	}
	e := &Engine{
		cfg:   cfg,
		pools: pools,
		trees: make(map[string]*behavior.BehaviorTree),
		log:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(log.String("component", "engine"))
	if e.bus != nil {
		e.subs = append(e.subs,
			e.bus.Subscribe(events.TypeTreeCompleted, func(events.Event) error {
				e.completions++
				return nil
			}),
			e.bus.Subscribe(events.TypeTreeInterrupted, func(events.Event) error {
				e.interrupts++
				return nil
			}),
		)
	}
	return e, nil
}

func (e *Engine) Config() Config         { return e.cfg }
func (e *Engine) Pools() *pool.Manager   { return e.pools }
func (e *Engine) Frames() uint64         { return e.frames }
func (e *Engine) Elapsed() time.Duration { return e.elapsed }
func (e *Engine) Running() bool          { return e.state.Load() != nil }

// OnFrame appends a hook. Hooks run in registration order.
func (e *Engine) OnFrame(h FrameHook) {
	if h != nil {
		e.hooks = append(e.hooks, h)
	}
}

// AddTree takes ownership of t and launches it with the configured tick
// interval.
func (e *Engine) AddTree(t *behavior.BehaviorTree) error {
	if t == nil {
		return ErrNilTree
	}
	if _, ok := e.trees[t.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTree, t.Name())
	}
	e.trees[t.Name()] = t
	e.order = append(e.order, t.Name())
	if err := t.Launch(e.cfg.TickInterval); err != nil {
		e.treeErrors++
		return fmt.Errorf("engine: launch %s: %w", t.Name(), err)
	}
	return nil
}

// RemoveTree clears the tree and forgets it.
func (e *Engine) RemoveTree(name string) bool {
	t, ok := e.trees[name]
	if !ok {
		return false
	}
	t.Clear()
	delete(e.trees, name)
	for i, cur := range e.order {
		if cur == name {
			e.order = append(e.order[:i:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

func (e *Engine) Tree(name string) (*behavior.BehaviorTree, bool) {
	t, ok := e.trees[name]
	return t, ok
}

// Trees returns the trees in insertion order.
func (e *Engine) Trees() []*behavior.BehaviorTree {
	out := make([]*behavior.BehaviorTree, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.trees[name])
	}
	return out
}

func (e *Engine) Stats() Stats {
	s := Stats{
		Frames:      e.frames,
		Elapsed:     e.elapsed,
		Trees:       len(e.order),
		TreeErrors:  e.treeErrors,
		Completions: e.completions,
		Interrupts:  e.interrupts,
	}
	for _, p := range e.pools.Pools() {
		s.Pools = append(s.Pools, p.Stats())
	}
	return s
}

// Step advances one frame: hooks, then trees, then pools. A failing tree has
// already reset itself and is only counted; a hook error is returned before
// anything else advances.
func (e *Engine) Step(delta time.Duration) error {
	if delta < 0 {
		delta = 0
	}
	frame := e.frames + 1
	for _, h := range e.hooks {
		if err := h(e, frame, delta); err != nil {
			return err
		}
	}

	scaled := e.cfg.scale(delta)
	for _, name := range e.order {
		if err := e.trees[name].Update(scaled); err != nil {
			e.treeErrors++
			e.log.Warn("tree update failed", log.String("tree", name), log.Uint64("frame", frame), log.Error(err))
		}
	}
	e.pools.Update(scaled, delta)

	e.frames = frame
	e.elapsed += delta
	return nil
}

// Do runs fn on the owner goroutine and waits for its result. When the engine
// is not running the caller is the owner and fn runs inline.
func (e *Engine) Do(ctx context.Context, fn func(*Engine) error) error {
	rs := e.state.Load()
	if rs == nil {
		return fn(e)
	}
	c := command{fn: fn, done: make(chan error, 1)}
	select {
	case rs.cmds <- c:
	case <-rs.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives Step from a ticker until ctx is cancelled, MaxFrames is reached
// or a hook halts. Cancellation is a clean shutdown and returns nil.
func (e *Engine) Run(ctx context.Context) error {
	rs := &runState{cmds: make(chan command), stopped: make(chan struct{})}
	if !e.state.CompareAndSwap(nil, rs) {
		return ErrRunning
	}
	defer e.state.Store(nil)

	e.log.Info("engine started",
		log.Int("frame_rate", e.cfg.FrameRate),
		log.Int("trees", len(e.order)),
		log.Uint64("max_frames", e.cfg.MaxFrames),
	)

	g, gctx := errgroup.WithContext(ctx)
	loopDone := make(chan struct{})
	g.Go(func() error {
		defer close(loopDone)
		return e.loop(gctx, rs)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-loopDone:
		}
		close(rs.stopped)
		return nil
	})
	err := g.Wait()

	e.log.Info("engine stopped", log.Uint64("frames", e.frames), log.Duration("elapsed", e.elapsed))
	return err
}

func (e *Engine) loop(ctx context.Context, rs *runState) error {
	ticker := time.NewTicker(e.cfg.FrameInterval())
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-rs.cmds:
			c.done <- c.fn(e)
		case now := <-ticker.C:
			delta := min(now.Sub(last), e.cfg.MaxFrameDelta)
			last = now
			if err := e.Step(delta); err != nil {
				if errors.Is(err, ErrHalt) {
					return nil
				}
				return fmt.Errorf("engine: frame %d: %w", e.frames+1, err)
			}
			if e.cfg.MaxFrames > 0 && e.frames >= e.cfg.MaxFrames {
				return nil
			}
		}
	}
}

// Close clears every tree and pool and drops the bus subscriptions. It must
// not be called while Run is active.
func (e *Engine) Close() error {
	if e.Running() {
		return ErrRunning
	}
	for _, name := range e.order {
		e.trees[name].Clear()
	}
	e.trees = make(map[string]*behavior.BehaviorTree)
	e.order = nil
	e.pools.Clear()
	for _, s := range e.subs {
		e.bus.Unsubscribe(s)
	}
	e.subs = nil
	return nil
}
