package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/liquid/internal/config"
	"github.com/zeusync/liquid/internal/core/behavior"
	"github.com/zeusync/liquid/internal/core/engine"
	"github.com/zeusync/liquid/internal/core/events"
	"github.com/zeusync/liquid/internal/core/observability/log"
)

var ErrNoFrames = errors.New("simulator: scenario has no frames to run")

// Runner plays a Scenario on an Engine. The scenario's trees share one
// blackboard, and its demand script spawns elements at the start of every frame.
type Runner struct {
	sc     *Scenario
	cfg    config.SimulatorConfig
	engine *engine.Engine
	bb     *behavior.Blackboard
	log    log.Log

	frames   uint64
	delta    time.Duration
	progress time.Duration

	completions map[string]uint64
	interrupts  map[string]uint64
	peaks       map[string]int
	demanded    map[string]uint64
	subs        []events.Subscription
	bus         events.Bus
}

// NewRunner registers the scenario's pools and trees on e. The pool leaves
// are added to reg, so reg should not be shared with another engine.
func NewRunner(sc *Scenario, cfg config.SimulatorConfig, e *engine.Engine, reg behavior.Registry, bus events.Bus, l log.Log) (*Runner, error) {
	r := &Runner{
		sc:          sc,
		cfg:         cfg,
		engine:      e,
		bb:          behavior.NewBlackboard(),
		log:         log.OrNop(l).With(log.String("scenario", sc.Name)),
		frames:      cfg.Frames,
		delta:       cfg.FrameDelta,
		progress:    time.Second,
		completions: make(map[string]uint64),
		interrupts:  make(map[string]uint64),
		peaks:       make(map[string]int),
		demanded:    make(map[string]uint64),
		bus:         bus,
	}
	if r.frames == 0 {
		r.frames = sc.Frames
	}
	if r.frames == 0 {
		return nil, ErrNoFrames
	}
	if sc.FrameDelta > 0 {
		r.delta = sc.FrameDelta
	}
	for k, v := range sc.Blackboard {
		r.bb.Set(k, v)
	}
	r.subscribe()

	pools := e.Pools()
	RegisterPoolLeaves(reg, pools)
	for _, spec := range sc.Pools {
		settings, err := spec.Resolve(pools.Settings())
		if err != nil {
			return nil, err
		}
		if _, err := pools.Register(spec.Key, settings); err != nil {
			return nil, err
		}
		if spec.Preheat > 0 {
			if err := pools.Preheat(spec.Key, spec.Preheat); err != nil {
				return nil, err
			}
		}
	}

	for _, spec := range sc.Trees {
		tree, err := spec.Tree.BuildTree(spec.Name, reg,
			behavior.WithLogger(r.log.With(log.String("tree", spec.Name))),
			behavior.WithBus(bus),
			behavior.WithBlackboard(r.bb),
		)
		if err != nil {
			return nil, fmt.Errorf("simulator: tree %s: %w", spec.Name, err)
		}
		if err := e.AddTree(tree); err != nil {
			r.log.Warn("tree launch failed", log.String("tree", spec.Name), log.Error(err))
		}
	}

	e.OnFrame(r.frame)
	return r, nil
}

func (r *Runner) Blackboard() *behavior.Blackboard { return r.bb }

func (r *Runner) subscribe() {
	if r.bus == nil {
		return
	}
	r.subs = append(r.subs,
		r.bus.Subscribe(events.TypeTreeCompleted, func(ev events.Event) error {
			r.completions[ev.Source()]++
			return nil
		}),
		r.bus.Subscribe(events.TypeTreeInterrupted, func(ev events.Event) error {
			r.interrupts[ev.Source()]++
			return nil
		}),
		r.bus.Subscribe(events.TypePoolResized, func(ev events.Event) error {
			if p, ok := ev.Data().(events.PoolResized); ok {
				r.peaks[p.Pool] = max(r.peaks[p.Pool], p.After)
			}
			return nil
		}),
		r.bus.Subscribe(events.TypePatternLearned, func(ev events.Event) error {
			if p, ok := ev.Data().(events.PatternLearned); ok {
				r.log.Info("pattern learned", log.String("pool", p.Pool), log.Ints("values", p.Values))
			}
			return nil
		}),
	)
}

func (r *Runner) frame(_ *engine.Engine, frame uint64, _ time.Duration) error {
	if frame > r.frames {
		return engine.ErrHalt
	}
	for _, ev := range r.sc.Events {
		if ev.Frame != frame {
			continue
		}
		for k, v := range ev.Set {
			r.bb.Set(k, v)
		}
	}
	pools := r.engine.Pools()
	for _, d := range r.sc.Demand {
		if !d.Active(frame) {
			continue
		}
		for range d.Count {
			if _, err := pools.Spawn(d.Pool, d.Expire); err != nil {
				return fmt.Errorf("demand on %s: %w", d.Pool, err)
			}
		}
		r.demanded[d.Pool] += uint64(d.Count)
	}
	return nil
}

// Run plays the scenario and returns its summary. A stepped run advances a
// fixed delta per frame; a realtime run lets the engine ticker pace frames.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	var err error
	if r.cfg.Realtime {
		err = r.runRealtime(ctx)
	} else {
		err = r.runStepped(ctx)
	}
	if err != nil {
		return nil, err
	}
	s := r.summary()
	r.log.Info("scenario finished",
		log.Uint64("frames", s.Frames),
		log.Duration("simulated", r.engine.Elapsed()),
		log.Duration("wall", time.Since(start)),
	)
	return s, nil
}

func (r *Runner) runStepped(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.engine.Step(r.delta)
		if errors.Is(err, engine.ErrHalt) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (r *Runner) runRealtime(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return r.engine.Run(gctx)
	})
	g.Go(func() error {
		return r.report(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return parent.Err()
}

// report logs engine progress until ctx ends.
func (r *Runner) report(ctx context.Context) error {
	ticker := time.NewTicker(r.progress)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var stats engine.Stats
			err := r.engine.Do(ctx, func(e *engine.Engine) error {
				stats = e.Stats()
				return nil
			})
			if err != nil {
				return nil
			}
			r.log.Info("progress", log.Uint64("frame", stats.Frames), log.Uint64("of", r.frames))
		}
	}
}

// Close drops the runner's bus subscriptions.
func (r *Runner) Close() {
	for _, s := range r.subs {
		r.bus.Unsubscribe(s)
	}
	r.subs = nil
}
