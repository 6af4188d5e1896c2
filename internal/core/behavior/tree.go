package behavior

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/zeusync/liquid/internal/core/events"
	"github.com/zeusync/liquid/internal/core/observability/log"
)

const (
	// MinTickInterval is the smallest accepted Launch interval. Anything shorter
	// ticks on every Update.
	MinTickInterval = 100 * time.Millisecond
	// DefaultStepBudget bounds the traversal steps of a single Tick.
	DefaultStepBudget = 100_000
)

type treeState int

const (
	stateIdle treeState = iota
	stateWorking
)

type Option func(*BehaviorTree)

func WithLogger(l log.Log) Option {
	return func(t *BehaviorTree) { t.log = log.OrNop(l) }
}

func WithBus(b events.Bus) Option {
	return func(t *BehaviorTree) { t.bus = b }
}

func WithBlackboard(bb *Blackboard) Option {
	return func(t *BehaviorTree) {
		if bb != nil {
			t.bb = bb
		}
	}
}

// WithEpoch sets the wall time the tree clock starts from.
func WithEpoch(epoch time.Time) Option {
	return func(t *BehaviorTree) { t.epoch = epoch }
}

// WithStepBudget caps traversal steps per Tick; zero disables the cap.
func WithStepBudget(n int) Option {
	return func(t *BehaviorTree) { t.stepBudget = max(n, 0) }
}

func WithContext(ctx context.Context) Option {
	return func(t *BehaviorTree) { t.ctx = ctx }
}

// BehaviorTree owns a root control node and drives it one tick at a time. A
// traversal suspends at the first RUNNING action and resumes from the same
// stack on the next tick. Not safe for concurrent use.
type BehaviorTree struct {
	name  string
	root  ControlNode
	state treeState

	stack   []ControlNode
	running []*Action

	launched    bool
	interval    time.Duration
	accumulated time.Duration

	epoch       time.Time
	elapsed     time.Duration
	lastTickAt  time.Duration
	ticks       uint64
	stepBudget  int
	version     uint64
	nodes       []Node
	nodesCached bool
	nodesAt     uint64

	ctx context.Context
	bb  *Blackboard
	log log.Log
	bus events.Bus
}

func NewBehaviorTree(name string, opts ...Option) *BehaviorTree {
	t := &BehaviorTree{
		name:       name,
		epoch:      time.Now(),
		stepBudget: DefaultStepBudget,
		ctx:        context.Background(),
		bb:         NewBlackboard(),
		log:        log.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With(log.String("tree", name))
	return t
}

func (t *BehaviorTree) Name() string            { return t.name }
func (t *BehaviorTree) Root() ControlNode       { return t.root }
func (t *BehaviorTree) Blackboard() *Blackboard { return t.bb }
func (t *BehaviorTree) Ticks() uint64           { return t.ticks }
func (t *BehaviorTree) Version() uint64         { return t.version }

// Now is the tree clock: the epoch plus every delta passed to Update.
func (t *BehaviorTree) Now() time.Time { return t.epoch.Add(t.elapsed) }

// Result is the root's result for the current cycle.
func (t *BehaviorTree) Result() Result {
	if t.root == nil {
		return ResultNone
	}
	return t.root.Result()
}

// Running lists the actions currently registered as RUNNING.
func (t *BehaviorTree) Running() []*Action {
	return slices.Clone(t.running)
}

// Stack returns the traversal stack, root first.
func (t *BehaviorTree) Stack() []ControlNode {
	return slices.Clone(t.stack)
}

// Nodes returns the root and all its descendants. The list is rebuilt only after
// a structural change.
func (t *BehaviorTree) Nodes() []Node {
	if t.root == nil {
		return nil
	}
	if !t.nodesCached || t.nodesAt != t.version {
		t.nodes = append([]Node{t.root}, t.root.Descendants()...)
		t.nodesAt = t.version
		t.nodesCached = true
	}
	return slices.Clone(t.nodes)
}

// SetRoot installs a parentless control node as the root. Any run in progress is
// stopped.
func (t *BehaviorTree) SetRoot(n Node) bool {
	c, ok := n.(ControlNode)
	if !ok || c == nil || n.Parent() != nil {
		t.log.Debug("root rejected", log.Error(ErrNotControl))
		return false
	}
	if t.root != nil {
		t.resetAll(t.tickContext())
		t.root.core().owner = nil
	}
	c.core().owner = t
	t.root = c
	t.version++
	return true
}

// AddChild attaches child as the last child of parent.
func (t *BehaviorTree) AddChild(parent, child Node) bool {
	err := CheckAttach(parent, child)
	if err == nil && t.root != nil && child == Node(t.root) {
		err = fmt.Errorf("%s is the root: %w", child.Name(), ErrCycle)
	}
	if err != nil {
		t.log.Debug("child rejected", log.Error(err))
		return false
	}
	link(parent, child)
	t.version++
	return true
}

// Launch sets the tick interval and ticks once.
func (t *BehaviorTree) Launch(interval time.Duration) error {
	t.accumulated = 0
	if interval < MinTickInterval {
		interval = 0
	}
	t.interval = interval
	t.launched = true
	return t.Tick()
}

// Update advances the tree clock and ticks when the launch interval has elapsed.
func (t *BehaviorTree) Update(delta time.Duration) error {
	if delta < 0 {
		delta = 0
	}
	t.elapsed += delta
	if !t.launched {
		return nil
	}
	if t.interval <= 0 {
		return t.Tick()
	}
	t.accumulated += delta
	if t.accumulated < t.interval {
		return nil
	}
	t.accumulated %= t.interval
	return t.Tick()
}

// Clear stops everything and drops the root.
func (t *BehaviorTree) Clear() {
	if t.root != nil {
		t.resetAll(t.tickContext())
		t.root.core().owner = nil
	}
	t.root = nil
	t.launched = false
	t.accumulated = 0
	t.version++
}

// Stop cancels a running action. Its parent observes FAILURE on the next tick.
func (t *BehaviorTree) Stop(a *Action) bool {
	if !slices.Contains(t.running, a) {
		return false
	}
	a.stop(t.tickContext())
	t.unregister(a)
	return true
}

// Tick runs one traversal step of the tree. Calls made while a tick is in
// progress are ignored.
func (t *BehaviorTree) Tick() error {
	if t.root == nil || t.state == stateWorking {
		return nil
	}
	t.state = stateWorking
	defer func() { t.state = stateIdle }()

	tc := t.tickContext()
	t.ticks++
	t.lastTickAt = t.elapsed

	if len(t.running) > 0 {
		t.tryInterrupt(tc)
	}
	if len(t.running) == 0 && len(t.stack) == 0 {
		t.resetAll(tc)
		t.stack = append(t.stack, t.root)
	}

	if err := t.traverse(tc); err != nil {
		t.log.Error("tick failed, tree reset", log.Error(err), log.Uint64("tick", t.ticks))
		t.resetAll(tc)
		return err
	}

	if r := t.root.Result(); r.Terminal() && len(t.stack) == 0 {
		t.publish(events.TypeTreeCompleted, events.TreeCompleted{Tree: t.name, Result: r.String(), Ticks: t.ticks})
	}
	return nil
}

func (t *BehaviorTree) tickContext() *TickContext {
	return &TickContext{
		Ctx:   t.ctx,
		Tree:  t,
		BB:    t.bb,
		Log:   t.log,
		Delta: t.elapsed - t.lastTickAt,
		now:   t.Now(),
	}
}

func (t *BehaviorTree) traverse(tc *TickContext) error {
	for steps := 0; ; steps++ {
		if t.stepBudget > 0 && steps >= t.stepBudget {
			return fmt.Errorf("tree %q: %w", t.name, ErrStepBudget)
		}
		next := t.next()
		if next == nil {
			return nil
		}
		switch n := next.(type) {
		case ControlNode:
			if !slices.Contains(t.stack, n) {
				t.stack = append(t.stack, n)
			}
		case ExecutionNode:
			if err := n.tick(tc); err != nil {
				return err
			}
			if a, ok := n.(*Action); ok {
				if a.Result() == ResultRunning {
					t.register(a)
					return nil
				}
				t.unregister(a)
			}
			t.solveTop()
		}
	}
}

// next asks the top of the stack for its next child, popping exhausted nodes.
func (t *BehaviorTree) next() Node {
	for len(t.stack) > 0 {
		if n := t.stack[len(t.stack)-1].Next(); n != nil {
			return n
		}
		t.stack = t.stack[:len(t.stack)-1]
	}
	return nil
}

// solveTop pops every control node that has resolved.
func (t *BehaviorTree) solveTop() {
	for len(t.stack) > 0 && t.stack[len(t.stack)-1].Result().Terminal() {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

func (t *BehaviorTree) register(a *Action) {
	if !slices.Contains(t.running, a) {
		t.running = append(t.running, a)
	}
}

func (t *BehaviorTree) unregister(a *Action) {
	t.running = slices.DeleteFunc(t.running, func(r *Action) bool { return r == a })
}

// resetAll stops running actions, clears every result and empties the stack.
func (t *BehaviorTree) resetAll(tc *TickContext) {
	for _, a := range t.running {
		a.stop(tc)
	}
	t.running = t.running[:0]
	ResetSubtree(t.root)
	t.stack = t.stack[:0]
}

func (t *BehaviorTree) publish(typ string, data any) {
	if err := events.Publish(t.bus, typ, t.name, data); err != nil {
		t.log.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}
