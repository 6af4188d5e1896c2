package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zeusync/liquid/internal/core/behavior"
	"github.com/zeusync/liquid/internal/core/events"
	"github.com/zeusync/liquid/internal/core/pool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type shell struct{ key string }

func newPools() *pool.Manager {
	s := pool.DefaultSettings()
	s.PredictionEnabled = false
	return pool.NewManager(pool.Factory[*shell]{
		New: func(key string) (*shell, error) { return &shell{key: key}, nil },
	}, s)
}

func newEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, newPools(), opts...)
	require.NoError(t, err)
	return e
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.FrameRate = 1000
	return cfg
}

// countingTree succeeds on every tick and counts them.
func countingTree(t *testing.T, name string, bus events.Bus) (*behavior.BehaviorTree, *int) {
	t.Helper()
	calls := 0
	tree := behavior.NewBehaviorTree(name, behavior.WithBus(bus))
	seq := behavior.NewSequence("seq", behavior.InterruptNone)
	require.True(t, tree.SetRoot(seq))
	require.True(t, tree.AddChild(seq, behavior.NewActionFunc("count", func(*behavior.TickContext) behavior.Result {
		calls++
		return behavior.ResultSuccess
	})))
	return tree, &calls
}

func TestStepAdvancesTreesThenPools(t *testing.T) {
	bus := events.New()
	e := newEngine(t, DefaultConfig(), WithBus(bus))
	tree, calls := countingTree(t, "patrol", bus)

	require.NoError(t, e.AddTree(tree))
	assert.Equal(t, 1, *calls)

	el, err := e.Pools().Spawn("shell", 150*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, e.Step(100*time.Millisecond))
	assert.True(t, el.InUse())
	require.NoError(t, e.Step(100*time.Millisecond))
	assert.False(t, el.InUse())

	assert.Equal(t, 3, *calls)
	s := e.Stats()
	assert.EqualValues(t, 2, s.Frames)
	assert.Equal(t, 200*time.Millisecond, s.Elapsed)
	assert.EqualValues(t, 3, s.Completions)
	assert.Equal(t, 1, s.Trees)
	require.Len(t, s.Pools, 1)
	assert.Equal(t, "shell", s.Pools[0].Key)
	assert.EqualValues(t, 1, s.Pools[0].Expired)
}

func TestTimeScaleAppliesToTreesAndExpiry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeScale = 2
	e := newEngine(t, cfg)
	tree := behavior.NewBehaviorTree("waiter")
	seq := behavior.NewSequence("seq", behavior.InterruptNone)
	require.True(t, tree.SetRoot(seq))
	require.True(t, tree.AddChild(seq, behavior.NewWait("wait", 100*time.Millisecond)))
	require.NoError(t, e.AddTree(tree))
	assert.Equal(t, behavior.ResultRunning, tree.Result())

	el, err := e.Pools().Spawn("shell", 100*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, e.Step(50*time.Millisecond))
	assert.Equal(t, behavior.ResultSuccess, tree.Result())
	assert.False(t, el.InUse())
	assert.Equal(t, 50*time.Millisecond, e.Elapsed())
}

func TestAddTreeRejectsNilAndDuplicates(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	assert.ErrorIs(t, e.AddTree(nil), ErrNilTree)

	tree, _ := countingTree(t, "guard", nil)
	require.NoError(t, e.AddTree(tree))
	again, _ := countingTree(t, "guard", nil)
	assert.ErrorIs(t, e.AddTree(again), ErrDuplicateTree)

	got, ok := e.Tree("guard")
	require.True(t, ok)
	assert.Same(t, tree, got)

	assert.True(t, e.RemoveTree("guard"))
	assert.False(t, e.RemoveTree("guard"))
	assert.Empty(t, e.Trees())
	assert.Nil(t, tree.Root())
}

func TestStepCountsTreeErrors(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	tree := behavior.NewBehaviorTree("broken")
	seq := behavior.NewSequence("seq", behavior.InterruptNone)
	require.True(t, tree.SetRoot(seq))
	require.True(t, tree.AddChild(seq, behavior.NewActionFunc("none", func(*behavior.TickContext) behavior.Result {
		return behavior.ResultNone
	})))

	err := e.AddTree(tree)
	assert.ErrorIs(t, err, behavior.ErrNoneResult)

	require.NoError(t, e.Step(time.Millisecond))
	assert.EqualValues(t, 2, e.Stats().TreeErrors)
}

func TestHookErrorStopsStep(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	tree, calls := countingTree(t, "idle", nil)
	require.NoError(t, e.AddTree(tree))

	boom := errors.New("boom")
	var seen []uint64
	e.OnFrame(func(_ *Engine, frame uint64, _ time.Duration) error {
		seen = append(seen, frame)
		if frame == 2 {
			return boom
		}
		return nil
	})

	require.NoError(t, e.Step(time.Millisecond))
	assert.ErrorIs(t, e.Step(time.Millisecond), boom)
	assert.Equal(t, []uint64{1, 2}, seen)
	assert.EqualValues(t, 1, e.Frames())
	assert.Equal(t, 2, *calls)
}

func TestRunStopsAtMaxFrames(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxFrames = 5
	e := newEngine(t, cfg)

	require.NoError(t, e.Run(context.Background()))
	assert.EqualValues(t, 5, e.Frames())
	assert.False(t, e.Running())
}

func TestRunHaltsFromHook(t *testing.T) {
	e := newEngine(t, fastConfig())
	e.OnFrame(func(_ *Engine, frame uint64, _ time.Duration) error {
		if frame == 3 {
			return ErrHalt
		}
		return nil
	})

	require.NoError(t, e.Run(context.Background()))
	assert.EqualValues(t, 2, e.Frames())
}

func TestRunReturnsHookError(t *testing.T) {
	e := newEngine(t, fastConfig())
	boom := errors.New("boom")
	e.OnFrame(func(*Engine, uint64, time.Duration) error { return boom })

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "frame 1")
}

func TestDoRunsOnOwnerWhileRunning(t *testing.T) {
	e := newEngine(t, fastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, e.Running, time.Second, time.Millisecond)
	assert.ErrorIs(t, e.Run(ctx), ErrRunning)

	tree, calls := countingTree(t, "late", nil)
	require.NoError(t, e.Do(ctx, func(e *Engine) error { return e.AddTree(tree) }))

	var frames uint64
	require.Eventually(t, func() bool {
		_ = e.Do(ctx, func(e *Engine) error {
			frames = e.Frames()
			return nil
		})
		return frames >= 3
	}, time.Second, time.Millisecond)

	sentinel := errors.New("rejected")
	assert.ErrorIs(t, e.Do(ctx, func(*Engine) error { return sentinel }), sentinel)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, e.Running())
	assert.GreaterOrEqual(t, *calls, 3)

	ran := false
	require.NoError(t, e.Do(context.Background(), func(*Engine) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}

func TestCloseClearsEverything(t *testing.T) {
	bus := events.New()
	e := newEngine(t, DefaultConfig(), WithBus(bus))
	tree, _ := countingTree(t, "temp", bus)
	require.NoError(t, e.AddTree(tree))
	require.NoError(t, e.Pools().Preheat("shell", 4))

	require.NoError(t, e.Close())
	assert.Empty(t, e.Trees())
	assert.Empty(t, e.Pools().Pools())
	assert.Zero(t, bus.Metrics().SubscribersActive)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.FrameRate = 0
	cfg.MaxFrameDelta = 0
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "frame_rate")
	assert.Contains(t, err.Error(), "max_frame_delta")

	_, err = New(cfg, newPools())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, time.Second/30, DefaultConfig().FrameInterval())
}
