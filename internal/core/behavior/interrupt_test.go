package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/liquid/internal/core/events"
)

func interruptedEvents(bus events.Bus) *[]events.TreeInterrupted {
	var got []events.TreeInterrupted
	bus.Subscribe(events.TypeTreeInterrupted, func(e events.Event) error {
		got = append(got, e.Data().(events.TreeInterrupted))
		return nil
	})
	return &got
}

func TestSelfInterruptRestartsBranchWhenGuardFails(t *testing.T) {
	bus := events.New()
	got := interruptedEvents(bus)
	tree := NewBehaviorTree("guard", WithBus(bus))
	tree.Blackboard().Set("alive", true)

	root := NewSequence("root", InterruptSelf)
	alive := NewCondition("alive", bbFlag("alive"))
	patrol := always(ResultRunning)
	require.True(t, tree.SetRoot(root))
	require.True(t, tree.AddChild(root, alive))
	require.True(t, tree.AddChild(root, NewAction("patrol", patrol)))

	require.NoError(t, tree.Tick())
	require.Equal(t, ResultRunning, tree.Result())

	require.NoError(t, tree.Tick())
	assert.Equal(t, ResultRunning, tree.Result(), "guard unchanged")
	assert.Empty(t, *got)

	tree.Blackboard().Set("alive", false)
	require.NoError(t, tree.Tick())
	assert.Equal(t, ResultFailure, alive.Result())
	assert.Equal(t, 1, patrol.stopped)
	assert.Equal(t, 2, patrol.executes, "branch re-dispatched after the abort")
	assert.Equal(t, ResultRunning, tree.Result())
	require.Len(t, *got, 1)
	assert.Equal(t, events.TreeInterrupted{Tree: "guard", Interrupter: "root", Aborted: "patrol"}, (*got)[0])

	require.NoError(t, tree.Tick())
	assert.Len(t, *got, 1, "failed guards are not watched in self mode")
	assert.Equal(t, 1, patrol.stopped)
}

func TestLowPriorityInterruptReevaluatesOptions(t *testing.T) {
	tree := NewBehaviorTree("options")
	root := NewFallback("root", InterruptLowPriority)
	enemy := NewCondition("enemy", bbFlag("enemy"))
	patrol := always(ResultRunning)
	require.True(t, tree.SetRoot(root))
	require.True(t, tree.AddChild(root, enemy))
	require.True(t, tree.AddChild(root, NewAction("patrol", patrol)))

	require.NoError(t, tree.Tick())
	require.Equal(t, ResultRunning, tree.Result())
	require.Equal(t, ResultFailure, enemy.Result())

	tree.Blackboard().Set("enemy", true)
	require.NoError(t, tree.Tick())
	assert.Equal(t, ResultSuccess, enemy.Result())
	assert.Equal(t, 1, patrol.stopped)
	assert.Equal(t, 2, patrol.executes)

	patrol.results = []Result{ResultSuccess}
	require.NoError(t, tree.Tick())
	assert.Equal(t, ResultSuccess, tree.Result())
}

func TestSelfModeIgnoresSkippedOptions(t *testing.T) {
	tree := NewBehaviorTree("options")
	root := NewFallback("root", InterruptSelf)
	patrol := always(ResultRunning)
	require.True(t, tree.SetRoot(root))
	require.True(t, tree.AddChild(root, NewCondition("enemy", bbFlag("enemy"))))
	require.True(t, tree.AddChild(root, NewAction("patrol", patrol)))

	require.NoError(t, tree.Tick())
	tree.Blackboard().Set("enemy", true)
	require.NoError(t, tree.Tick())
	assert.Equal(t, ResultRunning, tree.Result())
	assert.Zero(t, patrol.stopped)
}

func TestInterruptSeesThroughDecorators(t *testing.T) {
	tree := NewBehaviorTree("decorated")
	root := NewSequence("root", InterruptBoth)
	inv := NewInverse("not busy")
	work := always(ResultRunning)
	require.True(t, tree.SetRoot(root))
	require.True(t, tree.AddChild(root, inv))
	require.True(t, tree.AddChild(inv, NewCondition("busy", bbFlag("busy"))))
	require.True(t, tree.AddChild(root, NewAction("work", work)))

	require.NoError(t, tree.Tick())
	require.Equal(t, ResultRunning, tree.Result())

	tree.Blackboard().Set("busy", true)
	require.NoError(t, tree.Tick())
	assert.Equal(t, ResultFailure, inv.Result())
	assert.Equal(t, 1, work.stopped)
	assert.Equal(t, 2, work.executes)

	work.results = []Result{ResultSuccess}
	require.NoError(t, tree.Tick())
	assert.Equal(t, ResultFailure, tree.Result())
}

func TestNoInterruptWithoutMode(t *testing.T) {
	tree := NewBehaviorTree("plain")
	root := NewSequence("root", InterruptNone)
	work := always(ResultRunning)
	tree.Blackboard().Set("alive", true)
	require.True(t, tree.SetRoot(root))
	require.True(t, tree.AddChild(root, NewCondition("alive", bbFlag("alive"))))
	require.True(t, tree.AddChild(root, NewAction("work", work)))

	require.NoError(t, tree.Tick())
	tree.Blackboard().Set("alive", false)
	require.NoError(t, tree.Tick())
	assert.Equal(t, ResultRunning, tree.Result())
	assert.Zero(t, work.stopped)
}
