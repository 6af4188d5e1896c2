package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	deliveries int
	lastErr    error
}

func (o *countingObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.deliveries += handlers
	o.lastErr = err
}

func TestPublishSubscribeInOrder(t *testing.T) {
	b := New()
	var order []string
	b.Subscribe(TypePoolResized, func(e Event) error { order = append(order, "first"); return nil })
	b.Subscribe(TypePoolResized, func(e Event) error { order = append(order, "second"); return nil })
	b.Subscribe(TypePatternLearned, func(e Event) error { order = append(order, "other"); return nil })

	require.NoError(t, b.Publish(NewEvent(TypePoolResized, "pool", PoolResized{Pool: "fx", Before: 10, After: 12})))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestWildcardSubscriberSeesEverything(t *testing.T) {
	b := New()
	seen := 0
	b.Subscribe("", func(e Event) error { seen++; return nil })
	_ = b.Publish(NewEvent(TypeTreeCompleted, "tree", nil))
	_ = b.Publish(NewEvent(TypePoolResized, "pool", nil))
	assert.Equal(t, 2, seen)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub := b.Subscribe("x", func(e Event) error { calls++; return nil })
	_ = b.Publish(NewEvent("x", "t", nil))
	b.Unsubscribe(sub)
	sub.Cancel()
	_ = b.Publish(NewEvent("x", "t", nil))

	assert.Equal(t, 1, calls)
	assert.False(t, sub.IsActive())
	assert.Equal(t, uint64(0), b.Metrics().SubscribersActive)
}

func TestErrorsAreJoinedAndObserved(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	b.Subscribe("x", func(e Event) error { return errA })
	b.Subscribe("x", func(e Event) error { return errB })
	obs := &countingObserver{}
	b.AddObserver(obs)

	err := b.Publish(NewEvent("x", "t", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 2, obs.deliveries)
	assert.Equal(t, uint64(1), b.Metrics().Errors)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("x", "t", nil))
	assert.Equal(t, 2, obs.deliveries)
}

func TestPublishHelperToleratesNilBus(t *testing.T) {
	assert.NoError(t, Publish(nil, "x", "t", nil))
}
