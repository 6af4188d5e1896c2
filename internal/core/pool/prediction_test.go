package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/liquid/internal/core/events"
)

// holdInUse spawns or recycles until exactly n elements are in use.
func holdInUse(t *testing.T, p *ObjectPool, held *[]*Element, n int) {
	t.Helper()
	for len(*held) < n {
		e, err := p.Spawn(0)
		require.NoError(t, err)
		*held = append(*held, e)
	}
	for len(*held) > n {
		last := (*held)[len(*held)-1]
		require.NoError(t, p.Recycle(last))
		*held = (*held)[:len(*held)-1]
	}
}

func TestBigJitter(t *testing.T) {
	p, _ := newTestPool(t, DefaultSettings())

	p.history = []int{0, 0, 1, 4, 4}
	j, ok := p.bigJitter(0, 4)
	assert.True(t, ok)
	assert.Equal(t, 2, j)

	_, ok = p.bigJitter(3, 4)
	assert.False(t, ok)
	_, ok = p.bigJitter(-1, 2)
	assert.False(t, ok)
	_, ok = p.bigJitter(0, 5)
	assert.False(t, ok)

	p.history = []int{0, 1, 0, 1}
	j, ok = p.bigJitter(0, 3)
	assert.True(t, ok, "small steps accumulate")
	assert.Equal(t, 2, j)

	p.history = []int{3}
	_, ok = p.bigJitter(0, 0)
	assert.False(t, ok)
}

func TestPatternEnded(t *testing.T) {
	p, _ := newTestPool(t, DefaultSettings())

	p.history = []int{0, 5, 5, 5, 5, 5, 5, 5}
	assert.False(t, p.patternEnded(), "shorter than minimum history plus stable tail")

	p.history = []int{0, 5, 5, 5, 5, 5, 5, 5, 5}
	assert.True(t, p.patternEnded())

	p.history = []int{0, 5, 5, 5, 5, 5, 5, 5, 9}
	assert.False(t, p.patternEnded(), "tail still moving")

	p.history = make([]int, 20)
	for i := range p.history {
		p.history[i] = i * 3
	}
	assert.True(t, p.patternEnded(), "history full")
}

func TestRecordLearnsSettledPattern(t *testing.T) {
	bus := events.New()
	var learned []events.PatternLearned
	bus.Subscribe(events.TypePatternLearned, func(e events.Event) error {
		learned = append(learned, e.Data().(events.PatternLearned))
		return nil
	})
	p, _ := newTestPool(t, DefaultSettings(), WithBus(bus))

	var held []*Element
	for _, n := range []int{0, 5, 5, 5, 5, 5, 5, 5} {
		holdInUse(t, p, &held, n)
		p.Update(time.Second, time.Second)
	}

	require.Len(t, learned, 1)
	assert.Equal(t, []int{0, 5, 5, 5, 5, 5}, learned[0].Values)
	assert.Equal(t, 1, p.Patterns().Len())
	assert.Empty(t, p.History(), "history restarts after a pattern ends")
	assert.EqualValues(t, 1, p.Stats().Learned)
}

func TestRecordDropsPatternWithoutJitter(t *testing.T) {
	p, _ := newTestPool(t, DefaultSettings())
	for range 8 {
		p.Update(time.Second, time.Second)
	}
	assert.Zero(t, p.Patterns().Len())
	assert.Empty(t, p.History())
}

func TestPredictUsesMatchedPeak(t *testing.T) {
	s := DefaultSettings()
	s.MinimumVolume = 0
	p, _ := newTestPool(t, s)
	rec := p.Patterns().AddPattern(NewFluctuationPattern([]int{0, 10, 10, 10, 10, 10}))

	var held []*Element
	holdInUse(t, p, &held, 6)
	p.history = []int{0, 10, 10}

	assert.Equal(t, WaterHigh, p.WaterLevel())
	assert.Equal(t, 4, p.predict(), "peak of the remaining pattern minus current size")
	assert.Equal(t, 1, rec.MatchCount)

	p.history = []int{0, 1}
	assert.Equal(t, s.MaximumChangePerUpdate, p.predict(), "no match grows by the step")
}

func TestPredictFollowsRampPeak(t *testing.T) {
	s := DefaultSettings()
	s.MinimumVolume = 0
	p, _ := newTestPool(t, s)
	ramp := make([]int, 0, 12)
	for v := 0; v <= 20; v += 2 {
		ramp = append(ramp, v)
	}
	p.Patterns().AddPattern(NewFluctuationPattern(append(ramp, 0)))

	var held []*Element
	holdInUse(t, p, &held, 6)
	p.history = []int{0, 2, 4, 6}
	assert.Equal(t, 14, p.predict(), "peak 20 minus size 6")
}

func TestUpdateLearnsBurstThenPrewarms(t *testing.T) {
	s := DefaultSettings()
	s.MinimumVolume = 0
	s.PredictionInterval = time.Second
	s.MaximumChangePerUpdate = 5
	p, _ := newTestPool(t, s)

	var held []*Element
	for _, n := range []int{4, 8, 12, 16, 20, 16, 12, 8, 4, 0, 0, 0} {
		holdInUse(t, p, &held, n)
		p.Update(time.Second, time.Second)
	}
	records := p.Patterns().Records()
	require.Len(t, records, 1)
	assert.Equal(t, []int{0, 4, 8, 12, 16, 20, 16, 12, 8, 4, 0}, records[0].Pattern.Originals())

	p.Clear()
	held = nil

	// the burst opens again: four in use on a four element pool
	holdInUse(t, p, &held, 4)
	p.Update(time.Second, time.Second)
	assert.Equal(t, []int{0, 4}, p.History())
	assert.Equal(t, 1, p.Patterns().Records()[0].MatchCount)
	assert.Equal(t, 9, p.Size(), "first step of the growth applied")
	assert.Equal(t, 11, p.NeedCreate(), "rest of the way to the learned peak of 20")
}

func TestPredictByWaterLevel(t *testing.T) {
	p, _ := newTestPool(t, DefaultSettings())
	assert.Equal(t, WaterLow, p.WaterLevel(), "empty pool")

	require.NoError(t, p.Expand(10))
	var held []*Element
	holdInUse(t, p, &held, 7)
	assert.Equal(t, WaterNormal, p.WaterLevel())
	assert.Zero(t, p.predict())

	holdInUse(t, p, &held, 0)
	assert.Equal(t, WaterLow, p.WaterLevel())
	assert.Zero(t, p.predict(), "shrinking suppressed while the pool is new")

	p.protectLeft = 0
	assert.Equal(t, -10, p.predict())
}

func TestApplyIsBoundedPerUpdate(t *testing.T) {
	s := DefaultSettings()
	p, _ := newTestPool(t, s)

	p.needCreate = 25
	p.apply()
	assert.Equal(t, 10, p.Size())
	p.apply()
	p.apply()
	assert.Equal(t, 25, p.Size())
	assert.Zero(t, p.NeedCreate())

	require.Zero(t, p.Shrink(13))
	require.Equal(t, 12, p.Size())
	p.needCreate = -15
	p.apply()
	assert.Equal(t, 10, p.Size(), "minimum volume holds")
	assert.Equal(t, -5, p.NeedCreate())
	p.apply()
	assert.Zero(t, p.NeedCreate(), "shortfall discarded")
	assert.Equal(t, 10, p.Size())
}

func TestUpdateGrowsBusyPool(t *testing.T) {
	p, _ := newTestPool(t, DefaultSettings())
	var held []*Element
	holdInUse(t, p, &held, 10)

	p.Update(time.Second, time.Second)
	assert.Equal(t, 10, p.Size())
	p.Update(time.Second, time.Second)
	assert.Equal(t, 20, p.Size(), "second update reaches the prediction interval")
	assert.Equal(t, []int{0, 10, 10}, p.History())
}
