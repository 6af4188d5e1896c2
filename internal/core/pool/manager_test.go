package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreatesPoolsOnDemand(t *testing.T) {
	f := &countingFactory{}
	m := NewManager(f, quietSettings())

	require.NoError(t, m.Preheat("arrow", 0))
	arrows, ok := m.Pool("arrow")
	require.True(t, ok)
	assert.Equal(t, DefaultPreheatVolume, arrows.Size())

	e, err := m.Spawn("spark", 0)
	require.NoError(t, err)
	sparks, ok := m.Pool("spark")
	require.True(t, ok)
	assert.Equal(t, 1, sparks.InUse())

	require.NoError(t, m.Recycle(e))
	assert.Zero(t, sparks.InUse())
	assert.ErrorIs(t, m.Recycle(nil), ErrNilElement)

	keys := []string{}
	for _, p := range m.Pools() {
		keys = append(keys, p.Key())
	}
	assert.Equal(t, []string{"arrow", "spark"}, keys)
}

func TestManagerRegisterAndRecycleForeign(t *testing.T) {
	m := NewManager(&countingFactory{}, quietSettings())
	custom := quietSettings()
	custom.MinimumVolume = 2
	p, err := m.Register("custom", custom)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Settings().MinimumVolume)

	_, err = m.Register("custom", custom)
	assert.Error(t, err)

	bad := custom
	bad.PredictionInterval = 0
	_, err = m.Register("broken", bad)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	stranger, err := NewObjectPool("custom", &countingFactory{}, custom)
	require.NoError(t, err)
	e, err := stranger.Spawn(0)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Recycle(e), ErrForeignElement)
}

func TestManagerUpdateAndClear(t *testing.T) {
	f := &countingFactory{}
	m := NewManager(f, quietSettings())
	e, err := m.Spawn("smoke", time.Second)
	require.NoError(t, err)
	require.NoError(t, m.Preheat("ash", 3))

	m.Update(time.Second, time.Second)
	assert.False(t, e.InUse())

	m.Clear()
	assert.Empty(t, m.Pools())
	assert.Equal(t, 4, f.destroyed)
	_, ok := m.Pool("smoke")
	assert.False(t, ok)
}
