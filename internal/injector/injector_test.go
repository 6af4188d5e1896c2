package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/liquid/internal/config"
	"github.com/zeusync/liquid/internal/core/events"
	"github.com/zeusync/liquid/internal/core/pool"
)

func quietConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Log.Level = "off"
	return cfg
}

func TestInitializeRuntimeWiresSharedBus(t *testing.T) {
	factory := pool.Factory[int]{New: func(string) (int, error) { return 1, nil }}
	rt, cleanup, err := InitializeRuntime(quietConfig(), factory)
	require.NoError(t, err)

	var resized int
	rt.Bus.Subscribe(events.TypePoolResized, func(events.Event) error {
		resized++
		return nil
	})
	require.NoError(t, rt.Pools.Preheat("orb", 3))
	assert.Equal(t, 1, resized)
	assert.Len(t, rt.Engine.Stats().Pools, 1)

	_, err = rt.Registry.NewCondition("IsTrue", map[string]any{"key": "alert"})
	assert.NoError(t, err)

	cleanup()
	assert.Empty(t, rt.Pools.Pools())
}

func TestInitializeRuntimeRejectsBadEngineConfig(t *testing.T) {
	cfg := quietConfig()
	cfg.Engine.FrameRate = 0
	_, _, err := InitializeRuntime(cfg, pool.Factory[int]{New: func(string) (int, error) { return 0, nil }})
	assert.Error(t, err)
}
