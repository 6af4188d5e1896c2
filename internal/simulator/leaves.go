package simulator

import (
	"fmt"

	"github.com/zeusync/liquid/internal/core/behavior"
	"github.com/zeusync/liquid/internal/core/observability/log"
	"github.com/zeusync/liquid/internal/core/pool"
)

// RegisterPoolLeaves adds leaves that act on pools owned by m:
//
//	Spawn{pool, count, expire}   spawns count elements, FAILURE when the factory refuses
//	Preheat{pool, amount}        makes sure amount elements are free
//	PoolBusy{pool, above}        true when the in-use ratio is at least above
func RegisterPoolLeaves(reg behavior.Registry, m *pool.Manager) {
	reg.RegisterAction("Spawn", func(params map[string]any) (behavior.ActionHandler, error) {
		key, err := poolParam("Spawn", params)
		if err != nil {
			return nil, err
		}
		count := behavior.IntParam(params, "count", 1)
		expire, err := behavior.DurationParam(params, "expire")
		if err != nil {
			return nil, err
		}
		return behavior.ActionFunc(func(tc *behavior.TickContext) behavior.Result {
			for range count {
				if _, err := m.Spawn(key, expire); err != nil {
					tc.Log.Warn("spawn failed", log.String("pool", key), log.Error(err))
					return behavior.ResultFailure
				}
			}
			return behavior.ResultSuccess
		}), nil
	})

	reg.RegisterAction("Preheat", func(params map[string]any) (behavior.ActionHandler, error) {
		key, err := poolParam("Preheat", params)
		if err != nil {
			return nil, err
		}
		amount := behavior.IntParam(params, "amount", 0)
		return behavior.ActionFunc(func(tc *behavior.TickContext) behavior.Result {
			if err := m.Preheat(key, amount); err != nil {
				tc.Log.Warn("preheat failed", log.String("pool", key), log.Error(err))
				return behavior.ResultFailure
			}
			return behavior.ResultSuccess
		}), nil
	})

	reg.RegisterCondition("PoolBusy", func(params map[string]any) (behavior.ConditionFunc, error) {
		key, err := poolParam("PoolBusy", params)
		if err != nil {
			return nil, err
		}
		above, ok := floatParam(params, "above")
		if !ok {
			above = 0.5
		}
		return func(*behavior.TickContext) bool {
			p, ok := m.Pool(key)
			if !ok || p.Size() == 0 {
				return false
			}
			return float64(p.InUse())/float64(p.Size()) >= above
		}, nil
	})
}

func poolParam(leaf string, params map[string]any) (string, error) {
	key, _ := params["pool"].(string)
	if key == "" {
		return "", fmt.Errorf("%s requires 'pool'", leaf)
	}
	return key, nil
}

func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
