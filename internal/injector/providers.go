package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/liquid/internal/config"
	"github.com/zeusync/liquid/internal/core/behavior"
	"github.com/zeusync/liquid/internal/core/engine"
	"github.com/zeusync/liquid/internal/core/events"
	"github.com/zeusync/liquid/internal/core/observability/log"
	"github.com/zeusync/liquid/internal/core/pool"
)

// Runtime is everything a host needs to run trees and pools.
type Runtime struct {
	Config   *config.Config
	Log      log.Log
	Bus      events.Bus
	Pools    *pool.Manager
	Engine   *engine.Engine
	Registry behavior.Registry
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	ProvidePoolManager,
	ProvideEngine,
	ProvideRegistry,
	wire.Struct(new(Runtime), "*"),
)

func ProvideLogger(cfg *config.Config) (log.Log, func()) {
	l := log.NewFromConfig(cfg.Log)
	return l, func() { _ = l.Sync() }
}

func ProvideBus() events.Bus {
	return events.New()
}

func ProvidePoolManager(cfg *config.Config, factory pool.ResourceFactory, l log.Log, bus events.Bus) *pool.Manager {
	return pool.NewManager(factory, cfg.Pool, pool.WithLogger(l), pool.WithBus(bus))
}

func ProvideEngine(cfg *config.Config, pools *pool.Manager, l log.Log, bus events.Bus) (*engine.Engine, func(), error) {
	e, err := engine.New(cfg.Engine, pools, engine.WithLogger(l), engine.WithBus(bus))
	if err != nil {
		return nil, nil, err
	}
	return e, func() { _ = e.Close() }, nil
}

// ProvideRegistry returns a fresh registry holding the builtin leaves, so
// hosts can add their own without touching behavior.DefaultRegistry.
func ProvideRegistry() behavior.Registry {
	r := behavior.NewRegistry()
	behavior.RegisterBuiltins(r)
	return r
}
