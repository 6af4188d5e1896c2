//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/liquid/internal/config"
	"github.com/zeusync/liquid/internal/core/pool"
)

func InitializeRuntime(cfg *config.Config, factory pool.ResourceFactory) (*Runtime, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
