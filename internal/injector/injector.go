//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/pitchcontrol/internal/config"
	"github.com/zeusync/pitchcontrol/internal/core/observability/log"
	"github.com/zeusync/pitchcontrol/internal/core/pitch"
	"github.com/zeusync/pitchcontrol/internal/server"
)

func InitializeEngine(cfg config.Config) (*pitch.Engine, log.Log, func(), error) {
	wire.Build(EngineSet)
	return nil, nil, nil, nil
}

func InitializeServer(cfg config.Config) (*server.Server, func(), error) {
	wire.Build(ServerSet)
	return nil, nil, nil
}
