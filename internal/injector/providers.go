package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/pitchcontrol/internal/config"
	"github.com/zeusync/pitchcontrol/internal/core/observability/log"
	"github.com/zeusync/pitchcontrol/internal/core/pitch"
	"github.com/zeusync/pitchcontrol/internal/server"
)

// EngineSet builds a logger and an engine from the configuration.
var EngineSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideGridCache,
	ProvideParams,
	ProvideEngine,
)

// ServerSet extends EngineSet with the streaming server.
var ServerSet = wire.NewSet(
	EngineSet,
	ProvideServerConfig,
	server.NewServer,
)

// ProvideLogger builds the process logger. The cleanup flushes buffered entries.
func ProvideLogger(cfg config.Config) (*log.Logger, func(), error) {
	logger, err := log.New(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideGridCache() *pitch.GridCache {
	return pitch.NewGridCache()
}

func ProvideParams(cfg config.Config) (pitch.Params, error) {
	return cfg.Engine.Params()
}

func ProvideEngine(params pitch.Params, logger log.Log, cache *pitch.GridCache) (*pitch.Engine, error) {
	return pitch.NewEngine(params, pitch.WithLogger(logger), pitch.WithGridCache(cache))
}

func ProvideServerConfig(cfg config.Config) config.ServerConfig {
	return cfg.Server
}
