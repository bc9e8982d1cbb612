package fx

import (
	"cluequest-ar/internal/cache"
	"cluequest-ar/internal/capability"
	"cluequest-ar/internal/config"
	"cluequest-ar/internal/constants"
	"cluequest-ar/internal/database"
	"cluequest-ar/internal/fetch"
	"cluequest-ar/internal/logger"
	"cluequest-ar/internal/repository"
	"cluequest-ar/internal/server"
	"cluequest-ar/internal/service"
	"cluequest-ar/internal/storage"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideVariantCache selects the cache backend: redis when configured,
// otherwise the relational store. The redis client is closed on shutdown.
func ProvideVariantCache(lc fx.Lifecycle, cfg *config.Config, repo *repository.VariantRepository, log zerolog.Logger) (service.VariantCache, error) {
	if cfg.RedisAddr == "" {
		return repo, nil
	}

	rc, err := cache.NewRedisVariantCache(cfg.RedisAddr, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(rc.Close))
	return rc, nil
}

func ProvideMetadataFetcher() service.MetadataFetcher {
	return fetch.NewMetadataClient()
}

func ProvideQueue() service.OptimizeQueue {
	return service.NewMemoryQueue(constants.OptimizeQueueCapacity)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// stores
	fx.Provide(repository.NewAssetRepository),
	fx.Provide(repository.NewExperienceRepository),
	fx.Provide(repository.NewVariantRepository),
	fx.Provide(ProvideVariantCache),
	fx.Provide(storage.NewObjectStore),
	fx.Provide(func(r *repository.AssetRepository) service.AssetStore { return r }),
	fx.Provide(func(r *repository.ExperienceRepository) service.ExperienceStore { return r }),
	// clients
	fx.Provide(ProvideMetadataFetcher),
	fx.Provide(ProvideQueue),
	// svc
	fx.Provide(capability.NewProber),
	fx.Provide(service.NewOptimizerService),
	fx.Provide(service.NewComposerService),
	fx.Provide(service.NewEvaluatorService),
	fx.Provide(service.NewAssetService),
	fx.Provide(service.NewOptimizeWorker),
	// server
	fx.Provide(server.NewServer),
)
