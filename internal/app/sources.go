// Package app arma las fuentes de datos según la configuración; lo
// comparten el API y los comandos de mantenimiento.
package app

import (
	"fmt"

	"github.com/hanush21/anime-recommender/internal/config"
	"github.com/hanush21/anime-recommender/internal/db"
	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/neighbors"
	"github.com/hanush21/anime-recommender/internal/repository"
	"github.com/hanush21/anime-recommender/internal/service"
)

const (
	SourceCSV   = "csv"
	SourceMongo = "mongo"

	StoreFile  = "file"
	StoreMongo = "mongo"
)

// Sources ratings, catálogo y caché de vecinos. Conecta Mongo sólo si
// alguna de las dos opciones lo pide.
func Sources(cfg *config.Config) (service.EngineSources, error) {
	var src service.EngineSources

	if cfg.DataSource == SourceMongo || cfg.NeighborStore == StoreMongo {
		db.InitMongo(cfg)
	}

	switch cfg.DataSource {
	case SourceCSV:
		src.Ratings = repository.NewRatingCSV(cfg.RatingsPath())
		src.Catalog = repository.NewAnimeCSV(cfg.AnimePath())
	case SourceMongo:
		src.Ratings = repository.NewRatingRepository(db.DB())
		src.Catalog = repository.NewAnimeRepository(db.DB())
	default:
		return src, fmt.Errorf("DATA_SOURCE %q no soportado (csv|mongo)", cfg.DataSource)
	}

	switch cfg.NeighborStore {
	case StoreFile:
		src.Neighbors = neighbors.NewFileStore(cfg.CacheDir)
	case StoreMongo:
		src.Neighbors = neighbors.NewMongoStore(db.DB())
	default:
		return src, fmt.Errorf("NEIGHBOR_STORE %q no soportado (file|mongo)", cfg.NeighborStore)
	}

	logging.Info().
		Str("data_source", cfg.DataSource).
		Str("neighbor_store", cfg.NeighborStore).
		Msg("[app] fuentes configuradas")
	return src, nil
}

// EngineConfig parámetros del motor a partir de la configuración.
func EngineConfig(cfg *config.Config) service.EngineConfig {
	return service.EngineConfig{
		MinPeriods:      cfg.MinPeriods,
		CacheTopK:       cfg.CacheTopK,
		PopularityFloor: cfg.PopularityFloor,
	}
}
