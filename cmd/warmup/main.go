// warmup construye el motor una vez con la configuración del entorno e
// imprime su estado. Sirve para validar datos y caché antes de desplegar.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/goccy/go-json"

	"github.com/hanush21/anime-recommender/internal/app"
	"github.com/hanush21/anime-recommender/internal/config"
	"github.com/hanush21/anime-recommender/internal/db"
	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/service"
)

func main() {
	cfg := config.Load()
	minp := flag.Int("minp", cfg.MinPeriods, "min_periods del motor")
	flag.Parse()

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	src, err := app.Sources(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("[warmup] configuración inválida")
	}

	ctx := context.Background()
	registry := service.NewEngineRegistry(src, app.EngineConfig(cfg))
	buildErr := registry.Warmup(ctx, *minp)
	db.Close(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(registry.Status())

	if buildErr != nil {
		logging.Error().Err(buildErr).Msg("[warmup] el motor no quedó listo")
		os.Exit(1)
	}
}
