// buildneighbors precalcula la caché de vecinos de una generación
// (topK, minPeriods, popularityFloor) y la escribe en el store configurado.
//
//	go run ./cmd/buildneighbors -minp 3 -topk 50 -floor 20
//
// Ctrl-C cancela el cálculo sin dejar una generación a medias.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/hanush21/anime-recommender/internal/app"
	"github.com/hanush21/anime-recommender/internal/config"
	"github.com/hanush21/anime-recommender/internal/db"
	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/service"
)

func main() {
	cfg := config.Load()

	var req models.RebuildNeighborsRequest
	flag.IntVar(&req.MinPeriods, "minp", cfg.MinPeriods, "mínimo de usuarios en común")
	flag.IntVar(&req.TopK, "topk", cfg.CacheTopK, "vecinos guardados por anime")
	floor := flag.Int("floor", cfg.PopularityFloor, "mínimo de ratings para entrar al cálculo (0 = sin filtro)")
	flag.BoolVar(&req.Overwrite, "overwrite", false, "reescribir la generación si ya existe")
	flag.IntVar(&req.Workers, "workers", 0, "goroutines de cálculo (0 = GOMAXPROCS)")
	flag.Parse()
	req.PopularityFloor = floor

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := app.Sources(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("[buildneighbors] configuración inválida")
	}

	svc := service.NewAdminMaintenanceService(cfg, src.Ratings, src.Neighbors)
	res, err := svc.RebuildNeighbors(ctx, req, func(done, total int) {
		logging.Info().Int("done", done).Int("total", total).Msg("[buildneighbors] progreso")
	})
	db.Close(context.Background())
	if err != nil {
		logging.Error().Err(err).Msg("[buildneighbors] falló el precálculo")
		stop()
		os.Exit(1)
	}

	if res.Skipped {
		logging.Info().Str("location", res.Location).Msg("[buildneighbors] la generación ya existe, usar -overwrite para recalcular")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}
