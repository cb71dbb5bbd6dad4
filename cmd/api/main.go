package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/hanush21/anime-recommender/docs" // swagger docs

	"github.com/hanush21/anime-recommender/internal/app"
	"github.com/hanush21/anime-recommender/internal/cache"
	"github.com/hanush21/anime-recommender/internal/config"
	"github.com/hanush21/anime-recommender/internal/db"
	"github.com/hanush21/anime-recommender/internal/handler"
	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/metrics"
	"github.com/hanush21/anime-recommender/internal/service"
)

// @title Anime Recommender API
// @version 1.0
// @description Recomendador item-item (Pearson) sobre ratings de anime.
// @host localhost:8000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// fuentes (CSV o Mongo) y Redis
	src, err := app.Sources(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("[api] configuración inválida")
	}
	rc := cache.InitRedis(cfg)

	// services
	registry := service.NewEngineRegistry(src, app.EngineConfig(cfg))
	recSvc := service.NewRecommendService(registry, rc, cfg.MinPeriods)
	adminMaintSvc := service.NewAdminMaintenanceService(cfg, src.Ratings, src.Neighbors)

	// handlers
	recH := handler.NewRecommendHandler(recSvc)
	adminMaintH := handler.NewAdminMaintenanceHandler(adminMaintSvc, recSvc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handler.Health)
	r.Get("/healthz", handler.Health)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// =============
	// Rutas públicas
	// =============
	r.Group(func(r chi.Router) {
		if cfg.RateLimitPerMin > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
		}
		handler.MountRecommendRoutes(r, recH)
	})

	// ---- Endpoints solo ADMIN ----
	handler.MountAdminMaintenanceRoutes(r, adminMaintH, cfg.JWTSecret)

	if cfg.Warmup {
		go func() {
			if err := registry.Warmup(ctx, cfg.MinPeriods); err != nil {
				logging.Error().Err(err).Msg("[warmup] el motor no quedó listo; las consultas devolverán 503")
				return
			}
			logging.Info().Int("min_periods", cfg.MinPeriods).Msg("[warmup] motor listo")
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("[api] HTTP escuchando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("[api] error en el servidor HTTP")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("[api] apagando")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("[api] shutdown con errores")
	}
	if err := rc.Close(); err != nil {
		logging.Warn().Err(err).Msg("[redis] error al cerrar")
	}
	db.Close(shutdownCtx)
}
