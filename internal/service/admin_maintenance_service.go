package service

import (
	"context"
	"errors"
	"sync"

	"github.com/hanush21/anime-recommender/internal/config"
	"github.com/hanush21/anime-recommender/internal/metrics"
	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/neighbors"
	"github.com/hanush21/anime-recommender/internal/ratings"
)

// ErrRebuildRunning ya hay un precálculo de vecinos en curso en este proceso.
var ErrRebuildRunning = errors.New("neighbor rebuild already running")

// AdminMaintenanceService orquesta el mantenimiento de la caché de vecinos.
type AdminMaintenanceService struct {
	cfg     *config.Config
	ratings ratings.Source
	store   neighbors.Store

	// un solo escritor por proceso
	running sync.Mutex
}

func NewAdminMaintenanceService(cfg *config.Config, src ratings.Source, store neighbors.Store) *AdminMaintenanceService {
	return &AdminMaintenanceService{
		cfg:     cfg,
		ratings: src,
		store:   store,
	}
}

// withDefaults completa con la configuración del servicio.
func (s *AdminMaintenanceService) withDefaults(req models.RebuildNeighborsRequest) models.RebuildNeighborsRequest {
	if req.MinPeriods <= 0 {
		req.MinPeriods = s.cfg.MinPeriods
	}
	if req.TopK <= 0 {
		req.TopK = s.cfg.CacheTopK
	}
	if req.PopularityFloor == nil {
		floor := s.cfg.PopularityFloor
		req.PopularityFloor = &floor
	}
	return req
}

// RebuildNeighbors precalcula la generación pedida. progress puede ser nil.
func (s *AdminMaintenanceService) RebuildNeighbors(
	ctx context.Context,
	req models.RebuildNeighborsRequest,
	progress func(done, total int),
) (*models.RebuildNeighborsResult, error) {

	if !s.running.TryLock() {
		return nil, ErrRebuildRunning
	}
	defer s.running.Unlock()

	req = s.withDefaults(req)
	res, err := neighbors.Build(ctx, s.ratings, s.store, neighbors.BuildOptions{
		MinPeriods:      req.MinPeriods,
		TopK:            req.TopK,
		PopularityFloor: *req.PopularityFloor,
		Overwrite:       req.Overwrite,
		Workers:         req.Workers,
		Progress:        progress,
	})
	if err != nil {
		metrics.NeighborRebuilds.WithLabelValues("error").Inc()
		return nil, err
	}
	if res.Skipped {
		metrics.NeighborRebuilds.WithLabelValues("skipped").Inc()
	} else {
		metrics.NeighborRebuilds.WithLabelValues("ok").Inc()
	}

	return &models.RebuildNeighborsResult{
		Generation:     res.Generation,
		Skipped:        res.Skipped,
		Items:          res.Items,
		Edges:          res.Edges,
		ElapsedSeconds: res.Elapsed.Seconds(),
		Location:       res.Location,
	}, nil
}
