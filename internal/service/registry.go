package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/metrics"
	"github.com/hanush21/anime-recommender/internal/models"
)

// BuildFunc construye un motor para un min_periods dado.
type BuildFunc func(ctx context.Context, minPeriods int) (*Engine, error)

// Registry guarda un único motor listo. Pedir otro min_periods construye un
// motor nuevo y lo publica con un swap atómico; las consultas en curso
// terminan contra el anterior.
type Registry struct {
	build   BuildFunc
	current atomic.Pointer[Engine]
	group   singleflight.Group

	mu       sync.Mutex
	failed   map[int]error
	building map[int]int
	// min_periods del último build intentado; es lo que reporta Status
	last    int
	hasLast bool
}

func NewRegistry(build BuildFunc) *Registry {
	return &Registry{
		build:    build,
		failed:   make(map[int]error),
		building: make(map[int]int),
	}
}

// NewEngineRegistry registry que construye motores desde src con cfg
// (cfg.MinPeriods se reemplaza por el pedido).
func NewEngineRegistry(src EngineSources, cfg EngineConfig) *Registry {
	return NewRegistry(func(ctx context.Context, minPeriods int) (*Engine, error) {
		c := cfg
		c.MinPeriods = minPeriods
		return NewEngine(ctx, src, c)
	})
}

// Current motor publicado o nil.
func (r *Registry) Current() *Engine {
	return r.current.Load()
}

// GetOrBuild devuelve el motor para minPeriods, construyéndolo si hace falta.
// Llamadas concurrentes comparten un solo build. Si el build para
// minPeriods ya falló devuelve models.ErrNotReady sin reintentar; sólo
// Rebuild lo vuelve a intentar.
func (r *Registry) GetOrBuild(ctx context.Context, minPeriods int) (*Engine, error) {
	if e := r.current.Load(); e != nil && e.MinPeriods() == minPeriods {
		return e, nil
	}

	r.mu.Lock()
	cause, failed := r.failed[minPeriods]
	r.mu.Unlock()
	if failed {
		return nil, fmt.Errorf("%w: min_periods=%d: %v", models.ErrNotReady, minPeriods, cause)
	}

	return r.shared(ctx, minPeriods, false)
}

// Rebuild construye de nuevo aunque ya haya un motor para minPeriods (por
// ejemplo tras regenerar la caché de vecinos) y olvida fallas previas.
func (r *Registry) Rebuild(ctx context.Context, minPeriods int) (*Engine, error) {
	r.mu.Lock()
	delete(r.failed, minPeriods)
	r.mu.Unlock()

	return r.shared(ctx, minPeriods, true)
}

// Warmup construcción anticipada al arrancar el proceso.
func (r *Registry) Warmup(ctx context.Context, minPeriods int) error {
	_, err := r.GetOrBuild(ctx, minPeriods)
	return err
}

// shared una sola key por min_periods: un Rebuild que llega con un build en
// curso se suma a ese build, y un GetOrBuild que llega durante un Rebuild
// espera su resultado.
func (r *Registry) shared(ctx context.Context, minPeriods int, force bool) (*Engine, error) {
	v, err, _ := r.group.Do(strconv.Itoa(minPeriods), func() (any, error) {
		if !force {
			if e := r.current.Load(); e != nil && e.MinPeriods() == minPeriods {
				return e, nil
			}
		}
		return r.buildLocked(ctx, minPeriods)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: min_periods=%d: %w", models.ErrNotReady, minPeriods, err)
	}
	return v.(*Engine), nil
}

func (r *Registry) buildLocked(ctx context.Context, minPeriods int) (*Engine, error) {
	log := logging.With().Str("component", "registry").Int("min_periods", minPeriods).Logger()

	r.mu.Lock()
	r.building[minPeriods]++
	r.last, r.hasLast = minPeriods, true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.building[minPeriods]--; r.building[minPeriods] <= 0 {
			delete(r.building, minPeriods)
		}
		r.mu.Unlock()
	}()

	log.Info().Msg("[registry] construyendo motor")
	start := time.Now()

	// el build es compartido: que un cliente que corta no lo cancele para el resto
	e, err := r.build(context.WithoutCancel(ctx), minPeriods)
	metrics.EngineBuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.mu.Lock()
		r.failed[minPeriods] = err
		r.mu.Unlock()
		metrics.EngineBuilds.WithLabelValues("error").Inc()
		if r.current.Load() == nil {
			metrics.EngineReady.Set(0)
		}
		log.Error().Err(err).Msg("[registry] falló la construcción del motor")
		return nil, err
	}

	r.current.Store(e)
	r.mu.Lock()
	delete(r.failed, minPeriods)
	r.mu.Unlock()
	metrics.EngineBuilds.WithLabelValues("ok").Inc()
	metrics.EngineReady.Set(1)
	log.Info().Str("mode", e.Mode()).Dur("elapsed", time.Since(start)).Msg("[registry] motor publicado")
	return e, nil
}

// Status estado del último min_periods pedido: building mientras se
// construye, failed si su build falló, o el estado del motor publicado.
func (r *Registry) Status() models.EngineState {
	r.mu.Lock()
	last, hasLast := r.last, r.hasLast
	building := r.building[last] > 0
	cause := r.failed[last]
	r.mu.Unlock()

	current := r.current.Load()
	switch {
	case hasLast && building:
		return models.EngineState{State: models.StateBuilding, MinPeriods: last}
	case hasLast && cause != nil:
		return models.EngineState{State: models.StateFailed, MinPeriods: last, Error: cause.Error()}
	case current != nil:
		return current.Status()
	default:
		return models.EngineState{State: models.StateUnbuilt}
	}
}
