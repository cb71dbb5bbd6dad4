package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/hanush21/anime-recommender/internal/cache"
	"github.com/hanush21/anime-recommender/internal/catalog"
	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/metrics"
	"github.com/hanush21/anime-recommender/internal/models"
)

// RecommendService es lo que usan los handlers: busca el motor en el
// registry, consulta y guarda respuestas en Redis.
type RecommendService struct {
	registry          *Registry
	cache             *cache.ResponseCache
	defaultMinPeriods int
}

func NewRecommendService(registry *Registry, rc *cache.ResponseCache, defaultMinPeriods int) *RecommendService {
	if defaultMinPeriods <= 0 {
		defaultMinPeriods = 3
	}
	return &RecommendService{
		registry:          registry,
		cache:             rc,
		defaultMinPeriods: defaultMinPeriods,
	}
}

func (s *RecommendService) DefaultMinPeriods() int { return s.defaultMinPeriods }

func (s *RecommendService) minPeriods(mp int) int {
	if mp <= 0 {
		return s.defaultMinPeriods
	}
	return mp
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// cached intenta la respuesta en Redis; si no está llama compute y la guarda.
func cached[T any](ctx context.Context, rc *cache.ResponseCache, key string, compute func() (T, error)) (T, error) {
	var out T
	if rc.Enabled() {
		ok, err := rc.GetJSON(ctx, key, &out)
		switch {
		case err != nil:
			logging.Warn().Err(err).Str("key", key).Msg("[cache] error leyendo redis")
		case ok:
			metrics.ResponseCache.WithLabelValues("hit").Inc()
			return out, nil
		default:
			metrics.ResponseCache.WithLabelValues("miss").Inc()
		}
	}

	out, err := compute()
	if err != nil {
		return out, err
	}
	if err := rc.SetJSON(ctx, key, out); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("[cache] error guardando en redis")
	}
	return out, nil
}

// SimilarItems GET /getrecomenders.
func (s *RecommendService) SimilarItems(ctx context.Context, query string, topk, minPeriods int, order string) ([]models.SimilarItem, error) {
	start := time.Now()
	mp := s.minPeriods(minPeriods)
	key := fmt.Sprintf("similar:mp%d:k%d:%s:%s", mp, topk, order, catalog.Normalize(query))

	res, err := cached(ctx, s.cache, key, func() ([]models.SimilarItem, error) {
		eng, err := s.registry.GetOrBuild(ctx, mp)
		if err != nil {
			return nil, err
		}
		return eng.SimilarItems(query, topk, order)
	})
	metrics.ObserveQuery("similar", resultLabel(err), start)
	return res, err
}

// RecommendForSeen POST /recommend_by_seen.
func (s *RecommendService) RecommendForSeen(ctx context.Context, q models.SeenQuery, minPeriods int) ([]models.RecItem, error) {
	start := time.Now()
	mp := s.minPeriods(minPeriods)

	key := ""
	if s.cache.Enabled() {
		b, err := json.Marshal(q)
		if err == nil {
			sum := sha1.Sum(b)
			key = fmt.Sprintf("seen:mp%d:%s", mp, hex.EncodeToString(sum[:]))
		}
	}

	compute := func() ([]models.RecItem, error) {
		eng, err := s.registry.GetOrBuild(ctx, mp)
		if err != nil {
			return nil, err
		}
		return eng.RecommendForSeen(q)
	}

	var res []models.RecItem
	var err error
	if key != "" {
		res, err = cached(ctx, s.cache, key, compute)
	} else {
		res, err = compute()
	}
	metrics.ObserveQuery("seen", resultLabel(err), start)
	return res, err
}

// Titles GET /titles.
func (s *RecommendService) Titles(ctx context.Context, q string, limit, offset, minPeriods, minRatings int) (models.TitlePage, error) {
	start := time.Now()
	eng, err := s.registry.GetOrBuild(ctx, s.minPeriods(minPeriods))
	if err != nil {
		metrics.ObserveQuery("titles", "error", start)
		return models.TitlePage{}, err
	}
	page := eng.Titles(q, limit, offset, minRatings)
	metrics.ObserveQuery("titles", "ok", start)
	return page, nil
}

func (s *RecommendService) Status() models.EngineState {
	return s.registry.Status()
}

// Reload reconstruye el motor (p.ej. tras un rebuild de vecinos) y vacía
// el caché de respuestas.
func (s *RecommendService) Reload(ctx context.Context, minPeriods int) (models.EngineState, error) {
	mp := s.minPeriods(minPeriods)
	if _, err := s.registry.Rebuild(ctx, mp); err != nil {
		return s.registry.Status(), err
	}
	if err := s.cache.Purge(ctx); err != nil {
		logging.Warn().Err(err).Msg("[cache] no se pudo vaciar el caché de respuestas")
	}
	return s.registry.Status(), nil
}
