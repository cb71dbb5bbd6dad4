package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hanush21/anime-recommender/internal/catalog"
	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/metrics"
	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/neighbors"
	"github.com/hanush21/anime-recommender/internal/ratings"
	"github.com/hanush21/anime-recommender/internal/similarity"
)

const (
	DefaultTopK = 10
	MaxTopK     = 500 // por seguridad, no deja pedir el catálogo entero

	// ancho mínimo de las listas calculadas en fallback; por vistos se
	// mezclan muchas listas y conviene tener más candidatos
	FallbackWidth = 200

	DefaultSeenRating = 10.0
)

// EngineSources de dónde se cargan los datos del motor.
type EngineSources struct {
	Ratings ratings.Source
	Catalog catalog.Source
	// Neighbors nil: siempre fallback.
	Neighbors neighbors.Store
}

type EngineConfig struct {
	MinPeriods      int
	CacheTopK       int
	PopularityFloor int
}

// Engine responde consultas sobre datos inmutables. Lo único mutable es el
// memo de listas calculadas en fallback, protegido por su propio mutex.
type Engine struct {
	cfg     EngineConfig
	ratings *ratings.Store
	catalog *catalog.Catalog
	sim     *similarity.Engine

	cached     neighbors.Lists
	mode       string
	generation string

	builtAt  time.Time
	buildDur time.Duration

	memo *neighborMemo
}

// NewEngine carga ratings y catálogo (errores fatales, envueltos en
// models.ErrLoad) e intenta cargar la generación de vecinos que corresponde
// a cfg; si no está se queda en modo fallback.
func NewEngine(ctx context.Context, src EngineSources, cfg EngineConfig) (*Engine, error) {
	start := time.Now()
	if cfg.MinPeriods <= 0 {
		cfg.MinPeriods = neighbors.DefaultMinPeriods
	}
	if cfg.CacheTopK <= 0 {
		cfg.CacheTopK = neighbors.DefaultTopK
	}
	log := logging.With().Str("component", "engine").Int("min_periods", cfg.MinPeriods).Logger()

	store, err := ratings.Load(ctx, src.Ratings, ratings.Options{})
	if err != nil {
		return nil, asLoadError(err)
	}
	cat, err := catalog.Load(ctx, src.Catalog)
	if err != nil {
		return nil, asLoadError(err)
	}

	e := &Engine{
		cfg:     cfg,
		ratings: store,
		catalog: cat,
		sim:     similarity.New(store),
		mode:    models.ModeFallback,
		memo:    newNeighborMemo(memoCapacity),
	}

	if src.Neighbors != nil {
		gen := neighbors.Generation{TopK: cfg.CacheTopK, MinPeriods: cfg.MinPeriods, PopularityFloor: cfg.PopularityFloor}
		lists, err := neighbors.Load(ctx, src.Neighbors, gen)
		switch {
		case err == nil:
			e.cached = lists
			e.mode = models.ModeCached
			e.generation = gen.Key()
		case errors.Is(err, models.ErrCacheMiss):
			log.Warn().Err(err).Msg("[engine] sin caché de vecinos, modo fallback")
		default:
			log.Warn().Err(err).Msg("[engine] error leyendo caché de vecinos, modo fallback")
		}
	}

	e.builtAt = time.Now()
	e.buildDur = time.Since(start)
	log.Info().
		Str("mode", e.mode).
		Int("users", store.NumUsers()).
		Int("items", store.NumItems()).
		Int("ratings", store.NumRatings()).
		Int("titles", cat.Len()).
		Dur("elapsed", e.buildDur).
		Msg("[engine] listo")
	return e, nil
}

func asLoadError(err error) error {
	if errors.Is(err, models.ErrLoad) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrLoad, err)
}

func (e *Engine) MinPeriods() int { return e.cfg.MinPeriods }

func (e *Engine) Mode() string { return e.mode }

// Status foto del motor listo.
func (e *Engine) Status() models.EngineState {
	builtAt := e.builtAt
	return models.EngineState{
		State:        models.StateReady,
		Ready:        true,
		BuiltAt:      &builtAt,
		BuildSeconds: e.buildDur.Seconds(),
		Mode:         e.mode,
		MinPeriods:   e.cfg.MinPeriods,
		Generation:   e.generation,
		Users:        e.ratings.NumUsers(),
		Items:        e.ratings.NumItems(),
		Ratings:      e.ratings.NumRatings(),
		CachedItems:  len(e.cached),
	}
}

func (e *Engine) Resolve(title string) (int, error) {
	return e.catalog.Resolve(title)
}

// normalizeQuery valida order y acota topk.
func normalizeQuery(topk int, order string) (int, string, error) {
	switch order {
	case "":
		order = models.OrderScore
	case models.OrderScore, models.OrderName:
	default:
		return 0, "", fmt.Errorf("%w: order %q (score|name)", models.ErrInvalidParameter, order)
	}
	if topk <= 0 {
		topk = DefaultTopK
	}
	if topk > MaxTopK {
		topk = MaxTopK
	}
	return topk, order, nil
}

// neighborsOf lista de vecinos de un anime con al menos width entradas
// cuando existen. La lista cacheada sirve si la generación guardó ese ancho
// o si quedó más corta que su topK sin piso de popularidad (ya tiene todos
// los vecinos); si no, se calcula igual que en fallback.
func (e *Engine) neighborsOf(id, width int) models.NeighborList {
	if e.cached != nil {
		if list, ok := e.cached[id]; ok && e.cachedCovers(list, width) {
			metrics.NeighborLookups.WithLabelValues("cache").Inc()
			return list
		}
	}
	width = max(width, FallbackWidth)
	if list, ok := e.memo.get(id, width); ok {
		metrics.NeighborLookups.WithLabelValues("memo").Inc()
		return list
	}
	metrics.NeighborLookups.WithLabelValues("fallback").Inc()
	list := e.sim.Neighbors(id, e.cfg.MinPeriods, width)
	e.memo.add(id, width, list)
	return list
}

func (e *Engine) cachedCovers(list models.NeighborList, width int) bool {
	if width <= e.cfg.CacheTopK {
		return true
	}
	return e.cfg.PopularityFloor <= 0 && len(list) < e.cfg.CacheTopK
}

func (e *Engine) meta(id int) (string, string, int) {
	d, ok := e.catalog.Get(id)
	if !ok {
		return "", "Unknown", 0
	}
	return d.Name, d.Genre, d.Episodes
}

// SimilarItems vecinos de un título. models.ErrNotFound si no resuelve;
// una lista vacía si el anime no tiene vecinos confiables.
func (e *Engine) SimilarItems(query string, topk int, order string) ([]models.SimilarItem, error) {
	topk, order, err := normalizeQuery(topk, order)
	if err != nil {
		return nil, err
	}
	id, err := e.catalog.Resolve(query)
	if err != nil {
		return nil, err
	}

	list := e.neighborsOf(id, topk)
	if len(list) > topk {
		list = list[:topk]
	}

	out := make([]models.SimilarItem, 0, len(list))
	for _, edge := range list {
		name, genre, episodes := e.meta(edge.DstID)
		out = append(out, models.SimilarItem{
			AnimeID:     edge.DstID,
			Name:        name,
			Correlation: edge.Correlation,
			Common:      edge.Common,
			Genre:       genre,
			Episodes:    episodes,
		})
	}
	if order == models.OrderName {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	return out, nil
}

// resolveSeen ids primero y después nombres; sin duplicados, en orden de
// primera aparición. Lo que no resuelve se ignora.
func (e *Engine) resolveSeen(ids []int, names []string) []int {
	seen := make(map[int]struct{}, len(ids)+len(names))
	out := make([]int, 0, len(ids)+len(names))
	add := func(id int) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range ids {
		if _, ok := e.catalog.Get(id); ok || e.ratings.Has(id) {
			add(id)
		}
	}
	for _, n := range names {
		if id, err := e.catalog.Resolve(n); err == nil {
			add(id)
		}
	}
	return out
}

// RecommendForSeen suma correlation*peso de los vecinos de cada visto.
// Los vistos nunca aparecen en la salida.
func (e *Engine) RecommendForSeen(q models.SeenQuery) ([]models.RecItem, error) {
	topk, order, err := normalizeQuery(q.TopK, q.Order)
	if err != nil {
		return nil, err
	}

	seenIDs := e.resolveSeen(q.SeenIDs, q.SeenNames)
	if len(seenIDs) == 0 {
		return []models.RecItem{}, nil
	}
	isSeen := make(map[int]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		isSeen[id] = struct{}{}
	}

	scores := make(map[int]float64)
	for _, id := range seenIDs {
		weight := q.DefaultRating
		if w, ok := q.RatingOverrides[id]; ok {
			weight = w
		}
		for _, edge := range e.neighborsOf(id, max(topk, FallbackWidth)) {
			if _, ok := isSeen[edge.DstID]; ok {
				continue
			}
			scores[edge.DstID] += edge.Correlation * weight
		}
	}

	out := make([]models.RecItem, 0, len(scores))
	for id, score := range scores {
		name, genre, episodes := e.meta(id)
		out = append(out, models.RecItem{
			AnimeID:  id,
			Name:     name,
			Score:    score,
			Genre:    genre,
			Episodes: episodes,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].AnimeID < out[j].AnimeID
	})
	if order == models.OrderName {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	if len(out) > topk {
		out = out[:topk]
	}
	return out, nil
}

// Titles autocompletado (s no vacío) o listado alfabético, con la cantidad
// de ratings de cada anime. minRatings > 0 filtra por esa cantidad.
func (e *Engine) Titles(s string, limit, offset, minRatings int) models.TitlePage {
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, MaxTopK)
	offset = max(offset, 0)

	var keep func(models.AnimeDoc) bool
	if minRatings > 0 {
		keep = func(d models.AnimeDoc) bool { return e.ratings.Count(d.AnimeID) >= minRatings }
	}

	var total int
	var docs []models.AnimeDoc
	if s != "" {
		total, docs = e.catalog.SuggestWhere(s, limit, offset, keep)
	} else {
		total, docs = e.catalog.List(limit, offset, keep)
	}

	page := models.TitlePage{Count: total, Results: make([]models.TitleResult, 0, len(docs))}
	for _, d := range docs {
		page.Results = append(page.Results, models.TitleResult{
			AnimeID:     d.AnimeID,
			Name:        d.Name,
			Members:     d.Members,
			RatingCount: e.ratings.Count(d.AnimeID),
			Genre:       d.Genre,
			Episodes:    d.Episodes,
		})
	}
	return page
}
