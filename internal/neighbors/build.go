package neighbors

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/ratings"
	"github.com/hanush21/anime-recommender/internal/similarity"
)

// cada cuántos ítems se reporta progreso
const progressEvery = 100

type BuildOptions struct {
	MinPeriods      int
	TopK            int
	PopularityFloor int
	Overwrite       bool
	// Workers: goroutines de cálculo; <= 0 usa GOMAXPROCS.
	Workers int
	// Progress se llama cada 100 ítems y al terminar.
	Progress func(done, total int)
}

type BuildResult struct {
	Generation string
	Skipped    bool
	Items      int
	Edges      int
	Elapsed    time.Duration
	Location   string
}

// Build precalcula los vecinos de todos los ítems (ids ascendentes) y los
// escribe en st. Si la generación ya existe y Overwrite es false no hace
// nada y devuelve Skipped.
//
// Los ítems se procesan por ventanas: cada ventana se calcula en paralelo y
// se escribe en orden, así la memoria queda acotada por la ventana y la
// salida es determinística.
func Build(ctx context.Context, src ratings.Source, st Store, opts BuildOptions) (*BuildResult, error) {
	start := time.Now()
	gen := Generation{TopK: opts.TopK, MinPeriods: opts.MinPeriods, PopularityFloor: opts.PopularityFloor}.withDefaults()
	res := &BuildResult{Generation: gen.Key(), Location: st.Location(gen)}
	log := logging.With().Str("component", "neighbors").Str("generation", gen.Key()).Logger()

	exists, err := st.Exists(ctx, gen)
	if err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}
	if exists && !opts.Overwrite {
		log.Info().Str("location", res.Location).Msg("[neighbors] generación existente, se omite")
		res.Skipped = true
		res.Elapsed = time.Since(start)
		return res, nil
	}

	store, err := ratings.Load(ctx, src, ratings.Options{MinItemRatings: gen.PopularityFloor})
	if err != nil {
		return nil, err
	}
	eng := similarity.New(store)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	window := workers * 64
	total := store.NumItems()

	log.Info().
		Int("items", total).
		Int("users", store.NumUsers()).
		Int("ratings", store.NumRatings()).
		Int("workers", workers).
		Msg("[neighbors] iniciando precálculo")

	w, err := st.Create(ctx, gen)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	results := make([]models.NeighborList, window)
	done := 0
	for lo := 0; lo < total; lo += window {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("neighbors: cancelado en %d/%d: %w", done, total, err)
		}
		hi := min(lo+window, total)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for idx := lo; idx < hi; idx++ {
			idx := idx
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				results[idx-lo] = eng.NeighborsAt(idx, gen.MinPeriods, gen.TopK)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("neighbors: %w", err)
		}

		for idx := lo; idx < hi; idx++ {
			list := results[idx-lo]
			results[idx-lo] = nil
			if len(list) > 0 {
				if err := w.Append(ctx, store.ItemID(idx), list); err != nil {
					return nil, fmt.Errorf("neighbors: escribiendo %d: %w", store.ItemID(idx), err)
				}
				res.Items++
				res.Edges += len(list)
			}
			done++
			if opts.Progress != nil && (done%progressEvery == 0 || done == total) {
				opts.Progress(done, total)
			}
		}
	}

	if err := w.Commit(ctx); err != nil {
		return nil, fmt.Errorf("neighbors: commit: %w", err)
	}
	if opts.Progress != nil && total == 0 {
		opts.Progress(0, 0)
	}

	res.Elapsed = time.Since(start)
	log.Info().
		Int("items", res.Items).
		Int("edges", res.Edges).
		Dur("elapsed", res.Elapsed).
		Str("location", res.Location).
		Msg("[neighbors] generación escrita")
	return res, nil
}
