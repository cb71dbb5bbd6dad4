// Package similarity calcula correlaciones de Pearson ítem-ítem sobre la
// matriz dispersa de ratings.
//
// La correlación es pairwise-complete: media y varianza se calculan solo
// sobre los usuarios que puntuaron ambos ítems. Para un objetivo t se
// recorren las filas de sus usuarios acumulando, por cada candidato c,
//
//	n, Σx, Σy, Σx², Σy², Σxy   (x = rating de t, y = rating de c)
//
// y luego
//
//	cov  = Σxy − ΣxΣy/n
//	varx = Σx² − (Σx)²/n
//	vary = Σy² − (Σy)²/n
//	r    = cov / sqrt(varx·vary)
package similarity

import (
	"math"
	"sort"
	"sync"

	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/ratings"
)

// varianza por debajo de esto (relativa a Σx²) se considera cero
const zeroVarianceEps = 1e-10

type pairStats struct {
	n                     int
	sx, sy, sxx, syy, sxy float64
}

type scratch struct {
	stats   []pairStats
	touched []int32
}

// Engine es seguro para uso concurrente; no muta el Store.
type Engine struct {
	store *ratings.Store
	pool  sync.Pool
}

func New(store *ratings.Store) *Engine {
	e := &Engine{store: store}
	e.pool.New = func() any {
		return &scratch{stats: make([]pairStats, store.NumItems())}
	}
	return e
}

func (e *Engine) Store() *ratings.Store { return e.store }

// Compute correlaciona target contra candidates (nil = todos los ítems).
// Devuelve aristas con common >= minPeriods ordenadas por correlación desc.
// Casos degenerados devuelven una lista vacía, nunca error.
func (e *Engine) Compute(target int, candidates []int, minPeriods int) models.NeighborList {
	tIdx, ok := e.store.ItemIndex(target)
	if !ok {
		return models.NeighborList{}
	}
	var allowed []bool
	if candidates != nil {
		allowed = make([]bool, e.store.NumItems())
		for _, id := range candidates {
			if idx, ok := e.store.ItemIndex(id); ok {
				allowed[idx] = true
			}
		}
	}
	return e.computeAt(tIdx, allowed, minPeriods, 0)
}

// Neighbors top-K vecinos de target contra todo el catálogo de ratings.
func (e *Engine) Neighbors(target, minPeriods, topK int) models.NeighborList {
	tIdx, ok := e.store.ItemIndex(target)
	if !ok {
		return models.NeighborList{}
	}
	return e.computeAt(tIdx, nil, minPeriods, topK)
}

// NeighborsAt igual que Neighbors pero por índice denso (precálculo batch).
func (e *Engine) NeighborsAt(tIdx, minPeriods, topK int) models.NeighborList {
	return e.computeAt(tIdx, nil, minPeriods, topK)
}

func (e *Engine) computeAt(tIdx int, allowed []bool, minPeriods, topK int) models.NeighborList {
	if minPeriods < 1 {
		minPeriods = 1
	}
	col := e.store.ColumnAt(tIdx)
	if len(col.Users) < minPeriods || zeroVariance(col.Values) {
		return models.NeighborList{}
	}

	sc := e.pool.Get().(*scratch)
	defer e.release(sc)

	for k, u := range col.Users {
		x := float64(col.Values[k])
		row := e.store.RowAt(int(u))
		for m, j := range row.Items {
			if int(j) == tIdx {
				continue
			}
			if allowed != nil && !allowed[j] {
				continue
			}
			st := &sc.stats[j]
			if st.n == 0 {
				sc.touched = append(sc.touched, j)
			}
			y := float64(row.Values[m])
			st.n++
			st.sx += x
			st.sy += y
			st.sxx += x * x
			st.syy += y * y
			st.sxy += x * y
		}
	}

	src := e.store.ItemID(tIdx)
	out := models.NeighborList{}
	for _, j := range sc.touched {
		st := sc.stats[j]
		if st.n < minPeriods {
			continue
		}
		r, ok := st.pearson()
		if !ok {
			continue
		}
		out = append(out, models.SimilarityEdge{
			SrcID:       src,
			DstID:       e.store.ItemID(int(j)),
			Correlation: r,
			Common:      st.n,
		})
	}

	SortEdges(out)
	if topK > 0 && len(out) > topK {
		out = out[:topK:topK]
	}
	return out
}

func (e *Engine) release(sc *scratch) {
	for _, j := range sc.touched {
		sc.stats[j] = pairStats{}
	}
	sc.touched = sc.touched[:0]
	e.pool.Put(sc)
}

func (st pairStats) pearson() (float64, bool) {
	n := float64(st.n)
	varx := st.sxx - st.sx*st.sx/n
	vary := st.syy - st.sy*st.sy/n
	if varx <= zeroVarianceEps*math.Max(1, st.sxx) || vary <= zeroVarianceEps*math.Max(1, st.syy) {
		return 0, false
	}
	r := (st.sxy - st.sx*st.sy/n) / math.Sqrt(varx*vary)
	if math.IsNaN(r) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}

func zeroVariance(vals []float32) bool {
	var s, ss float64
	for _, v := range vals {
		x := float64(v)
		s += x
		ss += x * x
	}
	n := float64(len(vals))
	if n == 0 {
		return true
	}
	return ss-s*s/n <= zeroVarianceEps*math.Max(1, ss)
}

// SortEdges ordena por correlación desc; empates por dst asc.
func SortEdges(edges []models.SimilarityEdge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Correlation != edges[j].Correlation {
			return edges[i].Correlation > edges[j].Correlation
		}
		return edges[i].DstID < edges[j].DstID
	})
}
