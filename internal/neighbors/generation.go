// Package neighbors precalcula, persiste y carga listas top-K de vecinos
// por anime. Cada combinación (topK, min_periods, piso de popularidad) es una
// generación con su propia clave; generaciones distintas nunca comparten
// artefacto.
package neighbors

import (
	"fmt"
	"sort"

	"github.com/hanush21/anime-recommender/internal/models"
	"github.com/hanush21/anime-recommender/internal/similarity"
)

const (
	DefaultTopK       = 50
	DefaultMinPeriods = 3
)

// Generation identifica un artefacto de vecinos.
type Generation struct {
	TopK            int
	MinPeriods      int
	PopularityFloor int
}

// Key: neighbors_top50_mp3, o neighbors_top50_mp3_pf20 con piso de popularidad.
func (g Generation) Key() string {
	key := fmt.Sprintf("neighbors_top%d_mp%d", g.TopK, g.MinPeriods)
	if g.PopularityFloor > 0 {
		key += fmt.Sprintf("_pf%d", g.PopularityFloor)
	}
	return key
}

func (g Generation) withDefaults() Generation {
	if g.TopK <= 0 {
		g.TopK = DefaultTopK
	}
	if g.MinPeriods <= 0 {
		g.MinPeriods = DefaultMinPeriods
	}
	if g.PopularityFloor < 0 {
		g.PopularityFloor = 0
	}
	return g
}

// Lists vecinos por id de anime origen.
type Lists map[int]models.NeighborList

// Len cantidad de aristas en total.
func (l Lists) Len() int {
	n := 0
	for _, nl := range l {
		n += len(nl)
	}
	return n
}

// IDs origen en orden ascendente.
func (l Lists) IDs() []int {
	ids := make([]int, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// normalize deja cada lista ordenada, sin autorreferencias, sin aristas por
// debajo de min_periods y truncada a topK.
func (l Lists) normalize(gen Generation) {
	for src, nl := range l {
		kept := nl[:0]
		for _, e := range nl {
			if e.DstID == src || e.Common < gen.MinPeriods {
				continue
			}
			if e.Correlation < -1 || e.Correlation > 1 {
				continue
			}
			kept = append(kept, e)
		}
		similarity.SortEdges(kept)
		if len(kept) > gen.TopK {
			kept = kept[:gen.TopK:gen.TopK]
		}
		if len(kept) == 0 {
			delete(l, src)
			continue
		}
		l[src] = kept
	}
}
