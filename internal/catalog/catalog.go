// Package catalog carga la metadata de anime y resuelve títulos.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/hanush21/anime-recommender/internal/models"
)

// MinSuggestLen largo mínimo (en runas, ya normalizado) para autocompletar.
const MinSuggestLen = 2

// Source entrega los registros de anime en orden de archivo.
type Source interface {
	Each(ctx context.Context, fn func(models.AnimeDoc) error) error
}

// Docs adapta un slice en memoria a Source.
type Docs []models.AnimeDoc

func (d Docs) Each(ctx context.Context, fn func(models.AnimeDoc) error) error {
	for _, doc := range d {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// Catalog es inmutable después de Load.
type Catalog struct {
	items  []models.AnimeDoc
	byID   map[int]int
	byNorm map[string]int
	// índices de items ordenados por members desc, name asc
	byPopularity []int
	// índices de items ordenados por name asc
	byName []int
}

func Load(ctx context.Context, src Source) (*Catalog, error) {
	var docs []models.AnimeDoc
	err := src.Each(ctx, func(d models.AnimeDoc) error {
		docs = append(docs, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return New(docs), nil
}

// New indexa los registros. Con ids repetidos gana el primero.
func New(docs []models.AnimeDoc) *Catalog {
	c := &Catalog{
		byID:   make(map[int]int, len(docs)),
		byNorm: make(map[string]int, len(docs)),
	}
	for _, d := range docs {
		if _, dup := c.byID[d.AnimeID]; dup {
			continue
		}
		if d.Genre == "" {
			d.Genre = "Unknown"
		}
		d.NameNorm = Normalize(d.Name)
		idx := len(c.items)
		c.items = append(c.items, d)
		c.byID[d.AnimeID] = idx
		if _, ok := c.byNorm[d.NameNorm]; !ok {
			c.byNorm[d.NameNorm] = idx
		}
	}

	c.byPopularity = make([]int, len(c.items))
	c.byName = make([]int, len(c.items))
	for i := range c.items {
		c.byPopularity[i] = i
		c.byName[i] = i
	}
	sort.SliceStable(c.byPopularity, func(a, b int) bool {
		x, y := c.items[c.byPopularity[a]], c.items[c.byPopularity[b]]
		if x.Members != y.Members {
			return x.Members > y.Members
		}
		return x.Name < y.Name
	})
	sort.SliceStable(c.byName, func(a, b int) bool {
		return c.items[c.byName[a]].Name < c.items[c.byName[b]].Name
	})
	return c
}

var fold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize: minúsculas, sin acentos, puntuación a espacio, espacios colapsados.
func Normalize(s string) string {
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func (c *Catalog) Len() int { return len(c.items) }

func (c *Catalog) Get(id int) (models.AnimeDoc, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return models.AnimeDoc{}, false
	}
	return c.items[idx], true
}

// Resolve: match exacto sobre el nombre normalizado; si no, el más popular
// cuyo nombre contiene la consulta.
func (c *Catalog) Resolve(query string) (int, error) {
	q := Normalize(query)
	if q == "" {
		return 0, fmt.Errorf("%w: empty title", models.ErrNotFound)
	}
	if idx, ok := c.byNorm[q]; ok {
		return c.items[idx].AnimeID, nil
	}

	best := -1
	for i := range c.items {
		if !strings.Contains(c.items[i].NameNorm, q) {
			continue
		}
		if best < 0 || c.items[i].Members > c.items[best].Members {
			best = i
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("%w: %q", models.ErrNotFound, query)
	}
	return c.items[best].AnimeID, nil
}

// Suggest autocompletado por substring. Devuelve el total de coincidencias
// y la página pedida, ordenada por members desc y name asc.
func (c *Catalog) Suggest(prefix string, limit, offset int) (int, []models.AnimeDoc) {
	return c.SuggestWhere(prefix, limit, offset, nil)
}

// List listado alfabético paginado (con filtro opcional).
func (c *Catalog) List(limit, offset int, keep func(models.AnimeDoc) bool) (int, []models.AnimeDoc) {
	return c.page(c.byName, limit, offset, keep)
}

// SuggestWhere como Suggest pero con un filtro extra (p.ej. mínimo de ratings).
func (c *Catalog) SuggestWhere(prefix string, limit, offset int, keep func(models.AnimeDoc) bool) (int, []models.AnimeDoc) {
	q := Normalize(prefix)
	if len([]rune(q)) < MinSuggestLen {
		return 0, []models.AnimeDoc{}
	}
	return c.page(c.byPopularity, limit, offset, func(d models.AnimeDoc) bool {
		return strings.Contains(d.NameNorm, q) && (keep == nil || keep(d))
	})
}

func (c *Catalog) page(order []int, limit, offset int, keep func(models.AnimeDoc) bool) (int, []models.AnimeDoc) {
	if offset < 0 {
		offset = 0
	}
	total := 0
	out := []models.AnimeDoc{}
	for _, idx := range order {
		d := c.items[idx]
		if keep != nil && !keep(d) {
			continue
		}
		if total >= offset && (limit <= 0 || len(out) < limit) {
			out = append(out, d)
		}
		total++
	}
	return total, out
}
