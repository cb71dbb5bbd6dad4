// Package ratings indexa las observaciones (user, anime, rating) en una
// matriz dispersa usuario×ítem de solo lectura.
//
// Los ids crudos se mapean a índices densos en orden ascendente, y la matriz
// se guarda dos veces en arenas planas: por columna (ítem → usuarios) y por
// fila (usuario → ítems). Ambas vistas quedan ordenadas por índice denso.
package ratings

import (
	"context"
	"fmt"
	"sort"

	"github.com/hanush21/anime-recommender/internal/models"
)

// Source entrega las filas crudas; puede ser un CSV o una colección Mongo.
type Source interface {
	Each(ctx context.Context, fn func(models.RatingRecord) error) error
}

// Records adapta un slice en memoria a Source.
type Records []models.RatingRecord

func (r Records) Each(ctx context.Context, fn func(models.RatingRecord) error) error {
	for _, rec := range r {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

type Options struct {
	// MinItemRatings descarta ítems con menos usuarios distintos antes de indexar.
	MinItemRatings int
}

// Column: usuarios (índices densos, ascendentes) que puntuaron un ítem.
type Column struct {
	Users  []int32
	Values []float32
}

// Row: ítems (índices densos, ascendentes) que puntuó un usuario.
type Row struct {
	Items  []int32
	Values []float32
}

// Store es inmutable después de Load/Build.
type Store struct {
	userIDs []int
	itemIDs []int
	userIdx map[int]int32
	itemIdx map[int]int32

	colPtr   []int
	colUsers []int32
	colVals  []float32

	rowPtr   []int
	rowItems []int32
	rowVals  []float32
}

type entry struct {
	user, item int
	rating     float32
}

// Load lee toda la fuente y construye el índice.
func Load(ctx context.Context, src Source, opts Options) (*Store, error) {
	var entries []entry
	err := src.Each(ctx, func(r models.RatingRecord) error {
		if r.Unrated() {
			return nil
		}
		entries = append(entries, entry{user: r.UserID, item: r.ItemID, rating: float32(r.Rating)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ratings: %w", err)
	}
	return build(entries, opts), nil
}

// Build indexa registros ya en memoria (descarta los centinela).
func Build(records []models.RatingRecord, opts Options) *Store {
	entries := make([]entry, 0, len(records))
	for _, r := range records {
		if r.Unrated() {
			continue
		}
		entries = append(entries, entry{user: r.UserID, item: r.ItemID, rating: float32(r.Rating)})
	}
	return build(entries, opts)
}

func build(entries []entry, opts Options) *Store {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].item != entries[j].item {
			return entries[i].item < entries[j].item
		}
		return entries[i].user < entries[j].user
	})

	// colapsar (user, item) duplicados por media
	out := entries[:0]
	for i := 0; i < len(entries); {
		j := i
		var sum float64
		for j < len(entries) && entries[j].item == entries[i].item && entries[j].user == entries[i].user {
			sum += float64(entries[j].rating)
			j++
		}
		e := entries[i]
		e.rating = float32(sum / float64(j-i))
		out = append(out, e)
		i = j
	}
	entries = out

	// piso de popularidad
	if opts.MinItemRatings > 1 {
		kept := entries[:0]
		for i := 0; i < len(entries); {
			j := i
			for j < len(entries) && entries[j].item == entries[i].item {
				j++
			}
			if j-i >= opts.MinItemRatings {
				kept = append(kept, entries[i:j]...)
			}
			i = j
		}
		entries = kept
	}

	s := &Store{
		userIdx: make(map[int]int32),
		itemIdx: make(map[int]int32),
	}

	users := make([]int, 0)
	seen := make(map[int]struct{})
	for _, e := range entries {
		if _, ok := seen[e.user]; !ok {
			seen[e.user] = struct{}{}
			users = append(users, e.user)
		}
		if _, ok := s.itemIdx[e.item]; !ok {
			s.itemIdx[e.item] = int32(len(s.itemIDs))
			s.itemIDs = append(s.itemIDs, e.item)
		}
	}
	sort.Ints(users)
	s.userIDs = users
	for i, u := range users {
		s.userIdx[u] = int32(i)
	}

	// CSC: entries ya está ordenado por (item, user) y los índices densos son monótonos
	s.colPtr = make([]int, len(s.itemIDs)+1)
	s.colUsers = make([]int32, len(entries))
	s.colVals = make([]float32, len(entries))
	rowCount := make([]int, len(users))
	for k, e := range entries {
		col := s.itemIdx[e.item]
		u := s.userIdx[e.user]
		s.colPtr[col+1]++
		s.colUsers[k] = u
		s.colVals[k] = e.rating
		rowCount[u]++
	}
	for c := 1; c < len(s.colPtr); c++ {
		s.colPtr[c] += s.colPtr[c-1]
	}

	// CSR a partir de CSC; recorrer columnas en orden deja las filas ordenadas
	s.rowPtr = make([]int, len(users)+1)
	for u, n := range rowCount {
		s.rowPtr[u+1] = s.rowPtr[u] + n
	}
	s.rowItems = make([]int32, len(entries))
	s.rowVals = make([]float32, len(entries))
	next := make([]int, len(users))
	copy(next, s.rowPtr[:len(users)])
	for col := 0; col < len(s.itemIDs); col++ {
		for k := s.colPtr[col]; k < s.colPtr[col+1]; k++ {
			u := s.colUsers[k]
			s.rowItems[next[u]] = int32(col)
			s.rowVals[next[u]] = s.colVals[k]
			next[u]++
		}
	}
	return s
}

func (s *Store) NumUsers() int   { return len(s.userIDs) }
func (s *Store) NumItems() int   { return len(s.itemIDs) }
func (s *Store) NumRatings() int { return len(s.colUsers) }

// ItemIDs devuelve los ids crudos en orden ascendente (copia).
func (s *Store) ItemIDs() []int {
	out := make([]int, len(s.itemIDs))
	copy(out, s.itemIDs)
	return out
}

// ItemIndex traduce un id crudo a su columna densa.
func (s *Store) ItemIndex(itemID int) (int, bool) {
	idx, ok := s.itemIdx[itemID]
	return int(idx), ok
}

// ItemID traduce una columna densa a su id crudo.
func (s *Store) ItemID(idx int) int {
	return s.itemIDs[idx]
}

// UserID traduce un índice denso de usuario a su id crudo.
func (s *Store) UserID(idx int) int {
	return s.userIDs[idx]
}

func (s *Store) Has(itemID int) bool {
	_, ok := s.itemIdx[itemID]
	return ok
}

// Column devuelve la columna del ítem alineada al índice de usuarios compartido.
func (s *Store) Column(itemID int) (Column, bool) {
	idx, ok := s.itemIdx[itemID]
	if !ok {
		return Column{}, false
	}
	return s.ColumnAt(int(idx)), true
}

func (s *Store) ColumnAt(idx int) Column {
	lo, hi := s.colPtr[idx], s.colPtr[idx+1]
	return Column{Users: s.colUsers[lo:hi:hi], Values: s.colVals[lo:hi:hi]}
}

func (s *Store) RowAt(user int) Row {
	lo, hi := s.rowPtr[user], s.rowPtr[user+1]
	return Row{Items: s.rowItems[lo:hi:hi], Values: s.rowVals[lo:hi:hi]}
}

// UsersWith devuelve los índices de usuario que puntuaron el ítem.
func (s *Store) UsersWith(itemID int) []int32 {
	c, ok := s.Column(itemID)
	if !ok {
		return nil
	}
	return c.Users
}

// Count cantidad de ratings observados del ítem (0 si no existe).
func (s *Store) Count(itemID int) int {
	idx, ok := s.itemIdx[itemID]
	if !ok {
		return 0
	}
	return s.colPtr[idx+1] - s.colPtr[idx]
}
