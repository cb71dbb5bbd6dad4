package repository

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hanush21/anime-recommender/internal/models"
)

// RatingCSV lee ratings_clean.csv (user_id, anime_id|item_id, rating).
type RatingCSV struct {
	Path string
}

func NewRatingCSV(path string) *RatingCSV {
	return &RatingCSV{Path: path}
}

func (s *RatingCSV) Each(ctx context.Context, fn func(models.RatingRecord) error) error {
	return eachRow(ctx, s.Path, func(h header) error {
		if err := h.require("user_id", "rating"); err != nil {
			return err
		}
		if !h.has("anime_id") && !h.has("item_id") {
			return fmt.Errorf("falta la columna %q", "anime_id")
		}
		return nil
	}, func(h header, line int, rec []string) error {
		user, err := strconv.Atoi(h.get(rec, "user_id"))
		if err != nil {
			return fmt.Errorf("línea %d: user_id: %w", line, err)
		}
		item, err := strconv.Atoi(h.get(rec, "anime_id", "item_id"))
		if err != nil {
			return fmt.Errorf("línea %d: anime_id: %w", line, err)
		}
		rating, err := strconv.ParseFloat(h.get(rec, "rating"), 64)
		if err != nil {
			return fmt.Errorf("línea %d: rating: %w", line, err)
		}
		return fn(models.RatingRecord{UserID: user, ItemID: item, Rating: rating})
	})
}

// AnimeCSV lee anime.csv. anime_id y name son obligatorias; members, genre y
// episodes son opcionales (vacío o no numérico cuenta como 0).
type AnimeCSV struct {
	Path string
}

func NewAnimeCSV(path string) *AnimeCSV {
	return &AnimeCSV{Path: path}
}

func (s *AnimeCSV) Each(ctx context.Context, fn func(models.AnimeDoc) error) error {
	return eachRow(ctx, s.Path, func(h header) error {
		return h.require("anime_id", "name")
	}, func(h header, line int, rec []string) error {
		id, err := strconv.Atoi(h.get(rec, "anime_id"))
		if err != nil {
			return fmt.Errorf("línea %d: anime_id: %w", line, err)
		}
		members, _ := strconv.ParseInt(h.get(rec, "members"), 10, 64)
		episodes, _ := strconv.Atoi(h.get(rec, "episodes"))
		return fn(models.AnimeDoc{
			AnimeID:  id,
			Name:     h.get(rec, "name"),
			Members:  members,
			Genre:    h.get(rec, "genre"),
			Episodes: episodes,
		})
	})
}

type header map[string]int

func (h header) has(name string) bool {
	_, ok := h[name]
	return ok
}

func (h header) require(names ...string) error {
	for _, n := range names {
		if !h.has(n) {
			return fmt.Errorf("falta la columna %q", n)
		}
	}
	return nil
}

// get devuelve el primer campo presente entre names, sin espacios.
func (h header) get(rec []string, names ...string) string {
	for _, n := range names {
		if i, ok := h[n]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
	}
	return ""
}

type rowFunc func(h header, line int, rec []string) error

// eachRow abre el CSV, valida la cabecera y llama row por cada registro.
// Los errores de lectura o formato salen envueltos en models.ErrLoad.
func eachRow(ctx context.Context, path string, validate func(header) error, row rowFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrLoad, err)
	}
	defer f.Close()

	cr := csv.NewReader(bufio.NewReaderSize(f, 1<<16))
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if err != nil {
		return fmt.Errorf("%w: %s: cabecera: %v", models.ErrLoad, path, err)
	}
	h := make(header, len(first))
	for i, name := range first {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	if err := validate(h); err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrLoad, path, err)
	}

	for line := 2; ; line++ {
		if line%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", models.ErrLoad, path, err)
		}
		if err := row(h, line, rec); err != nil {
			return fmt.Errorf("%w: %s: %v", models.ErrLoad, path, err)
		}
	}
}
