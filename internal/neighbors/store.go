package neighbors

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanush21/anime-recommender/internal/logging"
	"github.com/hanush21/anime-recommender/internal/models"
)

// Store persiste generaciones de vecinos. Un solo escritor por generación:
// la existencia más el flag overwrite es la única coordinación.
type Store interface {
	// Exists indica si hay una generación completa con esa clave.
	Exists(ctx context.Context, gen Generation) (bool, error)
	// Create abre una generación nueva; lo escrito no es visible para
	// Load hasta Commit.
	Create(ctx context.Context, gen Generation) (Writer, error)
	// Read devuelve las listas tal como están persistidas.
	Read(ctx context.Context, gen Generation) (Lists, error)
	// Location describe dónde vive la generación (ruta o colección).
	Location(gen Generation) string
}

// Writer agrega listas de a una por anime origen.
type Writer interface {
	Append(ctx context.Context, src int, list models.NeighborList) error
	// Commit publica la generación.
	Commit(ctx context.Context) error
	// Close libera recursos; sin Commit deja un artefacto parcial
	// identificable que Load nunca lee.
	Close() error
}

// Load carga una generación completa. Cualquier falla (ausente, corrupta,
// error de IO) se devuelve envuelta en models.ErrCacheMiss.
func Load(ctx context.Context, st Store, gen Generation) (Lists, error) {
	gen = gen.withDefaults()

	ok, err := st.Exists(ctx, gen)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrCacheMiss, gen.Key(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", models.ErrCacheMiss, gen.Key())
	}

	lists, err := st.Read(ctx, gen)
	if err != nil {
		if errors.Is(err, models.ErrCacheMiss) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrCacheMiss, gen.Key(), err)
	}
	lists.normalize(gen)

	logging.Info().
		Str("generation", gen.Key()).
		Str("location", st.Location(gen)).
		Int("items", len(lists)).
		Int("edges", lists.Len()).
		Msg("[neighbors] generación cargada")
	return lists, nil
}
