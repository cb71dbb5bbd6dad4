package models

import "errors"

var (
	// ErrLoad: archivo fuente ausente o mal formado. Fatal para la construcción.
	ErrLoad = errors.New("load error")
	// ErrNotFound: el título no resuelve a ningún anime.
	ErrNotFound = errors.New("not found")
	// ErrNotReady: no hay motor construido para esa configuración.
	ErrNotReady = errors.New("recommender not ready")
	// ErrInvalidParameter: parámetro de consulta inválido.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrCacheMiss: no hay generación de vecinos utilizable; se usa fallback.
	ErrCacheMiss = errors.New("neighbor cache miss")
)
