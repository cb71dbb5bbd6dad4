package models

import "time"

// Estados del ciclo de vida del motor.
const (
	StateUnbuilt  = "unbuilt"
	StateBuilding = "building"
	StateReady    = "ready"
	StateFailed   = "failed"
)

// Modos de servicio de vecinos.
const (
	ModeCached   = "cached"
	ModeFallback = "fallback"
)

// EngineState es la foto que devuelve /recommender/status.
type EngineState struct {
	State        string     `json:"state"`
	Ready        bool       `json:"ready"`
	BuiltAt      *time.Time `json:"built_at"`
	BuildSeconds float64    `json:"build_seconds"`
	Mode         string     `json:"mode,omitempty"`
	MinPeriods   int        `json:"min_periods"`
	Generation   string     `json:"generation,omitempty"`
	Users        int        `json:"users"`
	Items        int        `json:"items"`
	Ratings      int        `json:"ratings"`
	CachedItems  int        `json:"cached_items"`
	Error        string     `json:"error,omitempty"`
}
