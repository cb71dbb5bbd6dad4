package models

// ----- REBUILD NEIGHBORS -----

// RebuildNeighborsRequest body de /admin/neighbors/rebuild.
type RebuildNeighborsRequest struct {
	MinPeriods int `json:"minPeriods" validate:"gte=0,lte=1000"`
	TopK       int `json:"topK" validate:"gte=0,lte=1000"`
	// PopularityFloor nil usa POPULARITY_FLOOR; 0 pide la generación sin piso.
	PopularityFloor *int `json:"popularityFloor" validate:"omitempty,gte=0"`
	Overwrite       bool `json:"overwrite"`
	Workers         int  `json:"workers" validate:"gte=0,lte=64"`
	// Reload reconstruye el motor al terminar para que sirva la generación nueva.
	Reload bool `json:"reload"`
}

// RebuildNeighborsResult resultado de /admin/neighbors/rebuild.
type RebuildNeighborsResult struct {
	Generation     string  `json:"generation"`
	Skipped        bool    `json:"skipped"`
	Items          int     `json:"items"`
	Edges          int     `json:"edges"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Location       string  `json:"location"`
	// Engine estado del motor si se pidió reload.
	Engine *EngineState `json:"engine,omitempty"`
}

// Mensaje de progreso para el WebSocket de rebuild.
type RebuildProgress struct {
	Type  string `json:"type"`
	Done  int    `json:"done,omitempty"`
	Total int    `json:"total,omitempty"`
	Msg   string `json:"msg,omitempty"`
}

// ----- RELOAD -----

// ReloadResult resultado de /admin/recommender/reload.
type ReloadResult struct {
	Status EngineState `json:"status"`
}
