package models

// Orden de salida de las consultas.
const (
	OrderScore = "score"
	OrderName  = "name"
)

// Respuesta de /getrecomenders.
type SimilarItem struct {
	AnimeID     int     `json:"anime_id"`
	Name        string  `json:"name"`
	Correlation float64 `json:"correlation"`
	Common      int     `json:"common"`
	Genre       string  `json:"genre"`
	Episodes    int     `json:"episodes"`
}

// Respuesta de /recommend_by_seen.
type RecItem struct {
	AnimeID  int     `json:"anime_id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Genre    string  `json:"genre"`
	Episodes int     `json:"episodes"`
}

// SeenQuery agrupa los parámetros de recommend_for_seen.
type SeenQuery struct {
	SeenIDs         []int
	SeenNames       []string
	RatingOverrides map[int]float64
	DefaultRating   float64
	TopK            int
	Order           string
}

// SeenRequest body de POST /recommend_by_seen.
type SeenRequest struct {
	SeenNames []string           `json:"seen_names" validate:"omitempty,max=500,dive,max=300"`
	SeenIDs   []int              `json:"seen_ids" validate:"omitempty,max=500"`
	Ratings   map[string]float64 `json:"ratings"`
	Rating    *float64           `json:"rating"`
	TopK      int                `json:"topk" validate:"gte=0"`
	MinP      int                `json:"minp" validate:"gte=0,lte=1000"`
	Order     string             `json:"order" validate:"omitempty,oneof=score name"`
}
