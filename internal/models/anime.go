package models

// AnimeDoc es el registro de catálogo (anime.csv o colección "anime").
type AnimeDoc struct {
	AnimeID  int    `json:"anime_id" bson:"anime_id"`
	Name     string `json:"name" bson:"name"`
	NameNorm string `json:"-" bson:"-"`
	Members  int64  `json:"members" bson:"members"`
	Genre    string `json:"genre" bson:"genre"`
	Episodes int    `json:"episodes" bson:"episodes"`
}

// Fila del listado /titles.
type TitleResult struct {
	AnimeID     int    `json:"anime_id"`
	Name        string `json:"name"`
	Members     int64  `json:"members"`
	RatingCount int    `json:"rating_count"`
	Genre       string `json:"genre"`
	Episodes    int    `json:"episodes"`
}

type TitlePage struct {
	Count   int           `json:"count"`
	Results []TitleResult `json:"results"`
}
