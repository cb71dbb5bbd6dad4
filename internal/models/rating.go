package models

// RatingSentinel marca "visto pero sin puntuar" en el CSV de ratings.
const RatingSentinel = -1

// Lo que llega desde el CSV limpio o desde la colección "ratings".
type RatingRecord struct {
	UserID int     `json:"user_id" bson:"user_id"`
	ItemID int     `json:"anime_id" bson:"anime_id"`
	Rating float64 `json:"rating" bson:"rating"`
}

// Unrated indica si la fila debe descartarse antes de indexar.
func (r RatingRecord) Unrated() bool {
	return r.Rating == RatingSentinel
}
