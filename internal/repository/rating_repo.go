package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hanush21/anime-recommender/internal/models"
)

// RatingRepository lee la colección "ratings" ({user_id, anime_id, rating}).
type RatingRepository struct {
	col *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) *RatingRepository {
	return &RatingRepository{col: db.Collection("ratings")}
}

// helpers de casteo seguro: la colección puede venir de mongoimport con
// números como int32, int64 o double
func asInt(v any) int {
	switch x := v.(type) {
	case int32:
		return int(x)
	case int64:
		return int(x)
	case float64:
		return int(x)
	default:
		return 0
	}
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int32:
		return int64(x)
	case int64:
		return x
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// Each recorre toda la colección. Documentos sin rating numérico son un
// error de carga.
func (r *RatingRepository) Each(ctx context.Context, fn func(models.RatingRecord) error) error {
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "user_id": 1, "anime_id": 1, "rating": 1}).
		SetBatchSize(10000)

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("%w: ratings: %v", models.ErrLoad, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return fmt.Errorf("%w: ratings: %v", models.ErrLoad, err)
		}
		rating, ok := asFloat64(raw["rating"])
		if !ok {
			return fmt.Errorf("%w: ratings: documento sin rating numérico", models.ErrLoad)
		}
		rec := models.RatingRecord{
			UserID: asInt(raw["user_id"]),
			ItemID: asInt(raw["anime_id"]),
			Rating: rating,
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("%w: ratings: %v", models.ErrLoad, err)
	}
	return nil
}
