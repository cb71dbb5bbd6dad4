package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hanush21/anime-recommender/internal/models"
)

// AnimeRepository lee la colección "anime".
type AnimeRepository struct {
	col *mongo.Collection
}

func NewAnimeRepository(db *mongo.Database) *AnimeRepository {
	return &AnimeRepository{col: db.Collection("anime")}
}

// Each en orden de inserción (_id asc), igual que el CSV.
func (r *AnimeRepository) Each(ctx context.Context, fn func(models.AnimeDoc) error) error {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("%w: anime: %v", models.ErrLoad, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return fmt.Errorf("%w: anime: %v", models.ErrLoad, err)
		}
		name, _ := raw["name"].(string)
		if _, ok := raw["anime_id"]; !ok || name == "" {
			return fmt.Errorf("%w: anime: documento sin anime_id o name", models.ErrLoad)
		}
		genre, _ := raw["genre"].(string)
		doc := models.AnimeDoc{
			AnimeID:  asInt(raw["anime_id"]),
			Name:     name,
			Members:  asInt64(raw["members"]),
			Genre:    genre,
			Episodes: asInt(raw["episodes"]),
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("%w: anime: %v", models.ErrLoad, err)
	}
	return nil
}
