package neighbors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hanush21/anime-recommender/internal/models"
)

const (
	statusBuilding = "building"
	statusComplete = "complete"

	mongoBatchSize = 500
)

// MongoStore guarda una lista por (generación, anime) en "neighbors" y el
// estado de cada generación en "neighbor_generations".
type MongoStore struct {
	dbName      string
	neighbors   *mongo.Collection
	generations *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		dbName:      db.Name(),
		neighbors:   db.Collection("neighbors"),
		generations: db.Collection("neighbor_generations"),
	}
}

func (s *MongoStore) Location(gen Generation) string {
	return fmt.Sprintf("mongodb:%s.neighbors?generation=%s", s.dbName, gen.Key())
}

func (s *MongoStore) Exists(ctx context.Context, gen Generation) (bool, error) {
	var doc models.NeighborGenerationDoc
	err := s.generations.FindOne(ctx, bson.M{"_id": gen.Key()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return doc.Status == statusComplete, nil
}

func (s *MongoStore) Create(ctx context.Context, gen Generation) (Writer, error) {
	key := gen.Key()
	status := models.NeighborGenerationDoc{
		ID:              key,
		TopK:            gen.TopK,
		MinPeriods:      gen.MinPeriods,
		PopularityFloor: gen.PopularityFloor,
		Status:          statusBuilding,
		UpdatedAt:       now(),
	}
	_, err := s.generations.ReplaceOne(ctx, bson.M{"_id": key}, status, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("neighbors: marcando generación: %w", err)
	}
	// restos de una corrida anterior de la misma generación
	if _, err := s.neighbors.DeleteMany(ctx, bson.M{"generation": key}); err != nil {
		return nil, fmt.Errorf("neighbors: limpiando generación: %w", err)
	}
	return &mongoWriter{store: s, gen: gen}, nil
}

type mongoWriter struct {
	store *MongoStore
	gen   Generation
	batch []mongo.WriteModel
	items int
	done  bool
}

func (w *mongoWriter) Append(ctx context.Context, src int, list models.NeighborList) error {
	key := w.gen.Key()
	doc := models.NeighborDoc{
		ID:         fmt.Sprintf("%s:%d", key, src),
		Generation: key,
		SrcID:      src,
		Neighbors:  list,
		UpdatedAt:  now(),
	}
	w.batch = append(w.batch, mongo.NewReplaceOneModel().
		SetFilter(bson.M{"_id": doc.ID}).
		SetReplacement(doc).
		SetUpsert(true))
	w.items++
	if len(w.batch) >= mongoBatchSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *mongoWriter) flush(ctx context.Context) error {
	if len(w.batch) == 0 {
		return nil
	}
	_, err := w.store.neighbors.BulkWrite(ctx, w.batch, options.BulkWrite().SetOrdered(false))
	w.batch = w.batch[:0]
	return err
}

func (w *mongoWriter) Commit(ctx context.Context) error {
	if w.done {
		return errors.New("neighbors: writer cerrado")
	}
	w.done = true
	if err := w.flush(ctx); err != nil {
		return err
	}
	_, err := w.store.generations.UpdateOne(ctx,
		bson.M{"_id": w.gen.Key()},
		bson.M{"$set": bson.M{"status": statusComplete, "items": w.items, "updatedAt": now()}},
	)
	return err
}

// Close sin Commit deja la generación en estado "building".
func (w *mongoWriter) Close() error {
	w.done = true
	w.batch = nil
	return nil
}

func (s *MongoStore) Read(ctx context.Context, gen Generation) (Lists, error) {
	cur, err := s.neighbors.Find(ctx, bson.M{"generation": gen.Key()})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	lists := Lists{}
	for cur.Next(ctx) {
		var doc models.NeighborDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		lists[doc.SrcID] = doc.Neighbors
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return lists, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
