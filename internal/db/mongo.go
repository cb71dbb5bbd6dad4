package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hanush21/anime-recommender/internal/config"
	"github.com/hanush21/anime-recommender/internal/logging"
)

var mongoClient *mongo.Client
var mongoDB *mongo.Database

// Connect abre el cliente, hace ping y devuelve la base dbName (el cliente
// queda en db.Client()).
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: MONGO_URI vacío")
	}
	if dbName == "" {
		return nil, fmt.Errorf("mongo: MONGO_DB vacío")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: conectando: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping falló: %w", err)
	}
	return client.Database(dbName), nil
}

// InitMongo conecta el cliente global; un fallo termina el proceso.
func InitMongo(cfg *config.Config) {
	database, err := Connect(context.Background(), cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logging.Fatal().Err(err).Msg("[mongo] no se pudo conectar")
	}

	mongoClient = database.Client()
	mongoDB = database
	logging.Info().Str("db", cfg.MongoDB).Msg("[mongo] conectado")
}

func DB() *mongo.Database {
	return mongoDB
}

// Close desconecta el cliente global si existe.
func Close(ctx context.Context) {
	if mongoClient == nil {
		return
	}
	if err := mongoClient.Disconnect(ctx); err != nil {
		logging.Warn().Err(err).Msg("[mongo] error al desconectar")
	}
}
