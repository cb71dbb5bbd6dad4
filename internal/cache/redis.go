// Package cache guarda respuestas de consultas en Redis. Sin REDIS_ADDR
// todas las operaciones son no-op.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/hanush21/anime-recommender/internal/config"
	"github.com/hanush21/anime-recommender/internal/logging"
)

// ResponseCache envuelve un cliente Redis opcional.
type ResponseCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// New con client nil devuelve un caché deshabilitado.
func New(client redis.UniversalClient, ttl time.Duration) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl, prefix: "animerec:"}
}

// InitRedis conecta si REDIS_ADDR está seteado; un ping fallido termina el
// proceso.
func InitRedis(cfg *config.Config) *ResponseCache {
	if cfg.RedisAddr == "" {
		logging.Info().Msg("[redis] REDIS_ADDR vacío, caché de respuestas deshabilitado")
		return New(nil, 0)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logging.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("[redis] error conectando")
	}

	logging.Info().Str("addr", cfg.RedisAddr).Msg("[redis] OK")
	return New(client, cfg.ResponseCacheTTL)
}

func (c *ResponseCache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON lee una key; si existe deserializa el JSON en dest.
func (c *ResponseCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serializa value y lo guarda con el TTL configurado.
func (c *ResponseCache) SetJSON(ctx context.Context, key string, value any) error {
	if !c.Enabled() {
		return nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, b, c.ttl).Err()
}

// Purge borra todas las keys del servicio (tras un reload del motor).
func (c *ResponseCache) Purge(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 500 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (c *ResponseCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
