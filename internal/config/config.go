package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hanush21/anime-recommender/internal/logging"
)

type Config struct {
	HTTPPort string

	// Fuentes de datos
	DataSource  string // csv | mongo
	DataDir     string
	RatingsFile string
	AnimeFile   string

	// Caché de vecinos precalculados
	NeighborStore   string // file | mongo
	CacheDir        string
	MinPeriods      int
	CacheTopK       int
	PopularityFloor int
	Warmup          bool

	MongoURI string
	MongoDB  string

	RedisAddr        string
	RedisPass        string
	ResponseCacheTTL time.Duration

	JWTSecret       string
	CORSOrigins     []string
	RateLimitPerMin int

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8000"),

		DataSource:  strings.ToLower(getEnv("DATA_SOURCE", "csv")),
		DataDir:     dataDir,
		RatingsFile: getEnv("RATINGS_FILE", "ratings_clean_1.csv"),
		AnimeFile:   getEnv("ANIME_FILE", "anime.csv"),

		NeighborStore:   strings.ToLower(getEnv("NEIGHBOR_STORE", "file")),
		CacheDir:        getEnv("CACHE_DIR", filepath.Join(dataDir, "cache")),
		MinPeriods:      getEnvInt("MIN_PERIODS", 3),
		CacheTopK:       getEnvInt("CACHE_TOPK", 50),
		PopularityFloor: getEnvInt("POPULARITY_FLOOR", 0),
		Warmup:          getEnvBool("WARMUP", true),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "anime_recommender"),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPass:        getEnv("REDIS_PASSWORD", ""),
		ResponseCacheTTL: time.Duration(getEnvInt("RESPONSE_CACHE_TTL", 3600)) * time.Second,

		JWTSecret:       getEnv("JWT_SECRET", "super-secret"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 120),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// RatingsPath ruta completa del CSV de ratings.
func (c *Config) RatingsPath() string {
	return filepath.Join(c.DataDir, c.RatingsFile)
}

// AnimePath ruta completa del CSV de anime.
func (c *Config) AnimePath() string {
	return filepath.Join(c.DataDir, c.AnimeFile)
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		logging.Debug().Str("key", key).Str("default", def).Msg("[config] no está seteado, usando valor por defecto")
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logging.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("[config] entero inválido, usando valor por defecto")
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		logging.Warn().Str("key", key).Str("value", v).Bool("default", def).Msg("[config] booleano inválido, usando valor por defecto")
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
