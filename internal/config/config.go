package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ServerPort string
	DBPath     string
	LogLevel   string

	// RedisAddr selects the variant cache backend: redis when set, the
	// relational store otherwise.
	RedisAddr string

	// GCSBucket enables custom asset uploads; CDNDomain, when set, is used
	// instead of the default storage.googleapis.com URL prefix.
	GCSBucket string
	CDNDomain string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBPath:     getEnv("DB_PATH", "cluequest.db"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		RedisAddr:  getEnv("REDIS_ADDR", ""),
		GCSBucket:  getEnv("GCS_BUCKET", ""),
		CDNDomain:  getEnv("CDN_DOMAIN", ""),
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("redis_cache", cfg.RedisAddr != "").
		Bool("object_storage", cfg.GCSBucket != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
