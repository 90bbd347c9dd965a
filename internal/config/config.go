package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds everything the server reads from the environment.
type Config struct {
	ServerPort string
	RedisAddr  string
	LogLevel   string
	GameTTL    time.Duration
	BotDelay   time.Duration
}

// Load reads .env if present, then the environment, falling back to defaults.
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		GameTTL:    getDuration("GAME_TTL", 2*time.Hour),
		BotDelay:   getDuration("BOT_DELAY", 1200*time.Millisecond),
	}

	logger.Info().
		Str("server_port", cfg.ServerPort).
		Str("redis_addr", cfg.RedisAddr).
		Str("log_level", cfg.LogLevel).
		Dur("game_ttl", cfg.GameTTL).
		Dur("bot_delay", cfg.BotDelay).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
