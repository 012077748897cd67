package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database (optional, enables the event journal)
	DatabaseURL    string
	MigrateOnStart bool

	// Redis (optional, enables event fan-out and remote reset)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Sessions
	SessionExpiryMinutes     int
	ExpiryCheckIntervalSecs  int
	SessionTokenTTLMinutes   int
	MaxSessions              int
	TickRate                 int // physics steps (and power ticks) per second
	FrameBroadcastEveryTicks int

	// Security
	JWTSecret string

	// Game rules
	RulesFile string
	Rules     Rules
}

// Load reads the environment (and .env if present) plus the rules file.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Sessions
		SessionExpiryMinutes:     getEnvInt("SESSION_EXPIRY_MINUTES", 30),
		ExpiryCheckIntervalSecs:  getEnvInt("EXPIRY_CHECK_INTERVAL_SECONDS", 60),
		SessionTokenTTLMinutes:   getEnvInt("SESSION_TOKEN_TTL_MINUTES", 120),
		MaxSessions:              getEnvInt("MAX_SESSIONS", 200),
		TickRate:                 getEnvInt("TICK_RATE", 60),
		FrameBroadcastEveryTicks: getEnvInt("FRAME_BROADCAST_EVERY_TICKS", 2),

		// Security
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),

		RulesFile: getEnv("RULES_FILE", ""),
	}

	rules, err := LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	cfg.Rules = rules

	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
