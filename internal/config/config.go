package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	GinMode         string
	MySQLDSN        string
	RedisAddr       string
	KafkaBrokers    []string
	JWTSecret       string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from the environment, with a .env file as a
// convenience for local development.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		MySQLDSN:        getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/shopcart?parseTime=true"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:        getDuration("TOKEN_TTL", 24*time.Hour),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		AdminName:       getEnv("ADMIN_NAME", "Admin"),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@shopcart.local"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
