// Package config reads runtime settings from the environment, loading a .env
// file first when one exists.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type Config struct {
	Port string
	Env  string

	FirebaseCredentialsPath string
	FirebaseProjectID       string

	// Store selects the TripStore backend: "firestore" or "memory"
	Store       string
	DatabaseURL string
	RedisURL    string

	ProfileCacheSize int
	ProfileCacheTTL  time.Duration

	WorkerInterval time.Duration
	SMTP           SMTPConfig
}

// Load reads .env (if present) and the process environment
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using system environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() Config {
	return Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		Store:                   getEnv("TRIPMATE_STORE", StoreFirestore),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		RedisURL:                getEnv("REDIS_URL", ""),
		ProfileCacheSize:        getEnvInt("PROFILE_CACHE_SIZE", 1024),
		ProfileCacheTTL:         getEnvDuration("PROFILE_CACHE_TTL", 10*time.Minute),
		WorkerInterval:          getEnvDuration("WORKER_INTERVAL", 10*time.Second),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("EMAIL_FROM"),
		},
	}
}

// IsProduction reports whether cookies should be marked secure
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
