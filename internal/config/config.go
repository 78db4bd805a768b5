package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Identity provider (GoTrue-compatible). The provider is considered
	// configured only when both the URL and the anon key are present;
	// otherwise every component runs in local fallback mode.
	IdentityURL     string
	IdentityAnonKey string

	// ServiceRoleKey grants admin API access. Server-side only: the
	// delete-account function needs it, the client core never sees it.
	ServiceRoleKey string

	// JWTSecret verifies bearer tokens issued by the identity provider.
	JWTSecret string

	DatabaseURL string
	RedisURL    string

	// CachePath is the on-device cache location. Empty selects the default.
	CachePath string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		IdentityURL:     os.Getenv("IDENTITY_URL"),
		IdentityAnonKey: os.Getenv("IDENTITY_ANON_KEY"),
		ServiceRoleKey:  os.Getenv("IDENTITY_SERVICE_ROLE_KEY"),
		JWTSecret:       os.Getenv("IDENTITY_JWT_SECRET"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		CachePath:       os.Getenv("CACHE_PATH"),
	}

	// The deletion function is useless without provider credentials in
	// production; the client core degrades to fallback mode instead.
	if cfg.Env == "production" {
		if cfg.IdentityURL == "" {
			panic("IDENTITY_URL is required in production")
		}
		if cfg.ServiceRoleKey == "" {
			panic("IDENTITY_SERVICE_ROLE_KEY is required in production")
		}
		if cfg.JWTSecret == "" {
			panic("IDENTITY_JWT_SECRET is required in production")
		}
	}

	return cfg
}

// IdentityConfigured reports whether the remote identity provider is usable.
func (c *Config) IdentityConfigured() bool {
	return c.IdentityURL != "" && c.IdentityAnonKey != ""
}

// StoreConfigured reports whether the remote table store is usable.
func (c *Config) StoreConfigured() bool {
	return c.DatabaseURL != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
