package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	CORS   CORSConfig
}

type ServerConfig struct {
	Host string
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type CORSConfig struct {
	AllowedOrigins string
}

func Load() (*Config, error) {
	jwtExpiry, err := time.ParseDuration(envOrDefault("MAGAZYN_JWT_EXPIRY", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAGAZYN_JWT_EXPIRY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: envOrDefault("MAGAZYN_HOST", "0.0.0.0"),
			Port: envOrDefault("MAGAZYN_PORT", "8080"),
		},
		DB: DBConfig{
			Host:     envOrDefault("MAGAZYN_DB_HOST", "localhost"),
			Port:     envOrDefault("MAGAZYN_DB_PORT", "5432"),
			Name:     envOrDefault("MAGAZYN_DB_NAME", "magazyn"),
			User:     envOrDefault("MAGAZYN_DB_USER", "magazyn"),
			Password: envOrDefault("MAGAZYN_DB_PASSWORD", "magazyn"),
			SSLMode:  envOrDefault("MAGAZYN_DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     envOrDefault("MAGAZYN_JWT_SECRET", "change-me-in-production"),
			JWTExpiry:     jwtExpiry,
			AdminEmail:    envOrDefault("MAGAZYN_ADMIN_EMAIL", "admin@magazyn.local"),
			AdminPassword: envOrDefault("MAGAZYN_ADMIN_PASSWORD", "admin"),
			AdminName:     envOrDefault("MAGAZYN_ADMIN_NAME", "Administrator"),
		},
		CORS: CORSConfig{
			AllowedOrigins: envOrDefault("MAGAZYN_CORS_ORIGINS", "http://localhost:3000"),
		},
	}

	return cfg, nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
