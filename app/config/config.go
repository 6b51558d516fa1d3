// Package config reads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultJWTSecret signs tokens when JWT_SECRET is unset. It is public, so
// production deployments must override it.
const DefaultJWTSecret = "change-me-in-production"

const (
	DriverBadger   = "badger"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	DB      DBConfig
	JWT     JWTConfig
	Cache   CacheConfig
	Posts   PostsConfig
	Backup  BackupConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type StorageConfig struct {
	Driver     string
	BadgerPath string
	SQLitePath string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
	SecureCookie    bool
}

type CacheConfig struct {
	PageTTL time.Duration
}

type PostsConfig struct {
	PerPage int
}

type BackupConfig struct {
	Dir string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", DriverBadger),
			BadgerPath: getEnv("BADGER_PATH", "data/badger"),
			SQLitePath: getEnv("SQLITE_PATH", "data/yatube.db"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "yatube"),
			Password: getEnv("DB_PASSWORD", "yatube"),
			Name:     getEnv("DB_NAME", "yatube"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", DefaultJWTSecret),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
			SecureCookie:    getEnvAsBool("SECURE_COOKIES", false),
		},
		Cache: CacheConfig{
			PageTTL: getEnvAsDuration("PAGE_CACHE_TTL", 20*time.Second),
		},
		Posts: PostsConfig{
			PerPage: getEnvAsInt("POSTS_PER_PAGE", 10),
		},
		Backup: BackupConfig{
			Dir: getEnv("BACKUP_DIR", "data/backups"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
