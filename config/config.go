package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	StoreBackend     string
	PGURL            string
	MongoURI         string
	MongoDB          string
	Port             string
	RedisAddr        string
	LogLevel         string
	LogFormat        string
	SourceEncoding   string
	LayoutFile       string
	DrainConcurrency int
	UploadDir        string
	InboxDir         string
	InboxSchedule    string
}

// Load reads configuration from a .env file (if present) and environment variables
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLocal reads the same configuration as Load but forces the memory
// backend, so store settings such as PG_URL are neither required nor checked.
func LoadLocal() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	cfg.StoreBackend = BackendMemory
	return cfg, nil
}

func load() (*Config, error) {
	// a missing .env is fine; real environment variables take precedence
	_ = godotenv.Load()

	cfg := &Config{
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		PGURL:          os.Getenv("PG_URL"),
		MongoURI:       os.Getenv("MONGODB_URI"),
		MongoDB:        getEnv("MONGODB_NAME", "deudores"),
		Port:           getEnv("PORT", "8080"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		SourceEncoding: getEnv("SOURCE_ENCODING", "ISO-8859-1"),
		LayoutFile:     os.Getenv("LAYOUT_FILE"),
		UploadDir:      os.Getenv("UPLOAD_DIR"),
		InboxDir:       getEnv("INBOX_DIR", "./inbox"),
		InboxSchedule:  getEnv("INBOX_SCHEDULE", "@every 1m"),
	}

	concurrency, err := strconv.Atoi(getEnv("DRAIN_CONCURRENCY", "1"))
	if err != nil || concurrency < 1 {
		return nil, fmt.Errorf("DRAIN_CONCURRENCY must be a positive integer")
	}
	cfg.DrainConcurrency = concurrency

	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func (cfg *Config) validateStore() error {
	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.PGURL == "" {
			return fmt.Errorf("PG_URL environment variable is required")
		}
	case BackendMongo:
		if cfg.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI environment variable is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}
	return nil
}

// SetupLogging applies the configured level and formatter to the standard logrus logger
func SetupLogging(cfg *Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
