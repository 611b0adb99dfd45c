package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Leaderboard LeaderboardConfig
}

type ServerConfig struct {
	Host            string
	Port            string
	Env             string
	Version         string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Type string // "sqlite" or "postgres"
	DSN  string
	Path string // For SQLite: file path
}

// CacheConfig holds the TTL for every cached key class. The cache itself has
// no built-in TTLs; callers pass one of these on every Set.
type CacheConfig struct {
	Backend        string        `yaml:"backend"` // "memory" or "database"
	LeaderboardTTL time.Duration `yaml:"leaderboard_ttl"`
	UserStatsTTL   time.Duration `yaml:"user_stats_ttl"`
	AssignmentsTTL time.Duration `yaml:"assignments_ttl"`
}

type LeaderboardConfig struct {
	WeekDays int `yaml:"week_days"`
}

// fileConfig is the optional YAML overlay pointed to by CONFIG_FILE.
type fileConfig struct {
	Cache       *CacheConfig       `yaml:"cache"`
	Leaderboard *LeaderboardConfig `yaml:"leaderboard"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dbType := getEnv("DB_TYPE", "sqlite") // Default to SQLite for development
	if dbType != "sqlite" && dbType != "postgres" {
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
	dsn, dbPath := buildDSN(dbType)

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnv("SERVER_PORT", "8080"),
			Env:     getEnv("ENV", "development"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Type: dbType,
			DSN:  dsn,
			Path: dbPath,
		},
		Cache: DefaultCacheConfig(),
		Leaderboard: LeaderboardConfig{
			WeekDays: 7,
		},
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// Environment wins over the YAML file.
	var err error
	cfg.Cache.Backend = getEnv("CACHE_BACKEND", cfg.Cache.Backend)
	if cfg.Cache.LeaderboardTTL, err = getDuration("CACHE_TTL_LEADERBOARD", cfg.Cache.LeaderboardTTL); err != nil {
		return nil, err
	}
	if cfg.Cache.UserStatsTTL, err = getDuration("CACHE_TTL_USER_STATS", cfg.Cache.UserStatsTTL); err != nil {
		return nil, err
	}
	if cfg.Cache.AssignmentsTTL, err = getDuration("CACHE_TTL_ASSIGNMENTS", cfg.Cache.AssignmentsTTL); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Leaderboard.WeekDays, err = getInt("LEADERBOARD_WEEK_DAYS", cfg.Leaderboard.WeekDays); err != nil {
		return nil, err
	}

	if cfg.Cache.Backend != "memory" && cfg.Cache.Backend != "database" {
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.Cache.Backend)
	}
	if cfg.Leaderboard.WeekDays <= 0 {
		return nil, fmt.Errorf("LEADERBOARD_WEEK_DAYS must be positive, got %d", cfg.Leaderboard.WeekDays)
	}

	return cfg, nil
}

// DefaultCacheConfig returns the per-key-class TTLs used when nothing is configured.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Backend:        "memory",
		LeaderboardTTL: 15 * time.Minute,
		UserStatsTTL:   120 * time.Minute,
		AssignmentsTTL: 30 * time.Minute,
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Cache != nil {
		if fc.Cache.Backend != "" {
			cfg.Cache.Backend = fc.Cache.Backend
		}
		if fc.Cache.LeaderboardTTL > 0 {
			cfg.Cache.LeaderboardTTL = fc.Cache.LeaderboardTTL
		}
		if fc.Cache.UserStatsTTL > 0 {
			cfg.Cache.UserStatsTTL = fc.Cache.UserStatsTTL
		}
		if fc.Cache.AssignmentsTTL > 0 {
			cfg.Cache.AssignmentsTTL = fc.Cache.AssignmentsTTL
		}
	}
	if fc.Leaderboard != nil && fc.Leaderboard.WeekDays > 0 {
		cfg.Leaderboard.WeekDays = fc.Leaderboard.WeekDays
	}
	return nil
}

func buildDSN(dbType string) (string, string) {
	if dbType == "postgres" {
		// PostgreSQL configuration
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "vocab_practice")
		sslMode := getEnv("DB_SSLMODE", "disable")

		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			dbHost, dbPort, dbUser, dbPassword, dbName, sslMode,
		)
		return dsn, ""
	}

	// SQLite configuration (default for development)
	dbPath := getEnv("SQLITE_PATH", "./data/vocab_practice.db")
	dsn := dbPath + "?mode=rwc&cache=shared&_busy_timeout=5000"
	return dsn, dbPath
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}
