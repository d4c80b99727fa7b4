package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/room-booking/internal/scheduler"
)

// Store backends accepted by ROOMBOOK_STORE.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	Env         string
	HTTPPort    int
	Store       string
	SQLiteDSN   string
	PostgresURL string
	BoltPath    string
	RedisURL    string
	LockTTL     time.Duration
	APIKeyHash  string
	LogLevel    string
	CatalogFile string
	Rooms       []Room
	Slots       scheduler.SlotConfig
}

// Load parses configuration values from the current process environment.
//
// Outside production a .env file in the working directory is read first;
// variables already present in the environment win. Defaults are applied for
// optional fields and every missing or invalid entry is reported at once.
func Load() (Config, error) {
	env := strings.TrimSpace(os.Getenv("ROOMBOOK_ENV"))
	if env != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	cfg := Config{
		Env:       env,
		HTTPPort:  8080,
		Store:     StoreSQLite,
		SQLiteDSN: "file:roombook.db",
		BoltPath:  "roombook.bolt",
		LockTTL:   10 * time.Second,
		LogLevel:  "info",
		Rooms:     DefaultRooms(),
		Slots:     scheduler.DefaultSlotConfig(),
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ROOMBOOK_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ROOMBOOK_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if store := strings.ToLower(strings.TrimSpace(os.Getenv("ROOMBOOK_STORE"))); store != "" {
		switch store {
		case StoreSQLite, StorePostgres, StoreBolt:
			cfg.Store = store
		default:
			invalid = append(invalid, "ROOMBOOK_STORE")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ROOMBOOK_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.PostgresURL = strings.TrimSpace(os.Getenv("ROOMBOOK_POSTGRES_URL"))
	if cfg.Store == StorePostgres && cfg.PostgresURL == "" {
		missing = append(missing, "ROOMBOOK_POSTGRES_URL")
	}

	if path := strings.TrimSpace(os.Getenv("ROOMBOOK_BOLT_PATH")); path != "" {
		cfg.BoltPath = path
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("ROOMBOOK_REDIS_URL"))

	if ttlValue := strings.TrimSpace(os.Getenv("ROOMBOOK_LOCK_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ROOMBOOK_LOCK_TTL")
		} else {
			cfg.LockTTL = ttl
		}
	}

	cfg.APIKeyHash = strings.TrimSpace(os.Getenv("ROOMBOOK_API_KEY_HASH"))

	if level := strings.TrimSpace(os.Getenv("ROOMBOOK_LOG_LEVEL")); level != "" {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = strings.ToLower(level)
		default:
			invalid = append(invalid, "ROOMBOOK_LOG_LEVEL")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	if path := strings.TrimSpace(os.Getenv("ROOMBOOK_CATALOG_FILE")); path != "" {
		catalog, err := LoadCatalog(path)
		if err != nil {
			return Config{}, err
		}
		cfg.CatalogFile = path
		if len(catalog.Rooms) > 0 {
			cfg.Rooms = catalog.Rooms
		}
		cfg.Slots = catalog.SlotConfig(cfg.Slots)
	}

	if err := cfg.Slots.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid slot window: %w", err)
	}

	return cfg, nil
}
