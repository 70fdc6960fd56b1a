// Package config loads runtime settings from the environment.
package config

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
)

// Config holds the process-level settings.  Engine tunables live in
// EngineConfig.
type Config struct {
	Env          string // application environment (dev, test, prod)
	Port         string // HTTP port to listen on
	StoreDriver  string // memory, sqlite, mysql or postgres
	StoreDSN     string // full DSN; built from DB_* for mysql when empty
	DBUser       string
	DBPass       string
	DBHost       string
	DBPort       string
	DBName       string
	SQLitePath   string
	JWTSecret    string // secret used to verify (and in dev, sign) JWTs
	AccessTTLMin int    // lifetime of tokens minted by the dev token endpoint
	RabbitURL    string // empty disables the cross-instance relay
	Exchange     string // fanout exchange carrying collaboration events
	InstanceID   string // relay origin; random when empty
	LockStore    string // memory or redis
}

// LoadDotEnv reads a .env file into the environment when one exists.
// Variables already set win over the file.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Warn("config: cannot read env file", "path", p, "err", err)
		}
	}
}

// Load reads the process configuration.  APP_PORT and JWT_SECRET are
// required; a missing value stops the process.
func Load() Config {
	cfg := Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         must("APP_PORT"),
		StoreDriver:  getenv("STORE_DRIVER", StoreMemory),
		StoreDSN:     os.Getenv("STORE_DSN"),
		DBUser:       os.Getenv("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       getenv("DB_HOST", "127.0.0.1"),
		DBPort:       getenv("DB_PORT", "3306"),
		DBName:       os.Getenv("DB_NAME"),
		SQLitePath:   getenv("SQLITE_PATH", "seating.db"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		RabbitURL:    os.Getenv("RABBITMQ_URL"),
		Exchange:     getenv("RABBITMQ_EXCHANGE", "seating.collab"),
		InstanceID:   os.Getenv("PLAN_INSTANCE_ID"),
		LockStore:    getenv("LOCK_STORE", "memory"),
	}
	switch cfg.StoreDriver {
	case StoreMemory, StoreSQLite, StorePostgres:
	case StoreMySQL:
		// a DSN wins; otherwise the DB_* parts are required
		if cfg.StoreDSN == "" {
			cfg.DBUser = must("DB_USER")
			cfg.DBName = must("DB_NAME")
		}
	default:
		log.Fatal("config: unknown STORE_DRIVER", "value", cfg.StoreDriver)
	}
	if cfg.StoreDriver == StorePostgres && cfg.StoreDSN == "" {
		cfg.StoreDSN = must("STORE_DSN")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the process logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatal("missing required env var", "key", key)
	}
	return v
}

