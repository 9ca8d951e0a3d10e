package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds ledger host configuration.
type Config struct {
	DatabaseURL    string
	IsProduction   bool
	LogLevel       string
	RunMigrations  bool
	DBMaxConns     int32
	MinorUnitScale int32         // Decimal places a line amount may carry
	ActivityPage   int           // Rows fetched per round trip when iterating activity
	PostTimeout    time.Duration // Upper bound for a single posting transaction
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("LEDGER_MINOR_UNIT_SCALE", 2)
	v.SetDefault("ACTIVITY_PAGE_SIZE", 500)
	v.SetDefault("POST_TIMEOUT", "10s")

	v.AutomaticEnv()

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		DatabaseURL:   v.GetString("PGSQL_URL"),
		IsProduction:  v.GetBool("IS_PRODUCTION"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		RunMigrations: v.GetBool("RUN_MIGRATIONS"),
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.DBMaxConns = v.GetInt32("DB_MAX_CONNS")
	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = 10
		log.Printf("Warning: Invalid DB_MAX_CONNS. Defaulting to %d.\n", cfg.DBMaxConns)
	}

	cfg.MinorUnitScale = v.GetInt32("LEDGER_MINOR_UNIT_SCALE")
	if cfg.MinorUnitScale < 0 || cfg.MinorUnitScale > 18 {
		log.Printf("Warning: Invalid LEDGER_MINOR_UNIT_SCALE (%d). Defaulting to 2.\n", cfg.MinorUnitScale)
		cfg.MinorUnitScale = 2
	}

	cfg.ActivityPage = v.GetInt("ACTIVITY_PAGE_SIZE")
	if cfg.ActivityPage <= 0 {
		cfg.ActivityPage = 500
	}

	postTimeoutStr := v.GetString("POST_TIMEOUT")
	postTimeout, err := time.ParseDuration(postTimeoutStr)
	if err != nil || postTimeout <= 0 {
		postTimeout = 10 * time.Second
		if postTimeoutStr != "" {
			log.Printf("Warning: Invalid value for POST_TIMEOUT ('%s'). Defaulting to %s.\n", postTimeoutStr, postTimeout.String())
		}
	}
	cfg.PostTimeout = postTimeout

	return cfg
}
