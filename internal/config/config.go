package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken        string `envconfig:"BOT_TOKEN" required:"true"`
	SpreadsheetID   string `envconfig:"SPREADSHEET_ID" required:"true"`
	CredentialsFile string `envconfig:"GOOGLE_CREDENTIALS_FILE" default:"./credentials.json"` // service account key

	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite|postgres
	DBPath      string `envconfig:"DB_PATH" default:"./data/user_data.db"`
	DBDSN       string `envconfig:"DB_DSN"`

	SheetsTimeout time.Duration `envconfig:"SHEETS_TIMEOUT" default:"15s"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	MaxSessions   int           `envconfig:"MAX_SESSIONS" default:"10000"`

	Env      string `envconfig:"ENV" default:"production"` // production|development
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz
}

// Load reads an optional .env file, then environment variables into Config.
// Variables already present in the environment win over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case "sqlite":
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SheetsTimeout <= 0 {
		return errors.New("SHEETS_TIMEOUT must be positive")
	}
	if c.MaxSessions < 0 {
		return errors.New("MAX_SESSIONS must not be negative")
	}
	return nil
}
