package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultTimezone       = "America/Los_Angeles"
	defaultDayBoundary    = "00:00"
	defaultHistoryDefault = 10
	defaultHistoryMax     = 25
)

type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver" yaml:"driver"`
	Host     string `json:"host" yaml:"host"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"dbname" yaml:"dbname"`
	Port     int    `json:"port" yaml:"port"`
	SSLMode  string `json:"sslmode" yaml:"sslmode"`
	Path     string `json:"path" yaml:"path"`
}

type TelegramConfig struct {
	Token string `json:"token" yaml:"token"`
}

type LoggingConfig struct {
	Level     string `json:"level" yaml:"level"`
	File      string `json:"file" yaml:"file"`
	Format    string `json:"format" yaml:"format"`
	GormLevel string `json:"gorm_level" yaml:"gorm_level"`
}

type JournalConfig struct {
	// Timezone is the reference timezone for every day-boundary decision.
	Timezone string `json:"timezone" yaml:"timezone"`
	// DayBoundary is the HH:MM reference time at which a streak day starts.
	DayBoundary    string `json:"day_boundary" yaml:"day_boundary"`
	HistoryDefault int    `json:"history_default" yaml:"history_default"`
	HistoryMax     int    `json:"history_max" yaml:"history_max"`
}

var AppConfig Config

// LoadConfig reads filename into AppConfig. Files ending in .yaml or .yml are
// decoded as YAML, anything else as JSON. Variables from a .env file and the
// process environment override file values.
func LoadConfig(filename string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Error("failed to load .env file", "error", err)
	}

	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	var cfg Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(file).Decode(&cfg)
	default:
		err = json.NewDecoder(file).Decode(&cfg)
	}
	if err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		return err
	}

	AppConfig = cfg
	return nil
}

// Path returns the config file location, JOURNAL_CONFIG or config.json.
func Path() string {
	if p := strings.TrimSpace(os.Getenv("JOURNAL_CONFIG")); p != "" {
		return p
	}
	return "config.json"
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"TELEGRAM_TOKEN", &cfg.Telegram.Token},
		{"DATABASE_DRIVER", &cfg.Database.Driver},
		{"DATABASE_PATH", &cfg.Database.Path},
		{"LOG_LEVEL", &cfg.Logging.Level},
		{"JOURNAL_TIMEZONE", &cfg.Journal.Timezone},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.target = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.Path == "" {
		cfg.Database.Path = "journals.db"
	}
	if cfg.Journal.Timezone == "" {
		cfg.Journal.Timezone = defaultTimezone
	}
	if cfg.Journal.DayBoundary == "" {
		cfg.Journal.DayBoundary = defaultDayBoundary
	}
	if cfg.Journal.HistoryDefault <= 0 {
		cfg.Journal.HistoryDefault = defaultHistoryDefault
	}
	if cfg.Journal.HistoryMax <= 0 {
		cfg.Journal.HistoryMax = defaultHistoryMax
	}
	if cfg.Journal.HistoryDefault > cfg.Journal.HistoryMax {
		cfg.Journal.HistoryDefault = cfg.Journal.HistoryMax
	}
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if _, err := time.LoadLocation(c.Journal.Timezone); err != nil {
		return fmt.Errorf("journal timezone %q: %w", c.Journal.Timezone, err)
	}
	if _, err := time.Parse("15:04", c.Journal.DayBoundary); err != nil {
		return fmt.Errorf("journal day_boundary %q: expected HH:MM", c.Journal.DayBoundary)
	}
	return nil
}
