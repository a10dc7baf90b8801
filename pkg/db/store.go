// pkg/db/store.go
package db

import (
	"fmt"
	"strconv"
	"time"

	"github.com/smith3v/tg-journal-bot/pkg/config"
	"github.com/smith3v/tg-journal-bot/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store is the single storage handle of the bot. It is opened once at
// startup, shared by every component and closed on shutdown.
type Store struct {
	db *gorm.DB
}

// New wraps an already opened gorm connection.
func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig, gormLevel string) (*Store, error) {
	gormLogger, gormErr := newGormLogger(gormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", gormLevel, "error", gormErr)
	}

	gdb, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, err
	}

	store := New(gdb)
	if err := store.Migrate(); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		_ = store.Close()
		return nil, err
	}
	logger.Info("database ready", "driver", gdb.Dialector.Name())
	return store, nil
}

func dialector(cfg config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == config.DriverSQLite {
		return sqlite.Open(cfg.Path)
	}
	dsn := "host=" + cfg.Host +
		" user=" + cfg.User +
		" password=" + cfg.Password +
		" dbname=" + cfg.DBName +
		" port=" + strconv.Itoa(cfg.Port) +
		" sslmode=" + cfg.SSLMode
	return postgres.Open(dsn)
}

func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Gorm exposes the underlying connection, mainly for tests.
func (s *Store) Gorm() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
