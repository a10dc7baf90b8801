package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smith3v/tg-journal-bot/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowThreshold = 200 * time.Millisecond
	defaultGormLogLevel  = gormlogger.Warn
)

// slogGormLogger sends gorm output through pkg/logger so that queries,
// slow queries and driver errors land in the same sink as the bot logs.
type slogGormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(levelValue string) (gormlogger.Interface, error) {
	level := defaultGormLogLevel
	var err error
	if strings.TrimSpace(levelValue) != "" {
		level, err = parseGormLogLevel(levelValue)
	}
	return &slogGormLogger{level: level, slowThreshold: defaultSlowThreshold}, err
}

func (l *slogGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, gormlogger.Info, fmt.Sprintf(msg, data...))
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, gormlogger.Warn, fmt.Sprintf(msg, data...))
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, gormlogger.Error, fmt.Sprintf(msg, data...))
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		level gormlogger.LogLevel
		msg   string
	)
	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return
	case err != nil:
		level, msg = gormlogger.Error, "gorm query error"
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		level, msg = gormlogger.Warn, "gorm slow query"
	default:
		level, msg = gormlogger.Info, "gorm query"
	}
	if !l.enabled(level) {
		return
	}

	sql, rows := fc()
	args := []any{"elapsed", elapsed, "rows", rows, "sql", sql}
	if err != nil {
		args = append(args, "error", err)
	}
	logger.Logger.Log(ctx, slogLevelOf(level), msg, args...)
}

func (l *slogGormLogger) emit(ctx context.Context, level gormlogger.LogLevel, msg string) {
	if l.enabled(level) {
		logger.Logger.Log(ctx, slogLevelOf(level), msg)
	}
}

func (l *slogGormLogger) enabled(level gormlogger.LogLevel) bool {
	if l.level == gormlogger.Silent || l.level < level {
		return false
	}
	switch level {
	case gormlogger.Error:
		return logger.Enabled(logger.ERROR)
	case gormlogger.Warn:
		return logger.Enabled(logger.WARN)
	default:
		return logger.Enabled(logger.INFO)
	}
}

func slogLevelOf(level gormlogger.LogLevel) slog.Level {
	switch level {
	case gormlogger.Error:
		return slog.LevelError
	case gormlogger.Warn:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func parseGormLogLevel(value string) (gormlogger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "silent":
		return gormlogger.Silent, nil
	case "error":
		return gormlogger.Error, nil
	case "warn":
		return gormlogger.Warn, nil
	case "info":
		return gormlogger.Info, nil
	default:
		return defaultGormLogLevel, fmt.Errorf("invalid gorm log level %q", value)
	}
}
