// Package logging builds the zap loggers shared by the CLI, the HTTP API and
// the migration runner, plus thin adapters for libraries that expect their
// own logger interfaces.
package logging

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a zap logger for the given mode. "prod"/"production" yields
// JSON output at info level; anything else is the development console encoder
// at debug level.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// MigrateLogger adapts zap to golang-migrate's Logger interface.
type MigrateLogger struct {
	sugar   *zap.SugaredLogger
	verbose bool
}

// NewMigrateLogger wraps logger. A nil logger discards output.
func NewMigrateLogger(logger *zap.Logger, verbose bool) *MigrateLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrateLogger{sugar: logger.Named("migrate").Sugar(), verbose: verbose}
}

func (l *MigrateLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l *MigrateLogger) Verbose() bool { return l.verbose }

// gormWriter routes GORM's printf-style output through zap.
type gormWriter struct {
	sugar *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, v ...interface{}) {
	w.sugar.Debugf(format, v...)
}

// NewGormLogger returns a GORM logger backed by zap. Slow queries are logged
// at warn level and record-not-found errors are ignored.
func NewGormLogger(logger *zap.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gormlogger.New(gormWriter{sugar: logger.Named("gorm").Sugar()}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
