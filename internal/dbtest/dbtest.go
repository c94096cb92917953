// Package dbtest provisions migrated SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/rgaa-audit/audit-manager/pkg/config"
	"github.com/rgaa-audit/audit-manager/pkg/migrations"
)

// Config returns the configuration of a fresh SQLite file in a test
// temporary directory.
func Config(t testing.TB) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Dialect: migrations.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "audit.db"),
	}
}

// Runner returns a migration runner over cfg, closed at test cleanup.
func Runner(t testing.TB, cfg config.DatabaseConfig) *migrations.Runner {
	t.Helper()
	sqlDB, err := config.OpenMigrationDB(cfg)
	require.NoError(t, err)
	r, err := migrations.New(sqlDB, cfg.Dialect, migrations.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// Open returns an application connection to cfg, closed at test cleanup.
func Open(t testing.TB, cfg config.DatabaseConfig) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// New returns an application connection to a database migrated to the
// latest version.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := Config(t)
	require.NoError(t, Runner(t, cfg).Up(context.Background()))
	return Open(t, cfg)
}
