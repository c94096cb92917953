//go:build integration

package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"go.uber.org/zap/zaptest"

	"github.com/rgaa-audit/audit-manager/pkg/config"
	"github.com/rgaa-audit/audit-manager/pkg/ha"
	"github.com/rgaa-audit/audit-manager/pkg/migrations"
	"github.com/rgaa-audit/audit-manager/pkg/schema"
)

func TestMySQLUnitsAreReversible(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	ctr, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("audit"),
		tcmysql.WithUsername("audit"),
		tcmysql.WithPassword("audit"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	cfg := config.DatabaseConfig{Dialect: migrations.DialectMySQL, DSN: dsn}
	logger := zaptest.NewLogger(t)

	db, err := config.OpenDB(cfg, logger)
	require.NoError(t, err)
	sqlDB, err := config.OpenMigrationDB(cfg)
	require.NoError(t, err)

	r, err := migrations.New(sqlDB, cfg.Dialect,
		migrations.WithLogger(logger),
		migrations.WithLocker(ha.NewMigrationLocker(db, ha.DefaultLockConfig())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	units, err := migrations.Units(migrations.DialectMySQL)
	require.NoError(t, err)
	for _, u := range units {
		before, err := schema.Inspect(ctx, db)
		require.NoError(t, err)
		require.NoError(t, r.Steps(ctx, 1), "up %d_%s", u.Version, u.Name)
		require.NoError(t, r.Steps(ctx, -1), "down %d_%s", u.Version, u.Name)
		after, err := schema.Inspect(ctx, db)
		require.NoError(t, err)
		assert.True(t, schema.Equal(before, after), "%d_%s:\n%s", u.Version, u.Name, schema.Compare(before, after))
		require.NoError(t, r.Steps(ctx, 1))
	}

	snap, err := schema.Inspect(ctx, db)
	require.NoError(t, err)
	audit, ok := snap.Table("audit")
	require.True(t, ok)
	scope, ok := audit.Column("audit_scope")
	require.True(t, ok)
	assert.Equal(t, "VARCHAR(20)", scope.Type)
}
