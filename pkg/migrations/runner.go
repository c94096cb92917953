package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"go.uber.org/zap"

	"github.com/rgaa-audit/audit-manager/pkg/ha"
	"github.com/rgaa-audit/audit-manager/pkg/logging"
)

// ErrDirty is returned when a previous unit failed half-way. The operator
// must repair the schema and call Force before the runner accepts more work.
var ErrDirty = errors.New("migrations: database is dirty")

// Runner applies and reverts units of the migration log against one database.
type Runner struct {
	m       *migrate.Migrate
	dialect Dialect
	locker  ha.MigrationLocker
	logger  *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLocker serializes every runner operation through locker.
func WithLocker(locker ha.MigrationLocker) Option {
	return func(r *Runner) { r.locker = locker }
}

// WithLogger sets the logger used by the runner and golang-migrate.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New builds a Runner over db. The runner takes ownership of db: Close
// closes it. For MySQL the connection must allow multi statements.
func New(db *sql.DB, dialect Dialect, opts ...Option) (*Runner, error) {
	r := &Runner{dialect: dialect, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.locker == nil {
		r.locker = ha.NewMigrationLocker(nil, nil)
	}

	src, err := sourceFor(dialect)
	if err != nil {
		return nil, err
	}

	var drv database.Driver
	switch dialect {
	case DialectMySQL:
		drv, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case DialectSQLite:
		drv, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("init %s migration driver: %w", dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), drv)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = logging.NewMigrateLogger(r.logger, false)
	r.m = m
	return r, nil
}

// Dialect returns the dialect the runner was built for.
func (r *Runner) Dialect() Dialect { return r.dialect }

// Up applies every pending unit in ascending version order. Running it on an
// up-to-date database is a no-op.
func (r *Runner) Up(ctx context.Context) error {
	return r.run(ctx, "up", r.m.Up)
}

// Steps applies n pending units (n > 0) or reverts -n applied units (n < 0).
func (r *Runner) Steps(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	return r.run(ctx, fmt.Sprintf("steps %d", n), func() error { return r.m.Steps(n) })
}

// Down reverts the most recently applied unit.
func (r *Runner) Down(ctx context.Context) error {
	return r.Steps(ctx, -1)
}

// Goto migrates up or down until version is the current version.
func (r *Runner) Goto(ctx context.Context, version uint) error {
	return r.run(ctx, fmt.Sprintf("goto %d", version), func() error { return r.m.Migrate(version) })
}

// Reset reverts every applied unit, leaving only the bookkeeping table.
func (r *Runner) Reset(ctx context.Context) error {
	return r.run(ctx, "reset", r.m.Down)
}

// Force records version as current and clears the dirty flag without running
// any SQL. A version of -1 means "nothing applied".
func (r *Runner) Force(ctx context.Context, version int) error {
	return r.locker.WithLock(ctx, func() error {
		if err := r.m.Force(version); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		r.logger.Warn("migration version forced", zap.Int("version", version))
		return nil
	})
}

// Version returns the current version. applied is false on an empty database.
func (r *Runner) Version() (version uint, applied bool, dirty bool, err error) {
	version, dirty, err = r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, true, dirty, nil
}

// Status returns the whole log with the applied state of each unit.
func (r *Runner) Status() ([]UnitStatus, error) {
	units, err := Units(r.dialect)
	if err != nil {
		return nil, err
	}
	current, applied, _, err := r.Version()
	if err != nil {
		return nil, err
	}
	out := make([]UnitStatus, len(units))
	for i, u := range units {
		out[i] = UnitStatus{
			Unit:    u,
			Applied: applied && u.Version <= current,
			Current: applied && u.Version == current,
		}
	}
	return out, nil
}

// Close releases the source and the database handle.
func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	if srcErr != nil {
		return fmt.Errorf("close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

// run executes op under the migration lock. Cancelling ctx asks
// golang-migrate to stop after the unit in flight.
func (r *Runner) run(ctx context.Context, name string, op func() error) error {
	return r.locker.WithLock(ctx, func() error {
		stop := context.AfterFunc(ctx, func() {
			select {
			case r.m.GracefulStop <- true:
			default:
			}
		})
		defer stop()

		before, _, _, _ := r.Version()
		err := op()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			r.logger.Info("schema already at requested version", zap.String("op", name), zap.Uint("version", before))
			return nil
		case err != nil:
			var dirty migrate.ErrDirty
			if errors.As(err, &dirty) {
				return fmt.Errorf("%w at version %d: repair the schema then force the version", ErrDirty, dirty.Version)
			}
			return fmt.Errorf("migrate %s: %w", name, err)
		}

		after, _, _, _ := r.Version()
		r.logger.Info("migration finished", zap.String("op", name), zap.Uint("from", before), zap.Uint("to", after))
		return nil
	})
}
