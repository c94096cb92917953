package ha

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MigrationLocker is the interface for acquiring a lock around schema
// migrations so that concurrent runners never interleave units.
type MigrationLocker interface {
	// WithLock executes fn while holding the migration lock.
	// It blocks until the lock is acquired, then releases it after fn returns.
	WithLock(ctx context.Context, fn func() error) error
}

// NewMigrationLocker creates a MigrationLocker appropriate for the database
// dialect. MySQL uses named locks (GET_LOCK); other databases use a
// table-based fallback whose table is created immediately.
func NewMigrationLocker(db *gorm.DB, cfg *LockConfig) MigrationLocker {
	if cfg == nil {
		cfg = DefaultLockConfig()
	}
	if db == nil || !cfg.Enabled {
		return &noopMigrationLock{}
	}
	if db.Dialector.Name() == "mysql" {
		return &mysqlNamedLock{db: db, cfg: cfg}
	}
	lock := &tableMigrationLock{db: db, cfg: cfg}
	// Create the lock table up front so concurrent callers never hit
	// "no such table" on their first WithLock call.
	_ = db.AutoMigrate(&migrationLockRecord{})
	return lock
}

// noopMigrationLock is used when no database is configured or locking is off.
type noopMigrationLock struct{}

func (n *noopMigrationLock) WithLock(_ context.Context, fn func() error) error {
	return fn()
}

// mysqlNamedLock serializes migrations with MySQL user-level locks. Named
// locks belong to a session, so acquire and release share one pinned
// connection.
type mysqlNamedLock struct {
	db  *gorm.DB
	cfg *LockConfig
}

func (l *mysqlNamedLock) WithLock(ctx context.Context, fn func() error) error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return fmt.Errorf("get sql handle for migration lock: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("reserve connection for migration lock: %w", err)
	}
	defer conn.Close()

	var acquired sql.NullInt64
	timeout := int(l.cfg.Timeout / time.Second)
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", l.cfg.Name, timeout).Scan(&acquired); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		return fmt.Errorf("failed to acquire migration lock %q within %s", l.cfg.Name, l.cfg.Timeout)
	}

	// Always release the lock, even when ctx is already cancelled.
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT RELEASE_LOCK(?)", l.cfg.Name)
	}()

	return fn()
}

// migrationLockRecord is the table-based lock row for non-MySQL databases.
type migrationLockRecord struct {
	ID       string    `gorm:"primaryKey;column:id"`
	LockedAt time.Time `gorm:"column:locked_at"`
	LockedBy string    `gorm:"column:locked_by"`
}

func (migrationLockRecord) TableName() string { return "migration_lock" }

// tableMigrationLock uses a database table for locking (SQLite). It relies
// on INSERT-or-fail semantics on the primary key so that only one holder
// exists at a time, with stale lock cleanup for crash recovery.
type tableMigrationLock struct {
	db  *gorm.DB
	cfg *LockConfig
}

func (l *tableMigrationLock) WithLock(ctx context.Context, fn func() error) error {
	lockRow := migrationLockRecord{
		ID:       l.cfg.Name,
		LockedBy: l.cfg.Identity,
	}

	acquired := false
	for i := 0; i < l.cfg.MaxRetries; i++ {
		// Delete stale locks to recover from crashed holders.
		l.db.WithContext(ctx).
			Where("id = ? AND locked_at < ?", l.cfg.Name, time.Now().Add(-l.cfg.StaleAfter)).
			Delete(&migrationLockRecord{})

		lockRow.LockedAt = time.Now()

		// Fails if the row already exists.
		result := l.db.WithContext(ctx).Create(&lockRow)
		if result.Error == nil {
			acquired = true
			break
		}

		if i == l.cfg.MaxRetries-1 {
			return fmt.Errorf("failed to acquire migration lock after %d retries: %w", l.cfg.MaxRetries, result.Error)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.RetryInterval):
		}
	}

	if !acquired {
		return fmt.Errorf("failed to acquire migration lock")
	}

	defer func() {
		l.db.Where("id = ?", l.cfg.Name).Delete(&migrationLockRecord{})
	}()

	return fn()
}
