package config

import (
	"database/sql"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rgaa-audit/audit-manager/pkg/logging"
	"github.com/rgaa-audit/audit-manager/pkg/migrations"
)

// Collation used for every MySQL connection; matches the table definitions.
const mysqlCollation = "utf8mb4_unicode_ci"

// NormalizeMySQLDSN parses a go-sql-driver DSN and forces the options the
// application relies on: parseTime, the unicode collation, found-rows
// counting and, for the migration connection, multiStatements.
// The stores read the affected-row count of an UPDATE as existence, so it
// must count matched rows, not changed ones.
func NormalizeMySQLDSN(dsn string, multiStatements bool) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	cfg.Collation = mysqlCollation
	cfg.MultiStatements = multiStatements
	return cfg.FormatDSN(), nil
}

// sqliteAppDSN enables foreign key enforcement for application connections.
func sqliteAppDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// OpenDB opens the application GORM connection. Driver errors are translated
// into gorm sentinel errors (ErrDuplicatedKey, ErrForeignKeyViolated).
func OpenDB(cfg DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case migrations.DialectMySQL:
		dsn, err := NormalizeMySQLDSN(cfg.DSN, false)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(dsn)
	case migrations.DialectSQLite:
		dialector = sqlite.Open(sqliteAppDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.NewGormLogger(logger, gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}
	return db, nil
}

// OpenMigrationDB opens the raw connection handed to the migration runner.
// SQLite connections are pinned to a single connection with foreign key
// enforcement off, which the table rebuilds in the SQLite units require.
func OpenMigrationDB(cfg DatabaseConfig) (*sql.DB, error) {
	switch cfg.Dialect {
	case migrations.DialectMySQL:
		dsn, err := NormalizeMySQLDSN(cfg.DSN, true)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		return db, nil
	case migrations.DialectSQLite:
		db, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("disable sqlite foreign keys: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}
}
