// Package migrations holds the schema migration log of the audit manager:
// an ordered, append-only list of reversible units embedded as SQL files,
// one directory per dialect, applied through golang-migrate.
//
// Every unit exists in both dialects under the same version id
// (YYYYMMDDhhmmss). MySQL units carry the production DDL (InnoDB,
// utf8mb4_unicode_ci); SQLite units express the same schema for local
// development and tests, rebuilding tables where SQLite's ALTER TABLE falls
// short.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed mysql/*.sql sqlite/*.sql
var unitFS embed.FS

// Dialect names a supported SQL dialect.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// ParseDialect validates a dialect name. "sqlite3" is accepted as an alias.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unsupported database dialect %q (expected mysql or sqlite)", s)
}

// Unit identifies one migration of the log.
type Unit struct {
	Version uint   `json:"version"`
	Name    string `json:"name"`
}

// UnitStatus is a Unit annotated with its state in a given database.
type UnitStatus struct {
	Unit
	Applied bool `json:"applied"`
	Current bool `json:"current"`
}

func sourceFor(d Dialect) (source.Driver, error) {
	switch d {
	case DialectMySQL, DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", d)
	}
	src, err := iofs.New(unitFS, string(d))
	if err != nil {
		return nil, fmt.Errorf("open embedded %s migrations: %w", d, err)
	}
	return src, nil
}

// Units returns the migration log for the dialect in ascending version order.
func Units(d Dialect) ([]Unit, error) {
	src, err := sourceFor(d)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var units []Unit
	version, err := src.First()
	for err == nil {
		r, name, readErr := src.ReadUp(version)
		if readErr != nil {
			return nil, fmt.Errorf("read unit %d: %w", version, readErr)
		}
		_ = r.Close()
		units = append(units, Unit{Version: version, Name: name})
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("walk migrations: %w", err)
	}
	return units, nil
}
