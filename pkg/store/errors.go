// Package store implements the GORM repositories of the audit manager, one
// per aggregate. Every method takes a context and returns errors wrapping the
// package sentinels so callers can branch with errors.Is.
package store

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would violate a unique index.
	ErrConflict = errors.New("conflict")
	// ErrReferenced is returned when a row cannot be deleted because other
	// rows still point at it through a non-cascading foreign key.
	ErrReferenced = errors.New("still referenced")
	// ErrInvalidArgument is returned for requests that can never succeed.
	ErrInvalidArgument = errors.New("invalid argument")
)

// MySQL error numbers.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// wrap maps driver and GORM errors onto the package sentinels. GORM already
// translates most constraint errors when TranslateError is enabled; the
// driver checks cover connections opened without it.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", op, ErrReferenced)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w: %v", op, ErrReferenced, err)
		}
	}
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return fmt.Errorf("%s: %w: %v", op, ErrReferenced, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Store groups the repositories over one connection.
type Store struct {
	Users        *UserStore
	Projects     *ProjectStore
	Campaigns    *CampaignStore
	Audits       *AuditStore
	ManualChecks *ManualCheckStore
	VisualErrors *VisualErrorCriteriaStore
	ActionPlans  *ActionPlanStore
}

// New builds every repository over db.
func New(db *gorm.DB) *Store {
	return &Store{
		Users:        NewUserStore(db),
		Projects:     NewProjectStore(db),
		Campaigns:    NewCampaignStore(db),
		Audits:       NewAuditStore(db),
		ManualChecks: NewManualCheckStore(db),
		VisualErrors: NewVisualErrorCriteriaStore(db),
		ActionPlans:  NewActionPlanStore(db),
	}
}

// updateAll writes every column of model except its id, creation time and
// associations. Hooks run, so model validation applies.
func updateAll(ctx context.Context, db *gorm.DB, op string, model any) error {
	res := db.WithContext(ctx).Model(model).Select("*").Omit("id", "created_at", clause.Associations).Updates(model)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap(op, gorm.ErrRecordNotFound)
	}
	return nil
}

// deleteByID deletes one row of model's table.
func deleteByID(ctx context.Context, db *gorm.DB, op string, model any, id uint) error {
	res := db.WithContext(ctx).Delete(model, id)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap(op, gorm.ErrRecordNotFound)
	}
	return nil
}
