package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ignoredTables are bookkeeping tables owned by the migration tooling.
var ignoredTables = map[string]bool{
	"schema_migrations": true,
	"migration_lock":    true,
}

// Inspect snapshots the schema of db. MySQL is read from information_schema
// for the current database, SQLite from the table-valued PRAGMA functions.
func Inspect(ctx context.Context, db *gorm.DB) (*Snapshot, error) {
	db = db.WithContext(ctx)
	var (
		snap *Snapshot
		err  error
	)
	switch name := db.Dialector.Name(); name {
	case "mysql":
		snap, err = inspectMySQL(db)
	case "sqlite":
		snap, err = inspectSQLite(db)
	default:
		return nil, fmt.Errorf("inspect schema: unsupported dialect %q", name)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(snap.Tables, func(i, j int) bool { return snap.Tables[i].Name < snap.Tables[j].Name })
	return snap, nil
}

func inspectSQLite(db *gorm.DB) (*Snapshot, error) {
	var names []string
	err := db.Raw(`SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`).Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	snap := &Snapshot{Dialect: "sqlite"}
	for _, name := range names {
		if ignoredTables[name] {
			continue
		}
		table := Table{Name: name}

		var cols []struct {
			Name      string
			Type      string
			NotNull   int `gorm:"column:notnull"`
			DfltValue *string
			PK        int `gorm:"column:pk"`
		}
		if err := db.Raw(`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, name).
			Scan(&cols).Error; err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", name, err)
		}
		for _, c := range cols {
			table.Columns = append(table.Columns, Column{
				Name:     c.Name,
				Type:     strings.ToUpper(c.Type),
				Nullable: c.NotNull == 0 && c.PK == 0,
				Default:  c.DfltValue,
			})
		}

		var idxs []struct {
			Name   string
			Unique int
			Origin string
		}
		if err := db.Raw(`SELECT name, "unique", origin FROM pragma_index_list(?)`, name).
			Scan(&idxs).Error; err != nil {
			return nil, fmt.Errorf("read indexes of %s: %w", name, err)
		}
		for _, idx := range idxs {
			if idx.Origin == "pk" || strings.HasPrefix(idx.Name, "sqlite_autoindex") {
				continue
			}
			var idxCols []string
			if err := db.Raw(`SELECT name FROM pragma_index_info(?) ORDER BY seqno`, idx.Name).
				Scan(&idxCols).Error; err != nil {
				return nil, fmt.Errorf("read columns of index %s: %w", idx.Name, err)
			}
			table.Indexes = append(table.Indexes, Index{Name: idx.Name, Columns: idxCols, Unique: idx.Unique == 1})
		}
		sort.Slice(table.Indexes, func(i, j int) bool { return table.Indexes[i].Name < table.Indexes[j].Name })

		var fks []struct {
			Table    string
			From     string
			To       string
			OnDelete string
		}
		if err := db.Raw(`SELECT "table", "from", "to", on_delete FROM pragma_foreign_key_list(?) ORDER BY id, seq`, name).
			Scan(&fks).Error; err != nil {
			return nil, fmt.Errorf("read foreign keys of %s: %w", name, err)
		}
		for _, fk := range fks {
			table.ForeignKeys = append(table.ForeignKeys, ForeignKey{
				Column:    fk.From,
				RefTable:  fk.Table,
				RefColumn: fk.To,
				OnDelete:  strings.ToUpper(fk.OnDelete),
			})
		}
		sortForeignKeys(table.ForeignKeys)

		snap.Tables = append(snap.Tables, table)
	}
	return snap, nil
}

// information_schema reports upper-case column labels on MySQL 8, so every
// selected column is aliased to the name GORM maps it to.
func inspectMySQL(db *gorm.DB) (*Snapshot, error) {
	var names []string
	err := db.Raw(`SELECT table_name AS name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`).Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	snap := &Snapshot{Dialect: "mysql"}
	for _, name := range names {
		if ignoredTables[name] {
			continue
		}
		table := Table{Name: name}

		var cols []struct {
			Name       string
			ColumnType string
			IsNullable string
			Dflt       *string
		}
		if err := db.Raw(`SELECT column_name AS name, column_type AS column_type, is_nullable AS is_nullable, column_default AS dflt
			FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position`, name).Scan(&cols).Error; err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", name, err)
		}
		for _, c := range cols {
			table.Columns = append(table.Columns, Column{
				Name:     c.Name,
				Type:     strings.ToUpper(c.ColumnType),
				Nullable: c.IsNullable == "YES",
				Default:  c.Dflt,
			})
		}

		var idxRows []struct {
			IndexName  string
			NonUnique  int
			ColumnName string
		}
		if err := db.Raw(`SELECT index_name AS index_name, non_unique AS non_unique, column_name AS column_name
			FROM information_schema.statistics
			WHERE table_schema = DATABASE() AND table_name = ? AND index_name <> 'PRIMARY'
			ORDER BY index_name, seq_in_index`, name).Scan(&idxRows).Error; err != nil {
			return nil, fmt.Errorf("read indexes of %s: %w", name, err)
		}
		for _, r := range idxRows {
			n := len(table.Indexes)
			if n == 0 || table.Indexes[n-1].Name != r.IndexName {
				table.Indexes = append(table.Indexes, Index{Name: r.IndexName, Unique: r.NonUnique == 0})
				n++
			}
			table.Indexes[n-1].Columns = append(table.Indexes[n-1].Columns, r.ColumnName)
		}

		var fks []struct {
			ColumnName           string
			ReferencedTableName  string
			ReferencedColumnName string
			DeleteRule           string
		}
		if err := db.Raw(`SELECT kcu.column_name AS column_name, kcu.referenced_table_name AS referenced_table_name,
				kcu.referenced_column_name AS referenced_column_name, rc.delete_rule AS delete_rule
			FROM information_schema.key_column_usage kcu
			JOIN information_schema.referential_constraints rc
				ON rc.constraint_schema = kcu.table_schema
				AND rc.constraint_name = kcu.constraint_name
				AND rc.table_name = kcu.table_name
			WHERE kcu.table_schema = DATABASE() AND kcu.table_name = ?
				AND kcu.referenced_table_name IS NOT NULL`, name).Scan(&fks).Error; err != nil {
			return nil, fmt.Errorf("read foreign keys of %s: %w", name, err)
		}
		for _, fk := range fks {
			table.ForeignKeys = append(table.ForeignKeys, ForeignKey{
				Column:    fk.ColumnName,
				RefTable:  fk.ReferencedTableName,
				RefColumn: fk.ReferencedColumnName,
				OnDelete:  strings.ToUpper(fk.DeleteRule),
			})
		}
		sortForeignKeys(table.ForeignKeys)

		snap.Tables = append(snap.Tables, table)
	}
	return snap, nil
}

func sortForeignKeys(fks []ForeignKey) {
	sort.Slice(fks, func(i, j int) bool { return fks[i].Column < fks[j].Column })
}
