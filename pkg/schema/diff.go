package schema

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ChangeKind classifies a Change.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
	Changed ChangeKind = "changed"
)

// Change is one difference between two snapshots.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	Object string     `json:"object"`
	Table  string     `json:"table"`
	Name   string     `json:"name,omitempty"`
	Detail string     `json:"detail,omitempty"`
}

func (c Change) String() string {
	target := c.Table
	if c.Name != "" {
		target += "." + c.Name
	}
	s := fmt.Sprintf("%s %s %s", c.Kind, c.Object, target)
	if c.Detail != "" {
		s += ": " + c.Detail
	}
	return s
}

// Diff lists the changes turning one snapshot into another.
type Diff []Change

// Empty reports whether the two snapshots had the same structure.
func (d Diff) Empty() bool { return len(d) == 0 }

func (d Diff) String() string {
	lines := make([]string, len(d))
	for i, c := range d {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

// Compare returns the changes from a to b. Column order is ignored.
func Compare(a, b *Snapshot) Diff {
	var diff Diff

	aTables, bTables := tableMap(a), tableMap(b)
	aNames, bNames := keys(aTables), keys(bTables)

	for _, name := range sorted(bNames.Difference(aNames)) {
		diff = append(diff, Change{Kind: Added, Object: "table", Table: name})
	}
	for _, name := range sorted(aNames.Difference(bNames)) {
		diff = append(diff, Change{Kind: Removed, Object: "table", Table: name})
	}
	for _, name := range sorted(aNames.Intersect(bNames)) {
		diff = append(diff, compareTables(aTables[name], bTables[name])...)
	}
	return diff
}

// Equal reports whether a and b have the same structure.
func Equal(a, b *Snapshot) bool {
	return Compare(a, b).Empty()
}

func compareTables(a, b *Table) Diff {
	var diff Diff

	aCols, bCols := make(map[string]string), make(map[string]string)
	for _, c := range a.Columns {
		aCols[c.Name] = columnSignature(c)
	}
	for _, c := range b.Columns {
		bCols[c.Name] = columnSignature(c)
	}
	diff = append(diff, compareSignatures(a.Name, "column", aCols, bCols)...)

	aIdx, bIdx := make(map[string]string), make(map[string]string)
	for _, i := range a.Indexes {
		aIdx[i.Name] = indexSignature(i)
	}
	for _, i := range b.Indexes {
		bIdx[i.Name] = indexSignature(i)
	}
	diff = append(diff, compareSignatures(a.Name, "index", aIdx, bIdx)...)

	// Foreign keys are compared by content: SQLite does not report names.
	aFK, bFK := mapset.NewSet[string](), mapset.NewSet[string]()
	for _, fk := range a.ForeignKeys {
		aFK.Add(foreignKeySignature(fk))
	}
	for _, fk := range b.ForeignKeys {
		bFK.Add(foreignKeySignature(fk))
	}
	for _, sig := range sorted(bFK.Difference(aFK)) {
		diff = append(diff, Change{Kind: Added, Object: "foreign key", Table: a.Name, Detail: sig})
	}
	for _, sig := range sorted(aFK.Difference(bFK)) {
		diff = append(diff, Change{Kind: Removed, Object: "foreign key", Table: a.Name, Detail: sig})
	}
	return diff
}

func compareSignatures(table, object string, a, b map[string]string) Diff {
	var diff Diff
	aNames, bNames := keys(a), keys(b)
	for _, name := range sorted(bNames.Difference(aNames)) {
		diff = append(diff, Change{Kind: Added, Object: object, Table: table, Name: name, Detail: b[name]})
	}
	for _, name := range sorted(aNames.Difference(bNames)) {
		diff = append(diff, Change{Kind: Removed, Object: object, Table: table, Name: name, Detail: a[name]})
	}
	for _, name := range sorted(aNames.Intersect(bNames)) {
		if a[name] != b[name] {
			diff = append(diff, Change{Kind: Changed, Object: object, Table: table, Name: name,
				Detail: fmt.Sprintf("%s -> %s", a[name], b[name])})
		}
	}
	return diff
}

func columnSignature(c Column) string {
	s := c.Type
	if c.Nullable {
		s += " NULL"
	} else {
		s += " NOT NULL"
	}
	if c.Default != nil {
		s += " DEFAULT " + *c.Default
	}
	return s
}

func indexSignature(i Index) string {
	s := "(" + strings.Join(i.Columns, ", ") + ")"
	if i.Unique {
		s = "UNIQUE " + s
	}
	return s
}

func foreignKeySignature(fk ForeignKey) string {
	onDelete := fk.OnDelete
	if onDelete == "" {
		onDelete = "NO ACTION"
	}
	return fmt.Sprintf("%s -> %s(%s) ON DELETE %s", fk.Column, fk.RefTable, fk.RefColumn, onDelete)
}

func tableMap(s *Snapshot) map[string]*Table {
	m := make(map[string]*Table)
	if s == nil {
		return m
	}
	for i := range s.Tables {
		m[s.Tables[i].Name] = &s.Tables[i]
	}
	return m
}

func keys[V any](m map[string]V) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	for k := range m {
		set.Add(k)
	}
	return set
}

func sorted(set mapset.Set[string]) []string {
	out := set.ToSlice()
	sort.Strings(out)
	return out
}
