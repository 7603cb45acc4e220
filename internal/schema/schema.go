// Package schema builds a catalog of tables and indexes from the
// sqlite_schema table on page 1.
package schema

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hgye/litescan/internal/sqlite"
	"github.com/hgye/litescan/internal/sqlparse"
)

// schemaRootPage is the root of the sqlite_schema table B-tree.
const schemaRootPage = 1

// Table is one user table recovered from sqlite_schema.
type Table struct {
	Name     string
	RootPage int
	SQL      string
	Columns  []sqlparse.ColumnDef
}

// ColumnIndex returns the position of the named column, or -1. Lookup is
// case-sensitive, matching the names as written in the CREATE statement.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Index is one index recovered from sqlite_schema.
type Index struct {
	Name     string
	Table    string
	RootPage int
	SQL      string
	Columns  []string
	Unique   bool
}

// Catalog holds the schema objects in their sqlite_schema order.
type Catalog struct {
	Tables  []*Table
	Indexes []*Index
}

// Load scans the sqlite_schema table and parses each CREATE statement.
// Views and triggers are skipped, as are SQLite's internal sqlite_* tables.
// A duplicate object name keeps the first definition and logs a warning.
func Load(db *sqlite.DB, logger *slog.Logger) (*Catalog, error) {
	rows, err := db.ScanTable(schemaRootPage)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	cat := &Catalog{}
	seen := make(map[string]bool)
	for _, row := range rows {
		objType, name, tblName, rootPage, sql, err := schemaRow(row.Rec)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			logger.Warn("duplicate schema object, keeping first", "name", name)
			continue
		}
		seen[name] = true

		switch objType {
		case "table":
			if strings.HasPrefix(name, "sqlite_") {
				continue
			}
			ct, err := sqlparse.ParseCreateTable(sql)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", name, err)
			}
			cat.Tables = append(cat.Tables, &Table{
				Name:     name,
				RootPage: rootPage,
				SQL:      sql,
				Columns:  ct.Columns,
			})
		case "index":
			if strings.HasPrefix(name, "sqlite_") {
				continue
			}
			ci, err := sqlparse.ParseCreateIndex(sql)
			if err != nil {
				return nil, fmt.Errorf("index %s: %w", name, err)
			}
			cat.Indexes = append(cat.Indexes, &Index{
				Name:     name,
				Table:    tblName,
				RootPage: rootPage,
				SQL:      sql,
				Columns:  ci.Columns,
				Unique:   ci.Unique,
			})
		default:
			// views and triggers are outside the read path
		}
	}
	return cat, nil
}

// Table returns the named table.
func (c *Catalog) Table(name string) (*Table, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// IndexFor returns the first index in schema order whose table matches and
// whose first key column equals column.
func (c *Catalog) IndexFor(table, column string) (*Index, bool) {
	for _, idx := range c.Indexes {
		if idx.Table == table && len(idx.Columns) > 0 && idx.Columns[0] == column {
			return idx, true
		}
	}
	return nil, false
}

// TableNames returns the table names in schema order.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for _, t := range c.Tables {
		names = append(names, t.Name)
	}
	return names
}

// schemaRow pulls the five sqlite_schema columns out of one record:
// type, name, tbl_name, rootpage, sql.
func schemaRow(rec sqlite.Record) (objType, name, tblName string, rootPage int, sql string, err error) {
	if len(rec.Values) < 5 {
		return "", "", "", 0, "", fmt.Errorf("%w: sqlite_schema row has %d values", sqlite.ErrInvalidRecord, len(rec.Values))
	}
	objType = textOrEmpty(rec.Values[0])
	name = textOrEmpty(rec.Values[1])
	tblName = textOrEmpty(rec.Values[2])
	if rec.Values[3].Kind == sqlite.KindInt {
		rootPage = int(rec.Values[3].Int)
	}
	sql = textOrEmpty(rec.Values[4])
	return objType, name, tblName, rootPage, sql, nil
}

func textOrEmpty(v sqlite.Value) string {
	if v.Kind == sqlite.KindText {
		return v.Text
	}
	return ""
}
