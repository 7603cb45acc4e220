package sqlparse

import (
	"errors"
	"testing"

	"github.com/hgye/litescan/internal/sqlite"
)

func TestParseCreateTable(t *testing.T) {
	ct, err := ParseCreateTable(
		`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, username TEXT NOT NULL, age INTEGER, email TEXT UNIQUE)`)
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	if ct.Name != "users" {
		t.Errorf("Name = %q, want users", ct.Name)
	}
	if len(ct.Columns) != 4 {
		t.Fatalf("got %d columns, want 4", len(ct.Columns))
	}
	id := ct.Columns[0]
	if id.Name != "id" || id.Type != "INTEGER" || !id.PrimaryKey || !id.Autoincrement {
		t.Errorf("id column = %+v, want INTEGER PRIMARY KEY AUTOINCREMENT", id)
	}
	if c := ct.Columns[1]; c.Name != "username" || !c.NotNull {
		t.Errorf("username column = %+v, want NOT NULL", c)
	}
	if c := ct.Columns[3]; !c.Unique {
		t.Errorf("email column = %+v, want UNIQUE", c)
	}
}

func TestParseCreateTableLowercaseKeywords(t *testing.T) {
	ct, err := ParseCreateTable(`create table apples (name text, color text)`)
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	if ct.Name != "apples" || len(ct.Columns) != 2 {
		t.Fatalf("parsed %+v", ct)
	}
	if ct.Columns[0].Type != "TEXT" {
		t.Errorf("Type = %q, want TEXT", ct.Columns[0].Type)
	}
}

func TestParseCreateTableQuotedIdentifiers(t *testing.T) {
	ct, err := ParseCreateTable(
		`CREATE TABLE "size chart" ("size range" TEXT NOT NULL, id INTEGER PRIMARY KEY)`)
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	if ct.Name != "size chart" {
		t.Errorf("Name = %q, want %q", ct.Name, "size chart")
	}
	if ct.Columns[0].Name != "size range" {
		t.Errorf("column name = %q, want %q", ct.Columns[0].Name, "size range")
	}
}

func TestParseCreateTableDefaults(t *testing.T) {
	ct, err := ParseCreateTable(
		`CREATE TABLE events (kind TEXT DEFAULT 'generic', retries INTEGER DEFAULT 0, created TIMESTAMP)`)
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	if c := ct.Columns[0]; !c.HasDefault || c.Default != "generic" {
		t.Errorf("kind column = %+v, want default %q", c, "generic")
	}
	if c := ct.Columns[1]; !c.HasDefault || c.Default != "0" {
		t.Errorf("retries column = %+v, want default 0", c)
	}
	if c := ct.Columns[2]; c.Type != "TIMESTAMP" {
		t.Errorf("created column type = %q, want TIMESTAMP", c.Type)
	}
}

func TestParseCreateTableUntypedColumns(t *testing.T) {
	ct, err := ParseCreateTable(`CREATE TABLE pairs (name, value)`)
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	if len(ct.Columns) != 2 || ct.Columns[0].Type != "" {
		t.Fatalf("parsed %+v", ct)
	}
}

func TestParseCreateTableInvalid(t *testing.T) {
	for _, sql := range []string{"", "DROP TABLE users", "CREATE TABLE users"} {
		if _, err := ParseCreateTable(sql); !errors.Is(err, sqlite.ErrSQLParse) {
			t.Errorf("ParseCreateTable(%q) error = %v, want ErrSQLParse", sql, err)
		}
	}
}

func TestParseCreateIndex(t *testing.T) {
	ci, err := ParseCreateIndex(`CREATE INDEX idx_email ON users (email)`)
	if err != nil {
		t.Fatalf("ParseCreateIndex() error = %v", err)
	}
	if ci.Name != "idx_email" || ci.Table != "users" || ci.Unique {
		t.Errorf("parsed %+v", ci)
	}
	if len(ci.Columns) != 1 || ci.Columns[0] != "email" {
		t.Errorf("Columns = %v, want [email]", ci.Columns)
	}
}

func TestParseCreateIndexUnique(t *testing.T) {
	ci, err := ParseCreateIndex(`create unique index idx_name on companies (name)`)
	if err != nil {
		t.Fatalf("ParseCreateIndex() error = %v", err)
	}
	if !ci.Unique || ci.Table != "companies" {
		t.Errorf("parsed %+v", ci)
	}
}

func TestParseCreateIndexInvalid(t *testing.T) {
	if _, err := ParseCreateIndex(`CREATE INDEX broken`); !errors.Is(err, sqlite.ErrSQLParse) {
		t.Errorf("error = %v, want ErrSQLParse", err)
	}
}
