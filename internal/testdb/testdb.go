// Package testdb generates real SQLite database files for tests through the
// pure Go driver, so the storage core is exercised against bit-exact output
// of the reference implementation.
package testdb

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Create builds a throwaway database file under t.TempDir, applying the
// statements in order. pageSize, when non-zero, is set before the first
// write so the whole file uses it.
func Create(t *testing.T, pageSize int, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if pageSize > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA page_size = %d", pageSize)); err != nil {
			t.Fatalf("set page size: %v", err)
		}
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture statement %q: %v", stmt, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close fixture database: %v", err)
	}
	return path
}

const usersSchema = `CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT, age INTEGER, email TEXT)`

// UsersLeaf is the four-row users fixture whose table B-tree is a single
// leaf page.
func UsersLeaf(t *testing.T) string {
	t.Helper()
	return Create(t, 4096,
		usersSchema,
		`INSERT INTO users VALUES
			(1, 'Alice', 29, 'alice@example.com'),
			(2, 'Bob', 45, 'bob@example.com'),
			(3, 'Charlie', 15, 'charlie@example.com'),
			(4, 'Dave', 105, 'dave@example.com')`,
	)
}

// UsersInterior is the 22-row users fixture with an index on email. The
// small page size forces both the table and the index B-trees to grow
// interior pages.
func UsersInterior(t *testing.T) string {
	t.Helper()
	stmts := []string{
		usersSchema,
		`CREATE INDEX idx_email ON users (email)`,
		`INSERT INTO users VALUES
			(1, 'Alice', 29, 'alice@example.com'),
			(2, 'Bob', 45, 'bob@example.com'),
			(3, 'Charlie', 15, 'charlie@example.com'),
			(4, 'Dave', 105, 'dave@example.com')`,
	}
	for i := 2; i <= 18; i++ {
		stmts = append(stmts, fmt.Sprintf(
			`INSERT INTO users VALUES (%d, 'Dave%d', 105, 'dave%d@example.com')`, i+3, i, i))
	}
	stmts = append(stmts,
		`INSERT INTO users VALUES (22, 'Celestino', 25, 'celestino@example.com')`)
	return Create(t, 512, stmts...)
}
