package engine

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/hgye/litescan/internal/sqlite"
	"github.com/hgye/litescan/internal/sqlparse"
	"github.com/hgye/litescan/internal/testdb"
)

func openEngine(t *testing.T, path string) *Engine {
	t.Helper()
	eng, err := Open(path, slog.Default())
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestSelectColumnsLeaf(t *testing.T) {
	eng := openEngine(t, testdb.UsersLeaf(t))
	out, err := eng.Execute("SELECT id, username, age FROM users;")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := "1|Alice|29\n2|Bob|45\n3|Charlie|15\n4|Dave|105"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestCountLeaf(t *testing.T) {
	eng := openEngine(t, testdb.UsersLeaf(t))
	out, err := eng.Execute("SELECT COUNT(*) FROM users;")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "4" {
		t.Errorf("output = %q, want 4", out)
	}
}

func TestWhereEqualityLeaf(t *testing.T) {
	eng := openEngine(t, testdb.UsersLeaf(t))
	out, err := eng.Execute("SELECT username FROM users WHERE age = 105;")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "Dave" {
		t.Errorf("output = %q, want Dave", out)
	}
}

func TestCountWithWhereInterior(t *testing.T) {
	eng := openEngine(t, testdb.UsersInterior(t))
	out, err := eng.Execute("SELECT COUNT(*) FROM users WHERE age = 105;")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "18" {
		t.Errorf("output = %q, want 18", out)
	}
}

func TestWhereEqualityInterior(t *testing.T) {
	eng := openEngine(t, testdb.UsersInterior(t))
	out, err := eng.Execute("SELECT username FROM users WHERE age = 25;")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "Celestino" {
		t.Errorf("output = %q, want Celestino", out)
	}
}

func TestIndexDrivenLookup(t *testing.T) {
	eng := openEngine(t, testdb.UsersInterior(t))
	out, err := eng.Execute("SELECT id, username FROM users WHERE email = 'dave18@example.com';")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "21|Dave18" {
		t.Errorf("output = %q, want 21|Dave18", out)
	}

	// the planner actually chose the index
	stmt, err := sqlparse.ParseSelect("SELECT id FROM users WHERE email = 'dave18@example.com'")
	if err != nil {
		t.Fatalf("ParseSelect: %v", err)
	}
	p, err := eng.plan(stmt)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if p.index == nil || p.index.Name != "idx_email" {
		t.Errorf("plan picked index %+v, want idx_email", p.index)
	}
}

func TestNoIndexForFilterColumn(t *testing.T) {
	eng := openEngine(t, testdb.UsersInterior(t))
	stmt, err := sqlparse.ParseSelect("SELECT id FROM users WHERE age = 105")
	if err != nil {
		t.Fatalf("ParseSelect: %v", err)
	}
	p, err := eng.plan(stmt)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if p.index != nil {
		t.Errorf("plan picked index %+v for an unindexed column", p.index)
	}
}

// TestIndexedMatchesScan runs the same predicate through both access paths
// and requires identical output.
func TestIndexedMatchesScan(t *testing.T) {
	eng := openEngine(t, testdb.UsersInterior(t))
	queries := []string{
		"SELECT id, username FROM users WHERE email = 'alice@example.com'",
		"SELECT id, username FROM users WHERE email = 'dave7@example.com'",
		"SELECT id, username FROM users WHERE email = 'celestino@example.com'",
		"SELECT id, username FROM users WHERE email = 'nobody@example.com'",
	}
	for _, q := range queries {
		stmt, err := sqlparse.ParseSelect(q)
		if err != nil {
			t.Fatalf("ParseSelect(%q): %v", q, err)
		}
		p, err := eng.plan(stmt)
		if err != nil {
			t.Fatalf("plan(%q): %v", q, err)
		}
		if p.index == nil {
			t.Fatalf("plan(%q) did not pick the index", q)
		}
		indexed, err := eng.run(p)
		if err != nil {
			t.Fatalf("indexed run(%q): %v", q, err)
		}
		p.index = nil
		scanned, err := eng.run(p)
		if err != nil {
			t.Fatalf("scan run(%q): %v", q, err)
		}
		if indexed != scanned {
			t.Errorf("paths disagree for %q: indexed %q, scan %q", q, indexed, scanned)
		}
	}
}

func TestEmptyResult(t *testing.T) {
	eng := openEngine(t, testdb.UsersLeaf(t))
	out, err := eng.Execute("SELECT username FROM users WHERE age = 999")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}
}

func TestCountEmptyTable(t *testing.T) {
	path := testdb.Create(t, 4096, `CREATE TABLE empty (id INTEGER PRIMARY KEY, name TEXT)`)
	eng := openEngine(t, path)
	out, err := eng.Execute("SELECT COUNT(*) FROM empty")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "0" {
		t.Errorf("output = %q, want 0", out)
	}
	out, err = eng.Execute("SELECT name FROM empty")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}
}

func TestUnknownTable(t *testing.T) {
	eng := openEngine(t, testdb.UsersLeaf(t))
	_, err := eng.Execute("SELECT name FROM non_existent_table")
	if !errors.Is(err, sqlite.ErrUnknownTable) {
		t.Fatalf("error = %v, want ErrUnknownTable", err)
	}
	if !strings.Contains(err.Error(), "non_existent_table") {
		t.Errorf("diagnostic %q does not name the table", err.Error())
	}
}

func TestUnknownColumn(t *testing.T) {
	eng := openEngine(t, testdb.UsersLeaf(t))
	for _, q := range []string{
		"SELECT nope FROM users",
		"SELECT username FROM users WHERE nope = 1",
	} {
		if _, err := eng.Execute(q); !errors.Is(err, sqlite.ErrUnknownColumn) {
			t.Errorf("Execute(%q) error = %v, want ErrUnknownColumn", q, err)
		}
	}
}

func TestNonEqualityNotPlanned(t *testing.T) {
	eng := openEngine(t, testdb.UsersLeaf(t))
	if _, err := eng.Execute("SELECT username FROM users WHERE age > 20"); !errors.Is(err, sqlite.ErrUnsupportedQuery) {
		t.Errorf("error = %v, want ErrUnsupportedQuery", err)
	}
}

func TestMismatchedLiteralType(t *testing.T) {
	eng := openEngine(t, testdb.UsersLeaf(t))
	// a text literal can never equal an integer column
	out, err := eng.Execute("SELECT username FROM users WHERE age = '105'")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty for mismatched literal type", out)
	}
}

func TestDeterminism(t *testing.T) {
	eng := openEngine(t, testdb.UsersInterior(t))
	const q = "SELECT id, username, age, email FROM users"
	first, err := eng.Execute(q)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := eng.Execute(q)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if again != first {
			t.Fatalf("run %d differs from first", i+2)
		}
	}
}

func TestRowIDAliasThroughEngine(t *testing.T) {
	path := testdb.Create(t, 4096,
		`CREATE TABLE seq (id INTEGER PRIMARY KEY AUTOINCREMENT, label TEXT)`,
		`INSERT INTO seq (label) VALUES ('a'), ('b'), ('c')`,
	)
	eng := openEngine(t, path)
	out, err := eng.Execute("SELECT id, label FROM seq")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := "1|a\n2|b\n3|c"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestDBInfoAndTables(t *testing.T) {
	eng := openEngine(t, testdb.UsersLeaf(t))
	info := eng.DBInfo()
	if !strings.Contains(info, "database page size: 4096") {
		t.Errorf("DBInfo() = %q", info)
	}
	if !strings.Contains(info, "number of tables: 1") {
		t.Errorf("DBInfo() = %q", info)
	}
	if got := eng.TableList(); got != "users" {
		t.Errorf("TableList() = %q, want users", got)
	}
}
