// Package engine plans and executes the restricted SELECT dialect against a
// database session, and serves the informational commands.
package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hgye/litescan/internal/schema"
	"github.com/hgye/litescan/internal/sqlite"
	"github.com/hgye/litescan/internal/sqlparse"
)

// Engine executes queries against one open database session.
type Engine struct {
	db     *sqlite.DB
	cat    *schema.Catalog
	logger *slog.Logger
}

// Open opens the database file and loads its catalog.
func Open(path string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sqlite.Open(path, sqlite.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	cat, err := schema.Load(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Engine{db: db, cat: cat, logger: logger}, nil
}

// Close releases the underlying session.
func (e *Engine) Close() error {
	return e.db.Close()
}

// DBInfo renders the .dbinfo output: the page size and the number of user
// tables.
func (e *Engine) DBInfo() string {
	return fmt.Sprintf("database page size: %d\nnumber of tables: %d",
		e.db.Header().PageSize, len(e.cat.Tables))
}

// TableList renders the .tables output: table names in schema order joined
// by single spaces.
func (e *Engine) TableList() string {
	return strings.Join(e.cat.TableNames(), " ")
}

// Execute parses, plans and runs a SELECT query, returning the formatted
// result: one line per row, columns joined by "|", or a single count line.
func (e *Engine) Execute(query string) (string, error) {
	stmt, err := sqlparse.ParseSelect(query)
	if err != nil {
		return "", err
	}
	p, err := e.plan(stmt)
	if err != nil {
		return "", err
	}
	e.logger.Debug("query planned",
		"table", p.table.Name,
		"indexed", p.index != nil,
		"count", p.count)
	return e.run(p)
}
