package engine

import (
	"fmt"

	"github.com/hgye/litescan/internal/schema"
	"github.com/hgye/litescan/internal/sqlite"
	"github.com/hgye/litescan/internal/sqlparse"
)

// plan is a resolved SELECT: the table, an optional index to probe instead
// of scanning, the projection as column positions, and the predicate.
type plan struct {
	table      *schema.Table
	index      *schema.Index // non-nil selects the probe + bounded-scan path
	where      *sqlparse.Predicate
	projection []int
	count      bool
}

// plan resolves names against the catalog and picks the access path: an
// equality predicate over a column that leads some index on the same table
// uses the index probe; everything else is a full scan with an on-the-fly
// filter.
func (e *Engine) plan(stmt *sqlparse.Select) (*plan, error) {
	table, ok := e.cat.Table(stmt.Table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", sqlite.ErrUnknownTable, stmt.Table)
	}

	p := &plan{table: table, where: stmt.Where, count: stmt.Count}

	if stmt.Where != nil {
		if stmt.Where.Op != "=" {
			return nil, fmt.Errorf("%w: only equality predicates are planned, got %q",
				sqlite.ErrUnsupportedQuery, stmt.Where.Op)
		}
		if table.ColumnIndex(stmt.Where.Column) < 0 {
			return nil, fmt.Errorf("%w: %s.%s", sqlite.ErrUnknownColumn, table.Name, stmt.Where.Column)
		}
		if idx, ok := e.cat.IndexFor(table.Name, stmt.Where.Column); ok {
			p.index = idx
		}
	}

	if !stmt.Count {
		p.projection = make([]int, len(stmt.Columns))
		for i, name := range stmt.Columns {
			pos := table.ColumnIndex(name)
			if pos < 0 {
				return nil, fmt.Errorf("%w: %s.%s", sqlite.ErrUnknownColumn, table.Name, name)
			}
			p.projection[i] = pos
		}
	}
	return p, nil
}

// run executes a plan. Both paths produce rows in ascending row id order,
// so the output order is the traversal order.
func (e *Engine) run(p *plan) (string, error) {
	var rows []sqlite.TableRow
	var err error
	if p.index != nil {
		rows, err = e.runIndexed(p)
	} else {
		rows, err = e.runScan(p)
	}
	if err != nil {
		return "", err
	}
	if p.count {
		return formatCount(len(rows)), nil
	}
	return formatRows(rows, p.projection)
}

// runIndexed probes the index for the predicate value and fetches exactly
// the matching rows with a bounded table scan. The index guarantees the
// equality, so no re-filtering happens.
func (e *Engine) runIndexed(p *plan) ([]sqlite.TableRow, error) {
	rowIDs, err := e.db.ProbeIndex(p.index.RootPage, p.where.Value)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("index probe", "index", p.index.Name, "matches", len(rowIDs))
	return e.db.ScanTableRows(p.table.RootPage, rowIDs)
}

// runScan walks the whole table and applies the predicate, if any, on the
// fly.
func (e *Engine) runScan(p *plan) ([]sqlite.TableRow, error) {
	rows, err := e.db.ScanTable(p.table.RootPage)
	if err != nil {
		return nil, err
	}
	if p.where == nil {
		return rows, nil
	}
	col := p.table.ColumnIndex(p.where.Column)
	filtered := rows[:0:0]
	for _, row := range rows {
		if col < len(row.Rec.Values) && sqlite.Equal(row.Rec.Values[col], p.where.Value) {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}
