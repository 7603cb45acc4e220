package sqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/hgye/litescan/internal/sqlite"
)

// Predicate is a single `column op literal` WHERE clause. The literal keeps
// its surface type (integer or text) so comparators can match it against the
// stored column's dynamic type.
type Predicate struct {
	Column string
	Op     string
	Value  sqlite.Value
}

// Select is a normalized SELECT statement: a projection (column names or a
// lone COUNT(*)) over one table with an optional predicate.
type Select struct {
	Table   string
	Columns []string
	Count   bool
	Where   *Predicate
}

var comparisonOps = map[string]string{
	"=":  "=",
	"!=": "!=",
	"<>": "!=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

// ParseSelect parses and normalizes a SELECT query. A trailing semicolon is
// tolerated.
func ParseSelect(query string) (*Select, error) {
	query = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	stmt, err := sqlparser.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sqlite.ErrSQLParse, err)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, fmt.Errorf("%w: only SELECT statements are supported, got %T", sqlite.ErrUnsupportedQuery, stmt)
	}

	out := &Select{}
	if out.Table, err = tableName(sel); err != nil {
		return nil, err
	}

	for _, expr := range sel.SelectExprs {
		aliased, ok := expr.(*sqlparser.AliasedExpr)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported select expression %T", sqlite.ErrUnsupportedQuery, expr)
		}
		switch inner := aliased.Expr.(type) {
		case *sqlparser.FuncExpr:
			if !strings.EqualFold(inner.Name.String(), "count") {
				return nil, fmt.Errorf("%w: unsupported function %s", sqlite.ErrUnsupportedQuery, inner.Name.String())
			}
			out.Count = true
		case *sqlparser.ColName:
			out.Columns = append(out.Columns, inner.Name.String())
		default:
			return nil, fmt.Errorf("%w: unsupported select expression %T", sqlite.ErrUnsupportedQuery, inner)
		}
	}
	if out.Count && len(out.Columns) > 0 {
		return nil, fmt.Errorf("%w: COUNT(*) cannot be combined with column projections", sqlite.ErrUnsupportedQuery)
	}
	if !out.Count && len(out.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns selected", sqlite.ErrUnsupportedQuery)
	}

	if sel.Where != nil {
		pred, err := predicate(sel.Where.Expr)
		if err != nil {
			return nil, err
		}
		out.Where = pred
	}
	return out, nil
}

func tableName(sel *sqlparser.Select) (string, error) {
	if len(sel.From) != 1 {
		return "", fmt.Errorf("%w: exactly one table must be selected from", sqlite.ErrUnsupportedQuery)
	}
	aliased, ok := sel.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return "", fmt.Errorf("%w: unsupported FROM clause %T", sqlite.ErrUnsupportedQuery, sel.From[0])
	}
	table, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return "", fmt.Errorf("%w: unsupported table expression %T", sqlite.ErrUnsupportedQuery, aliased.Expr)
	}
	return table.Name.String(), nil
}

func predicate(expr sqlparser.Expr) (*Predicate, error) {
	comp, ok := expr.(*sqlparser.ComparisonExpr)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported WHERE expression %T", sqlite.ErrUnsupportedQuery, expr)
	}
	col, ok := comp.Left.(*sqlparser.ColName)
	if !ok {
		return nil, fmt.Errorf("%w: WHERE must compare a column to a literal", sqlite.ErrUnsupportedQuery)
	}
	op, ok := comparisonOps[comp.Operator]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported operator %q", sqlite.ErrUnsupportedQuery, comp.Operator)
	}
	value, err := literal(comp.Right)
	if err != nil {
		return nil, err
	}
	return &Predicate{
		Column: col.Name.String(),
		Op:     op,
		Value:  value,
	}, nil
}

func literal(expr sqlparser.Expr) (sqlite.Value, error) {
	val, ok := expr.(*sqlparser.SQLVal)
	if !ok {
		return sqlite.Value{}, fmt.Errorf("%w: unsupported literal %T", sqlite.ErrUnsupportedQuery, expr)
	}
	switch val.Type {
	case sqlparser.StrVal:
		return sqlite.TextValue(string(val.Val)), nil
	case sqlparser.IntVal:
		i, err := strconv.ParseInt(string(val.Val), 10, 64)
		if err != nil {
			return sqlite.Value{}, fmt.Errorf("%w: integer literal %q: %v", sqlite.ErrSQLParse, val.Val, err)
		}
		return sqlite.IntValue(i), nil
	case sqlparser.FloatVal:
		f, err := strconv.ParseFloat(string(val.Val), 64)
		if err != nil {
			return sqlite.Value{}, fmt.Errorf("%w: float literal %q: %v", sqlite.ErrSQLParse, val.Val, err)
		}
		return sqlite.FloatValue(f), nil
	default:
		return sqlite.Value{}, fmt.Errorf("%w: unsupported literal type", sqlite.ErrUnsupportedQuery)
	}
}
