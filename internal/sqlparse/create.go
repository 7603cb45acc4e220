// Package sqlparse recovers the narrow SQL surface the executor consumes:
// CREATE statements stored in sqlite_schema and the SELECT dialect accepted
// on the command line.
package sqlparse

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/hgye/litescan/internal/sqlite"
)

// ColumnDef is one column recovered from a CREATE TABLE statement.
type ColumnDef struct {
	Name          string
	Type          string
	PrimaryKey    bool
	Autoincrement bool
	NotNull       bool
	Unique        bool
	HasDefault    bool
	Default       string
}

// CreateTable is a parsed CREATE TABLE statement.
type CreateTable struct {
	Name    string
	Columns []ColumnDef
}

// CreateIndex is a parsed CREATE INDEX statement.
type CreateIndex struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

var ddlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "QuotedIdent", Pattern: `"[^"]*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// ddlIdent is an identifier, unquoted or double-quoted; quoted identifiers
// may contain spaces.
type ddlIdent string

// Capture implements participle's capture interface, stripping quotes.
func (i *ddlIdent) Capture(values []string) error {
	s := values[0]
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	*i = ddlIdent(s)
	return nil
}

type createTableAST struct {
	Name    ddlIdent     `parser:"\"CREATE\" \"TABLE\" @(Ident | QuotedIdent)"`
	Columns []*columnAST `parser:"\"(\" @@ ( \",\" @@ )* \")\""`
}

type columnAST struct {
	Name    ddlIdent        `parser:"@(Ident | QuotedIdent)"`
	Type    string          `parser:"@(\"INTEGER\" | \"TEXT\" | \"TIMESTAMP\")?"`
	Options []*columnOption `parser:"@@*"`
}

type columnOption struct {
	Primary bool        `parser:"  @\"PRIMARY\" \"KEY\""`
	Autoinc bool        `parser:"| @\"AUTOINCREMENT\""`
	NotNull bool        `parser:"| @\"NOT\" \"NULL\""`
	Unique  bool        `parser:"| @\"UNIQUE\""`
	Default *defaultAST `parser:"| \"DEFAULT\" @@"`
}

type defaultAST struct {
	Str    *string `parser:"  @String"`
	Number *string `parser:"| @Number"`
	Ident  *string `parser:"| @Ident"`
}

type createIndexAST struct {
	Unique  bool       `parser:"\"CREATE\" @\"UNIQUE\"? \"INDEX\""`
	Name    ddlIdent   `parser:"@(Ident | QuotedIdent)"`
	Table   ddlIdent   `parser:"\"ON\" @(Ident | QuotedIdent)"`
	Columns []ddlIdent `parser:"\"(\" @(Ident | QuotedIdent) ( \",\" @(Ident | QuotedIdent) )* \")\""`
}

var (
	createTableParser = participle.MustBuild[createTableAST](
		participle.Lexer(ddlLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Ident"),
		participle.UseLookahead(2),
	)
	createIndexParser = participle.MustBuild[createIndexAST](
		participle.Lexer(ddlLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Ident"),
		participle.UseLookahead(2),
	)
)

// ParseCreateTable parses the CREATE TABLE subset stored in sqlite_schema:
// optionally typed columns with PRIMARY KEY [AUTOINCREMENT], NOT NULL,
// UNIQUE and DEFAULT constraints.
func ParseCreateTable(sql string) (*CreateTable, error) {
	ast, err := createTableParser.ParseString("", strings.TrimSpace(sql))
	if err != nil {
		return nil, fmt.Errorf("%w: create table: %v", sqlite.ErrSQLParse, err)
	}
	ct := &CreateTable{Name: string(ast.Name)}
	for _, col := range ast.Columns {
		def := ColumnDef{
			Name: string(col.Name),
			Type: strings.ToUpper(col.Type),
		}
		for _, opt := range col.Options {
			switch {
			case opt.Primary:
				def.PrimaryKey = true
			case opt.Autoinc:
				def.Autoincrement = true
			case opt.NotNull:
				def.NotNull = true
			case opt.Unique:
				def.Unique = true
			case opt.Default != nil:
				def.HasDefault = true
				def.Default = opt.Default.value()
			}
		}
		ct.Columns = append(ct.Columns, def)
	}
	return ct, nil
}

// ParseCreateIndex parses a CREATE [UNIQUE] INDEX statement.
func ParseCreateIndex(sql string) (*CreateIndex, error) {
	ast, err := createIndexParser.ParseString("", strings.TrimSpace(sql))
	if err != nil {
		return nil, fmt.Errorf("%w: create index: %v", sqlite.ErrSQLParse, err)
	}
	ci := &CreateIndex{
		Name:   string(ast.Name),
		Table:  string(ast.Table),
		Unique: ast.Unique,
	}
	for _, col := range ast.Columns {
		ci.Columns = append(ci.Columns, string(col))
	}
	return ci, nil
}

func (d *defaultAST) value() string {
	switch {
	case d.Str != nil:
		return strings.Trim(*d.Str, "'")
	case d.Number != nil:
		return *d.Number
	case d.Ident != nil:
		return *d.Ident
	}
	return ""
}
