// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// CREATE TABLE statements from it in the spelling of each supported engine.
//
// The model stays generic; a Style carries the dialect differences:
//
//   - identifier quoting ("col", `col`, [col], or none);
//   - CREATE TABLE IF NOT EXISTS where the engine supports it;
//   - an OBJECT_ID guard for T-SQL, which has no IF NOT EXISTS form.
//
// Column defaults are emitted as raw SQL.
package ddl

import (
	"fmt"
	"strings"
)

// ColumnDef describes a single column. Name is unquoted; quoting happens at
// render time.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name, possibly dotted ("schema.table"), and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Style is the dialect-specific spelling of a CREATE TABLE statement.
type Style struct {
	Name        string
	Quote       func(ident string) string
	IfNotExists bool
	ObjectGuard bool
}

var (
	// Generic emits identifiers verbatim with no existence guard.
	Generic = Style{Name: "generic"}

	SQLite   = Style{Name: "sqlite", Quote: QuoteDouble, IfNotExists: true}
	Postgres = Style{Name: "postgres", Quote: QuoteDouble, IfNotExists: true}
	MySQL    = Style{Name: "mysql", Quote: QuoteBacktick, IfNotExists: true}
	MSSQL    = Style{Name: "mssql", Quote: QuoteBracket, ObjectGuard: true}
)

// QuoteDouble quotes an identifier with double quotes (ANSI, SQLite, Postgres).
func QuoteDouble(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteBacktick quotes an identifier for MySQL.
func QuoteBacktick(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// QuoteBracket quotes an identifier for SQL Server.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteBracket(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func (s Style) ident(id string) string {
	if s.Quote == nil {
		return id
	}
	return s.Quote(id)
}

// FQN quotes a possibly schema-qualified name segment by segment.
func (s Style) FQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, s.ident(p))
	}
	return strings.Join(out, ".")
}

func (s Style) prefix() string {
	if s.Name == "" || s.Name == Generic.Name {
		return "ddl"
	}
	return s.Name + " ddl"
}

// CreateTable renders t in style s.
//
// A column is rendered as
//
//	<name> <type> [NOT NULL] [DEFAULT <expr>]
//
// and primary-key columns are collected into a trailing PRIMARY KEY clause.
func (s Style) CreateTable(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", s.prefix())
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", s.prefix())
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", s.prefix(), fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", s.prefix(), name)
		}

		var sb strings.Builder
		sb.WriteString(s.ident(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, s.ident(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	table := s.FQN(fqn)
	if s.ObjectGuard {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			table, table, strings.Join(cols, ",\n    "),
		), nil
	}
	create := "CREATE TABLE "
	if s.IfNotExists {
		create += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", create, table, strings.Join(cols, ",\n  ")), nil
}

// BuildCreateTableSQL renders t in the Generic style.
func BuildCreateTableSQL(t TableDef) (string, error) {
	return Generic.CreateTable(t)
}
