// Package schema describes the CSS3.0 tables the record adapter and the
// waveform reader work with: field order, kinds, null values and primary keys.
//
// Primary keys follow the Datascope spelling: a time range is written as a
// single key entry "time::endtime" naming both columns.
package schema

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"seisadapt/internal/ddl"
)

// Kind is the storage class of a field.
type Kind int

const (
	String Kind = iota
	Int
	Float
	// Time is epoch seconds stored as a float.
	Time
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Time:
		return "time"
	default:
		return "string"
	}
}

// Field is one column of a table. Width is the column width in a flat
// file; SQL dialects use it only for string columns.
type Field struct {
	Name      string
	Kind      Kind
	Width     int
	Precision int // digits after the point for Float and Time
	Null      any
}

// Table is a CSS3.0 relation.
type Table struct {
	Name       string
	Fields     []Field
	PrimaryKey []string
}

// FieldNames returns the field names in field-number order.
func (t Table) FieldNames() []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Name
	}
	return out
}

// Field returns the named field.
func (t Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// KeyColumns expands the primary key into plain column names, splitting
// "a::b" range entries.
func (t Table) KeyColumns() []string {
	return KeyColumns(t.PrimaryKey)
}

// KeyColumns expands a primary-key spec into column names.
func KeyColumns(key []string) []string {
	var out []string
	for _, k := range key {
		out = append(out, strings.Split(k, "::")...)
	}
	return out
}

// TableDef converts t to a DDL model using mapType for column types.
func (t Table) TableDef(mapType func(Field) string) ddl.TableDef {
	pk := map[string]bool{}
	for _, c := range t.KeyColumns() {
		pk[c] = true
	}
	def := ddl.TableDef{FQN: t.Name}
	for _, f := range t.Fields {
		def.Columns = append(def.Columns, ddl.ColumnDef{
			Name:       f.Name,
			SQLType:    mapType(f),
			Nullable:   !pk[f.Name],
			PrimaryKey: pk[f.Name],
		})
	}
	return def
}

// Coerce converts a driver value to the field's kind. Strings become
// numbers for numeric fields, byte slices become strings, and integral
// floats become ints for Int fields. Values that cannot be converted are
// returned unchanged.
func (f Field) Coerce(v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch f.Kind {
	case Float, Time:
		switch x := v.(type) {
		case int64:
			return float64(x)
		case int32:
			return float64(x)
		case int:
			return float64(x)
		case float32:
			return float64(x)
		case string:
			if p, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return p
			}
		}
	case Int:
		switch x := v.(type) {
		case int:
			return int64(x)
		case int32:
			return int64(x)
		case float64:
			if x == math.Trunc(x) {
				return int64(x)
			}
		case string:
			if p, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
				return p
			}
		}
	case String:
		if x, ok := v.(string); ok {
			return strings.TrimRight(x, " ")
		}
	}
	return v
}

var tables = map[string]Table{}

func register(t Table) {
	if _, dup := tables[t.Name]; dup {
		panic(fmt.Sprintf("schema: duplicate table %q", t.Name))
	}
	tables[t.Name] = t
}

// Lookup returns the named CSS3.0 table.
func Lookup(name string) (Table, bool) {
	t, ok := tables[name]
	return t, ok
}

// Names returns the known table names in sorted order.
func Names() []string {
	out := make([]string, 0, len(tables))
	for n := range tables {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
