// Package sqlview implements datascope.View over a SQL table.
//
// A view is the table plus a list of subset predicates. Overlap predicates
// are pushed down as WHERE conditions; Match predicates are evaluated in Go
// since regular-expression operators differ between engines. The ordered list
// of primary-key tuples is materialized when the view is built, so record
// positions stay stable for the life of the view and each Get or Put
// addresses its row by key.
package sqlview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"seisadapt/internal/datascope"
	"seisadapt/internal/schema"
)

// Rows is the subset of a driver's result set the view needs. *sql.Rows
// satisfies it directly.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}

// Conn runs queries for a view. Exec must return driver errors unchanged.
type Conn interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
}

// View is a datascope.View over one table.
type View struct {
	conn    Conn
	d       Dialect
	table   string
	st      *schema.Table
	key     []string
	keyCols []string
	fields  []string
	fieldIx map[string]int

	pushed  []datascope.Overlap
	preds   []datascope.Predicate
	filters []datascope.Filter

	mu   sync.Mutex
	keys [][]any
}

var _ datascope.View = (*View)(nil)

// Lookup builds a view over the whole table. Known CSS3.0 tables use their
// schema for field order and key; for any other table the columns are read
// from the database and every column is part of the key.
func Lookup(ctx context.Context, conn Conn, d Dialect, table string) (*View, error) {
	v := &View{conn: conn, d: d, table: table}
	if st, ok := schema.Lookup(table); ok {
		v.st = &st
		v.fields = st.FieldNames()
		v.key = slices.Clone(st.PrimaryKey)
	} else {
		cols, err := columns(ctx, conn, d, table)
		if err != nil {
			return nil, err
		}
		v.fields = cols
		v.key = slices.Clone(cols)
	}
	v.keyCols = schema.KeyColumns(v.key)
	v.fieldIx = make(map[string]int, len(v.fields))
	for i, f := range v.fields {
		v.fieldIx[f] = i
	}
	if err := v.reload(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func columns(ctx context.Context, conn Conn, d Dialect, table string) ([]string, error) {
	rows, err := conn.Query(ctx, "SELECT * FROM "+d.quote(table)+" WHERE 1=0")
	if err != nil {
		return nil, fmt.Errorf("sqlview: %s: columns: %w", table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlview: %s: columns: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("sqlview: %s has no columns", table)
	}
	return cols, nil
}

func (v *View) Name() string         { return v.table }
func (v *View) PrimaryKey() []string { return v.key }
func (v *View) Fields() []string     { return v.fields }

func (v *View) Count(context.Context) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.keys), nil
}

// builder accumulates a statement and its numbered arguments.
type builder struct {
	d    Dialect
	sb   strings.Builder
	args []any
}

func (b *builder) arg(x any) string {
	b.args = append(b.args, x)
	return b.d.Placeholder(len(b.args))
}

func (b *builder) cols(names []string) {
	for i, n := range names {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString(b.d.quote(n))
	}
}

func (v *View) coerce(field string, x any) any {
	if b, ok := x.([]byte); ok {
		x = string(b)
	}
	if v.st != nil {
		if f, ok := v.st.Field(field); ok {
			return f.Coerce(x)
		}
	}
	return x
}

// reload re-reads the key list from the table and predicates.
func (v *View) reload(ctx context.Context) error {
	cols := slices.Clone(v.keyCols)
	for _, p := range v.preds {
		for _, f := range p.Fields() {
			if !slices.Contains(cols, f) {
				cols = append(cols, f)
			}
		}
	}

	b := &builder{d: v.d}
	b.sb.WriteString("SELECT ")
	b.cols(cols)
	b.sb.WriteString(" FROM ")
	b.sb.WriteString(v.d.quote(v.table))
	for i, o := range v.pushed {
		if i == 0 {
			b.sb.WriteString(" WHERE ")
		} else {
			b.sb.WriteString(" AND ")
		}
		fmt.Fprintf(&b.sb, "%s > %s AND %s < %s",
			v.d.quote(o.EndField), b.arg(o.Start), v.d.quote(o.StartField), b.arg(o.End))
	}
	b.sb.WriteString(" ORDER BY ")
	b.cols(v.keyCols)

	rows, err := v.conn.Query(ctx, b.sb.String(), b.args...)
	if err != nil {
		return fmt.Errorf("sqlview: %s: select keys: %w", v.table, err)
	}
	defer rows.Close()

	var keys [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("sqlview: %s: scan keys: %w", v.table, err)
		}
		for i, c := range cols {
			vals[i] = v.coerce(c, vals[i])
		}
		get := func(field string) (any, error) {
			i := slices.Index(cols, field)
			if i < 0 {
				return nil, fmt.Errorf("sqlview: %s has no field %q", v.table, field)
			}
			return vals[i], nil
		}
		keep := true
		for _, f := range v.filters {
			ok, err := f(get)
			if err != nil {
				return fmt.Errorf("sqlview: %s: subset: %w", v.table, err)
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			keys = append(keys, vals[:len(v.keyCols)])
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlview: %s: select keys: %w", v.table, err)
	}

	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()
	return nil
}

// Subset returns a new view restricted by p. The receiver is unchanged.
func (v *View) Subset(ctx context.Context, p datascope.Predicate) (datascope.View, error) {
	for _, f := range p.Fields() {
		if _, ok := v.fieldIx[f]; !ok {
			return nil, fmt.Errorf("sqlview: subset %s: %s has no field %q", p, v.table, f)
		}
	}
	sub := &View{
		conn:    v.conn,
		d:       v.d,
		table:   v.table,
		st:      v.st,
		key:     v.key,
		keyCols: v.keyCols,
		fields:  v.fields,
		fieldIx: v.fieldIx,
		pushed:  slices.Clone(v.pushed),
		preds:   slices.Clone(v.preds),
		filters: slices.Clone(v.filters),
	}
	if o, ok := p.(datascope.Overlap); ok {
		sub.pushed = append(sub.pushed, o)
	} else {
		f, err := p.Filter()
		if err != nil {
			return nil, err
		}
		sub.preds = append(sub.preds, p)
		sub.filters = append(sub.filters, f)
	}
	if err := sub.reload(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

func (v *View) keyAt(record int) ([]any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if record < 0 || record >= len(v.keys) {
		return nil, fmt.Errorf("sqlview: %s: record %d out of range (count %d)", v.table, record, len(v.keys))
	}
	return slices.Clone(v.keys[record]), nil
}

// where appends the key condition for one record.
func (v *View) where(b *builder, key []any) {
	b.sb.WriteString(" WHERE ")
	for i, c := range v.keyCols {
		if i > 0 {
			b.sb.WriteString(" AND ")
		}
		if key[i] == nil {
			b.sb.WriteString(v.d.quote(c) + " IS NULL")
			continue
		}
		b.sb.WriteString(v.d.quote(c) + " = " + b.arg(key[i]))
	}
}

// errNoRow reports a record whose key no longer matches a row.
var errNoRow = errors.New("sqlview: row no longer exists")

func (v *View) Get(ctx context.Context, record int, field string) (any, error) {
	if _, ok := v.fieldIx[field]; !ok {
		return nil, fmt.Errorf("sqlview: %s has no field %q", v.table, field)
	}
	key, err := v.keyAt(record)
	if err != nil {
		return nil, err
	}
	b := &builder{d: v.d}
	b.sb.WriteString("SELECT " + v.d.quote(field) + " FROM " + v.d.quote(v.table))
	v.where(b, key)

	rows, err := v.conn.Query(ctx, b.sb.String(), b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s record %d", errNoRow, v.table, record)
	}
	var x any
	if err := rows.Scan(&x); err != nil {
		return nil, err
	}
	return v.coerce(field, x), nil
}

// Put updates one field with a keyed UPDATE. The driver's error is returned
// unchanged. Writing a key column moves the record's stored key along.
func (v *View) Put(ctx context.Context, record int, field string, x any) error {
	if _, ok := v.fieldIx[field]; !ok {
		return fmt.Errorf("sqlview: %s has no field %q", v.table, field)
	}
	key, err := v.keyAt(record)
	if err != nil {
		return err
	}
	b := &builder{d: v.d}
	b.sb.WriteString("UPDATE " + v.d.quote(v.table) + " SET " + v.d.quote(field) + " = " + b.arg(x))
	v.where(b, key)
	if err := v.conn.Exec(ctx, b.sb.String(), b.args...); err != nil {
		return err
	}
	if i := slices.Index(v.keyCols, field); i >= 0 {
		v.mu.Lock()
		if record < len(v.keys) {
			v.keys[record][i] = v.coerce(field, x)
		}
		v.mu.Unlock()
	}
	return nil
}

// EnsureTable creates t if it does not exist.
func EnsureTable(ctx context.Context, conn Conn, d Dialect, t schema.Table) error {
	stmt, err := d.Style.CreateTable(t.TableDef(d.MapType))
	if err != nil {
		return err
	}
	if err := conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("sqlview: create %s: %w", t.Name, err)
	}
	return nil
}

// Insert adds rows to table; each row holds values for fields in order.
func Insert(ctx context.Context, conn Conn, d Dialect, table string, fields []string, rows [][]any) error {
	for n, row := range rows {
		if len(row) != len(fields) {
			return fmt.Errorf("sqlview: insert %s: row %d has %d values for %d fields", table, n, len(row), len(fields))
		}
		b := &builder{d: d}
		b.sb.WriteString("INSERT INTO " + d.quote(table) + " (")
		b.cols(fields)
		b.sb.WriteString(") VALUES (")
		for i, x := range row {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.sb.WriteString(b.arg(x))
		}
		b.sb.WriteString(")")
		if err := conn.Exec(ctx, b.sb.String(), b.args...); err != nil {
			return fmt.Errorf("sqlview: insert %s: %w", table, err)
		}
	}
	return nil
}
