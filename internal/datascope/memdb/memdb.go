// Package memdb is an in-memory datascope engine. Tables live in process
// memory and are shared by every handle opened on the same database, so a
// write through one handle is visible through the others.
//
// Databases are published under a name and opened with
// datascope.Config{Engine: "memdb", DSN: name}.
package memdb

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"seisadapt/internal/datascope"
	"seisadapt/internal/schema"
)

// ErrReadOnly is returned by Put on a handle opened read-only.
var ErrReadOnly = errors.New("memdb: database opened read-only")

// Table is the initial content of one table. Rows map field names to values;
// a field absent from a row cannot be extracted.
type Table struct {
	Name       string
	PrimaryKey []string
	Fields     []string
	Rows       []map[string]any
}

// FromSchema builds an empty table with the CSS3.0 layout of name.
func FromSchema(name string) (Table, error) {
	st, ok := schema.Lookup(name)
	if !ok {
		return Table{}, fmt.Errorf("memdb: unknown CSS3.0 table %q", name)
	}
	return Table{Name: st.Name, PrimaryKey: slices.Clone(st.PrimaryKey), Fields: st.FieldNames()}, nil
}

type table struct {
	Table
	fieldSet map[string]bool
}

// DB is an in-memory database.
type DB struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// New builds a database from tables. Rows are copied.
func New(tables ...Table) *DB {
	db := &DB{tables: map[string]*table{}}
	for _, t := range tables {
		tt := &table{Table: Table{
			Name:       t.Name,
			PrimaryKey: slices.Clone(t.PrimaryKey),
			Fields:     slices.Clone(t.Fields),
		}, fieldSet: map[string]bool{}}
		for _, f := range t.Fields {
			tt.fieldSet[f] = true
		}
		for _, r := range t.Rows {
			row := make(map[string]any, len(r))
			for k, v := range r {
				row[k] = v
			}
			tt.Rows = append(tt.Rows, row)
		}
		db.tables[t.Name] = tt
	}
	return db
}

// Handle returns a datascope.Database over db. Closing the handle does not
// discard the data.
func (db *DB) Handle(readOnly bool) datascope.Database {
	return &handle{db: db, readOnly: readOnly}
}

var (
	pubMu     sync.Mutex
	published = map[string]*DB{}
)

// Publish makes db available to datascope.Open under name.
func Publish(name string, db *DB) {
	pubMu.Lock()
	defer pubMu.Unlock()
	published[name] = db
}

// Unpublish removes name.
func Unpublish(name string) {
	pubMu.Lock()
	defer pubMu.Unlock()
	delete(published, name)
}

func init() {
	datascope.Register("memdb", func(_ context.Context, cfg datascope.Config) (datascope.Database, error) {
		pubMu.Lock()
		db, ok := published[cfg.DSN]
		pubMu.Unlock()
		if !ok {
			return nil, fmt.Errorf("memdb: no database published as %q", cfg.DSN)
		}
		return db.Handle(cfg.ReadOnly), nil
	})
}

type handle struct {
	db       *DB
	readOnly bool
	closed   bool
}

func (h *handle) Lookup(_ context.Context, name string) (datascope.View, error) {
	if h.closed {
		return nil, errors.New("memdb: lookup on closed handle")
	}
	h.db.mu.RLock()
	defer h.db.mu.RUnlock()
	t, ok := h.db.tables[name]
	if !ok {
		return nil, fmt.Errorf("memdb: no table %q", name)
	}
	rows := make([]int, len(t.Rows))
	for i := range rows {
		rows[i] = i
	}
	return &view{h: h, t: t, rows: rows}, nil
}

func (h *handle) Close() error {
	h.closed = true
	return nil
}

// view is a table or subset; rows index into the table's row slice.
type view struct {
	h    *handle
	t    *table
	rows []int
}

func (v *view) Name() string         { return v.t.Name }
func (v *view) PrimaryKey() []string { return v.t.PrimaryKey }
func (v *view) Fields() []string     { return v.t.Fields }

func (v *view) Count(context.Context) (int, error) { return len(v.rows), nil }

func (v *view) row(record int) (map[string]any, error) {
	if record < 0 || record >= len(v.rows) {
		return nil, fmt.Errorf("memdb: %s: record %d out of range", v.t.Name, record)
	}
	return v.t.Rows[v.rows[record]], nil
}

func (v *view) Get(_ context.Context, record int, field string) (any, error) {
	v.h.db.mu.RLock()
	defer v.h.db.mu.RUnlock()
	return v.get(record, field)
}

func (v *view) get(record int, field string) (any, error) {
	if !v.t.fieldSet[field] {
		return nil, fmt.Errorf("memdb: %s has no field %q", v.t.Name, field)
	}
	row, err := v.row(record)
	if err != nil {
		return nil, err
	}
	val, ok := row[field]
	if !ok {
		return nil, fmt.Errorf("memdb: %s record %d: field %q has no value", v.t.Name, record, field)
	}
	return val, nil
}

func (v *view) Put(_ context.Context, record int, field string, val any) error {
	if v.h.readOnly {
		return ErrReadOnly
	}
	if !v.t.fieldSet[field] {
		return fmt.Errorf("memdb: %s has no field %q", v.t.Name, field)
	}
	v.h.db.mu.Lock()
	defer v.h.db.mu.Unlock()
	row, err := v.row(record)
	if err != nil {
		return err
	}
	row[field] = val
	return nil
}

func (v *view) Subset(_ context.Context, p datascope.Predicate) (datascope.View, error) {
	keep, err := p.Filter()
	if err != nil {
		return nil, err
	}
	v.h.db.mu.RLock()
	defer v.h.db.mu.RUnlock()
	var rows []int
	for i, idx := range v.rows {
		ok, err := keep(func(field string) (any, error) { return v.get(i, field) })
		if err != nil {
			return nil, fmt.Errorf("memdb: subset %s: %w", p, err)
		}
		if ok {
			rows = append(rows, idx)
		}
	}
	return &view{h: v.h, t: v.t, rows: rows}, nil
}
