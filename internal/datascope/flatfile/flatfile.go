// Package flatfile is a datascope engine over CSS3.0 flat files. The DSN is
// the database path prefix; each table is read from "<prefix>.<table>" when
// it is looked up.
//
// Views looked up on one handle share the table's rows. A writable handle
// saves the whole table file after every Put. Handles
// opened read-only reject writes with memdb.ErrReadOnly.
package flatfile

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"seisadapt/internal/cssfile"
	"seisadapt/internal/datascope"
	"seisadapt/internal/datascope/memdb"
	"seisadapt/internal/schema"
)

// DB is a flat-file database. Each table is read once and shared by every
// view looked up on the handle.
type DB struct {
	prefix   string
	readOnly bool

	mu     sync.Mutex
	tables map[string]*memdb.DB
}

// Open returns a handle on the database at cfg.DSN. Tables are not read
// until Lookup.
func Open(_ context.Context, cfg datascope.Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("flatfile: empty database path")
	}
	if fi, err := os.Stat(filepath.Dir(cfg.DSN)); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("flatfile: %s is not in a directory", cfg.DSN)
	}
	return &DB{prefix: cfg.DSN, readOnly: cfg.ReadOnly, tables: map[string]*memdb.DB{}}, nil
}

// Lookup returns a view of the named table, reading its file on first use.
func (d *DB) Lookup(ctx context.Context, name string) (datascope.View, error) {
	t, ok := schema.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("flatfile: unknown CSS3.0 table %q", name)
	}
	mem, err := d.load(ctx, t)
	if err != nil {
		return nil, err
	}
	v, err := mem.Handle(d.readOnly).Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if d.readOnly {
		return v, nil
	}
	return &view{View: v, db: d, mem: mem, t: t}, nil
}

func (d *DB) load(ctx context.Context, t schema.Table) (*memdb.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if mem, ok := d.tables[t.Name]; ok {
		return mem, nil
	}
	rows, err := cssfile.ReadTable(ctx, d.prefix, t)
	if err != nil {
		return nil, err
	}
	tbl, err := memdb.FromSchema(t.Name)
	if err != nil {
		return nil, err
	}
	fields := t.FieldNames()
	for _, r := range rows {
		m := make(map[string]any, len(fields))
		for i, f := range fields {
			m[f] = r[i]
		}
		tbl.Rows = append(tbl.Rows, m)
	}
	mem := memdb.New(tbl)
	d.tables[t.Name] = mem
	return mem, nil
}

func (d *DB) Close() error { return nil }

// view saves the table file after each write.
type view struct {
	datascope.View
	db  *DB
	mem *memdb.DB
	t   schema.Table
}

// Put writes x and saves the table. A failed save restores the previous
// value.
func (v *view) Put(ctx context.Context, record int, field string, x any) error {
	if f, ok := v.t.Field(field); ok {
		if _, err := f.Format(x); err != nil {
			return fmt.Errorf("flatfile: %w", err)
		}
	}
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	prev, _ := v.View.Get(ctx, record, field)
	if err := v.View.Put(ctx, record, field, x); err != nil {
		return err
	}
	if err := v.save(ctx); err != nil {
		_ = v.View.Put(ctx, record, field, prev)
		return err
	}
	return nil
}

func (v *view) Subset(ctx context.Context, p datascope.Predicate) (datascope.View, error) {
	sub, err := v.View.Subset(ctx, p)
	if err != nil {
		return nil, err
	}
	return &view{View: sub, db: v.db, mem: v.mem, t: v.t}, nil
}

// save rewrites the table file through a temporary file in the same
// directory.
func (v *view) save(ctx context.Context) error {
	whole, err := v.mem.Handle(false).Lookup(ctx, v.t.Name)
	if err != nil {
		return err
	}
	n, err := whole.Count(ctx)
	if err != nil {
		return err
	}
	rows := make([][]any, n)
	for i := range rows {
		row := make([]any, len(v.t.Fields))
		for j, f := range v.t.Fields {
			if row[j], err = whole.Get(ctx, i, f.Name); err != nil {
				return err
			}
		}
		rows[i] = row
	}

	path := cssfile.Path(v.db.prefix, v.t.Name)
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("flatfile: save %s: %w", v.t.Name, err)
	}
	defer os.Remove(tmp.Name())
	if err := cssfile.WriteTable(tmp, v.t, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flatfile: save %s: %w", v.t.Name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("flatfile: save %s: %w", v.t.Name, err)
	}
	log.Printf("flatfile: saved table=%s rows=%d", v.t.Name, n)
	return nil
}

func init() {
	datascope.Register("flatfile", func(ctx context.Context, cfg datascope.Config) (datascope.Database, error) {
		return Open(ctx, cfg)
	})
}
