package datascope

import (
	"context"
	"fmt"
	"iter"
	"slices"
)

// LazyRecord is a live view of one row. It holds only its Pointer; reads and
// writes go to the engine on every call. The database must stay open for as
// long as the record is used.
type LazyRecord struct {
	p Pointer
}

// NewLazyRecord validates p and wraps it.
func NewLazyRecord(ctx context.Context, p Pointer) (LazyRecord, error) {
	if err := p.check(ctx); err != nil {
		return LazyRecord{}, err
	}
	return LazyRecord{p: p}, nil
}

// Pointer returns the record's position.
func (r LazyRecord) Pointer() Pointer { return r.p }

func (r LazyRecord) Table() string { return r.p.View.Name() }

func (r LazyRecord) PrimaryKey() []string { return slices.Clone(r.p.View.PrimaryKey()) }

// Fields returns the field names in sorted order.
func (r LazyRecord) Fields() []string {
	out := slices.Clone(r.p.View.Fields())
	slices.Sort(out)
	return out
}

// Get re-reads field from the engine.
func (r LazyRecord) Get(ctx context.Context, field string) (any, error) {
	return r.p.View.Get(ctx, r.p.Record, field)
}

// Set writes field through the engine. The engine's error is returned
// unchanged, so a write on a read-only handle surfaces the engine's own
// permission error.
func (r LazyRecord) Set(ctx context.Context, field string, v any) error {
	return r.p.View.Put(ctx, r.p.Record, field, v)
}

// Snapshot reads the row into an eager Record.
func (r LazyRecord) Snapshot(ctx context.Context) (*Record, error) {
	return NewRecord(ctx, r.p)
}

func (r LazyRecord) String() string {
	return fmt.Sprintf("LazyRecord(%s)", r.p)
}

// LazyList indexes the records of a view without reading them. Each access
// builds its own Pointer, so traversals never share position state.
type LazyList struct {
	view View
	n    int
}

// NewLazyList counts v once; the count is fixed for the list's lifetime.
func NewLazyList(ctx context.Context, v View) (*LazyList, error) {
	n, err := v.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("datascope: count %s: %w", v.Name(), err)
	}
	return &LazyList{view: v, n: n}, nil
}

func (l *LazyList) Len() int { return l.n }

// At returns a record positioned at i.
func (l *LazyList) At(i int) (LazyRecord, error) {
	if i < 0 || i >= l.n {
		return LazyRecord{}, fmt.Errorf("%w: index %d of %s (len %d)", ErrRange, i, l.view.Name(), l.n)
	}
	return LazyRecord{p: Pointer{View: l.view, Record: i}}, nil
}

// All yields every record in position order. Each call is an independent
// traversal.
func (l *LazyList) All() iter.Seq2[int, LazyRecord] {
	return func(yield func(int, LazyRecord) bool) {
		for i := range l.n {
			if !yield(i, LazyRecord{p: Pointer{View: l.view, Record: i}}) {
				return
			}
		}
	}
}
