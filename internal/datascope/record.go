package datascope

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"seisadapt/internal/metrics"
)

// Record is an immutable snapshot of one row. Every field of the view is
// read at construction; a field the engine cannot extract holds nil.
type Record struct {
	table  string
	key    []string
	fields []string // field-number order
	values map[string]any
}

// NewRecord reads the row p points at. It fails with ErrRange when p is the
// All pseudo-position or outside the view.
func NewRecord(ctx context.Context, p Pointer) (*Record, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	return newRecord(ctx, p.View, p.Record), nil
}

// newRecord reads record i of v without a range check.
func newRecord(ctx context.Context, v View, i int) *Record {
	r := &Record{
		table:  v.Name(),
		key:    slices.Clone(v.PrimaryKey()),
		fields: slices.Clone(v.Fields()),
	}
	r.values = make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		val, err := v.Get(ctx, i, f)
		if err != nil {
			val = nil
		}
		r.values[f] = val
	}
	return r
}

// Table is the name of the table the row came from.
func (r *Record) Table() string { return r.table }

// PrimaryKey returns the key spec of the source table.
func (r *Record) PrimaryKey() []string { return slices.Clone(r.key) }

// Fields returns the field names in sorted order.
func (r *Record) Fields() []string {
	out := slices.Clone(r.fields)
	slices.Sort(out)
	return out
}

// Get returns the value of field and whether the record has that field.
func (r *Record) Get(field string) (any, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Has reports whether field is part of the record.
func (r *Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// StringField returns field as text. Missing fields and nulls yield "".
func (r *Record) StringField(field string) string {
	v, ok := r.values[field]
	if !ok || v == nil {
		return ""
	}
	return ValueString(v)
}

// Float returns field as float64.
func (r *Record) Float(field string) (float64, bool) {
	return ToFloat(r.values[field])
}

// Int returns field as int64.
func (r *Record) Int(field string) (int64, bool) {
	return ToInt(r.values[field])
}

// Map returns a copy of the field values.
func (r *Record) Map() map[string]any {
	return maps.Clone(r.values)
}

// Key identifies the record by table and primary-key values, e.g.
//
//	Record('wfdisc' -> TOL0 LHE 1213229044.64::1213315451.64)
func (r *Record) Key() string {
	mids := make([]string, 0, len(r.key))
	for _, k := range r.key {
		parts := strings.Split(k, "::")
		vals := make([]string, len(parts))
		for i, f := range parts {
			vals[i] = ValueString(r.values[f])
		}
		mids = append(mids, strings.Join(vals, "::"))
	}
	return fmt.Sprintf("Record('%s' -> %s)", r.table, strings.Join(mids, " "))
}

// String renders the values in field-number order separated by single
// spaces, like a line of the table file without padding.
func (r *Record) String() string {
	vals := make([]string, len(r.fields))
	for i, f := range r.fields {
		vals[i] = ValueString(r.values[f])
	}
	return strings.Join(vals, " ")
}

// Records is an ordered collection of snapshots; index == record position.
type Records []*Record

// Materialize snapshots every record of v, in position order.
func Materialize(ctx context.Context, v View) (Records, error) {
	start := time.Now()
	recs, err := materialize(ctx, v)
	metrics.RecordStep("datascope", "materialize", err, time.Since(start))
	if err == nil {
		metrics.RecordRow("datascope", "records", int64(len(recs)))
	}
	return recs, err
}

func materialize(ctx context.Context, v View) (Records, error) {
	n, err := v.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("datascope: count %s: %w", v.Name(), err)
	}
	out := make(Records, 0, n)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, newRecord(ctx, v, i))
	}
	return out, nil
}

// FromPointer materializes the whole view behind p, whatever its position.
func FromPointer(ctx context.Context, p Pointer) (Records, error) {
	if p.View == nil {
		return nil, fmt.Errorf("datascope: FromPointer: nil view")
	}
	return Materialize(ctx, p.View)
}

// Col returns field from every record that has it.
func (rs Records) Col(field string) []any {
	out := make([]any, 0, len(rs))
	for _, r := range rs {
		if v, ok := r.Get(field); ok {
			out = append(out, v)
		}
	}
	return out
}

// Floats returns field from every record that has it as float64. Values that
// are not numeric fail.
func (rs Records) Floats(field string) ([]float64, error) {
	col := rs.Col(field)
	out := make([]float64, len(col))
	for i, v := range col {
		f, ok := ToFloat(v)
		if !ok {
			return nil, fmt.Errorf("datascope: column %s: value %d (%v) is not numeric", field, i, v)
		}
		out[i] = f
	}
	return out, nil
}
