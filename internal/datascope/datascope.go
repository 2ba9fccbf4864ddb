// Package datascope adapts tabular seismic databases (CSS3.0 tables such as
// wfdisc, site or origin) into record objects.
//
// The engine side is described by two small interfaces: a Database hands out
// Views, and a View answers the Datascope primitives (field list, record
// count, getv, putv, subset). Engines register an Opener under a name from
// init(); importing seisadapt/internal/datascope/all enables every built-in
// engine.
//
// On top of the engine the package offers two ways to read rows:
//
//   - Record is an eager snapshot of one row, and Records materializes a whole
//     view.
//   - LazyRecord keeps only a Pointer and re-queries (or re-writes) the engine
//     on every access; LazyList hands out a fresh Pointer per index.
//
// Nothing here starts goroutines or closes a handle it did not open.
package datascope

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"seisadapt/internal/config"
)

// ErrRange reports a record position outside a view or the All
// pseudo-position where a single record is required.
var ErrRange = errors.New("datascope: record out of range")

// All is the pseudo-position standing for every record of a view.
const All = -501

// Database is an open engine handle.
type Database interface {
	// Lookup returns a view over the whole named table.
	Lookup(ctx context.Context, table string) (View, error)
	Close() error
}

// View is a table or a subset of one. Record positions run 0..Count-1 in a
// stable order for the life of the view.
type View interface {
	// Name is the table the view was built from.
	Name() string
	// PrimaryKey is the Datascope key spec; range pairs are written "a::b".
	PrimaryKey() []string
	// Fields lists field names in field-number order.
	Fields() []string
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, record int, field string) (any, error)
	// Put writes one field. Engine errors, including write attempts on a
	// read-only handle, are returned as the engine reports them.
	Put(ctx context.Context, record int, field string, v any) error
	Subset(ctx context.Context, p Predicate) (View, error)
}

// Pointer is a view plus a record position.
type Pointer struct {
	View   View
	Record int
}

// At returns a copy of p positioned at record i.
func (p Pointer) At(i int) Pointer {
	return Pointer{View: p.View, Record: i}
}

func (p Pointer) String() string {
	if p.View == nil {
		return "Pointer(<nil>)"
	}
	if p.Record == All {
		return fmt.Sprintf("Pointer(%s, all)", p.View.Name())
	}
	return fmt.Sprintf("Pointer(%s, %d)", p.View.Name(), p.Record)
}

// check verifies that p names a single existing record.
func (p Pointer) check(ctx context.Context) error {
	if p.View == nil {
		return fmt.Errorf("%w: nil view", ErrRange)
	}
	if p.Record == All {
		return fmt.Errorf("%w: pointer addresses all records of %s; materialize the view instead", ErrRange, p.View.Name())
	}
	n, err := p.View.Count(ctx)
	if err != nil {
		return err
	}
	if p.Record < 0 || p.Record >= n {
		return fmt.Errorf("%w: record %d of %s (count %d)", ErrRange, p.Record, p.View.Name(), n)
	}
	return nil
}

// Config selects and configures an engine.
type Config struct {
	Engine   string
	DSN      string
	ReadOnly bool
	Options  config.Options
}

// Opener opens a database for one engine kind.
type Opener func(ctx context.Context, cfg Config) (Database, error)

var (
	regMu   sync.RWMutex
	openers = map[string]Opener{}
)

// Register registers (or replaces) the Opener for an engine kind. It is
// typically called from engine packages' init() functions.
func Register(kind string, fn Opener) {
	regMu.Lock()
	defer regMu.Unlock()
	openers[kind] = fn
}

// Engines lists registered engine kinds in sorted order.
func Engines() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(openers))
	for k := range openers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Open opens a database with the engine named by cfg.Engine. The caller owns
// the returned handle.
func Open(ctx context.Context, cfg Config) (Database, error) {
	regMu.RLock()
	fn, ok := openers[cfg.Engine]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("datascope: no engine registered for %q (have %v)", cfg.Engine, Engines())
	}
	return fn(ctx, cfg)
}
