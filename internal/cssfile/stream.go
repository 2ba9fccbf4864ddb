package cssfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"

	"seisadapt/internal/config"
	"seisadapt/internal/schema"

	"github.com/zeebo/xxh3"
)

const logEveryN = 50_000

// StreamRows parses the flat file src as table t and sends each row to out,
// values in field order. It closes src when done.
//
// Options:
//   - dedupe (bool): drop lines identical to an earlier line
//
// onErr(line, err) receives rows that fail to parse; they are dropped.
func StreamRows(
	ctx context.Context,
	src io.ReadCloser,
	t schema.Table,
	opt config.Options,
	out chan<- []any,
	onErr func(line int, err error),
) error {
	defer src.Close()

	emitted := 0
	return scan(ctx, src, t, opt.Bool("dedupe", false), func(line int, row []any) error {
		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
		emitted++
		if emitted%logEveryN == 0 {
			log.Printf("cssfile: table=%s line=%d emitted=%d", t.Name, line, emitted)
		}
		return nil
	}, func(line int, err error) error {
		if onErr != nil {
			onErr(line, err)
		}
		return nil
	})
}

// scan calls emit for every parsed row of r. A non-nil error from emit or
// onErr stops the scan.
func scan(
	ctx context.Context,
	r io.Reader,
	t schema.Table,
	dedupe bool,
	emit func(line int, row []any) error,
	onErr func(line int, err error) error,
) error {
	var seen map[uint64]struct{}
	if dedupe {
		seen = map[uint64]struct{}{}
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		if seen != nil {
			h := xxh3.Hash(b)
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
		}
		row, err := t.ParseLine(string(b))
		if err != nil {
			if err := onErr(line, err); err != nil {
				return err
			}
			continue
		}
		if err := emit(line, row); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("cssfile: %s: %w", t.Name, err)
	}
	return nil
}
