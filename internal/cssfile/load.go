package cssfile

import (
	"context"
	"errors"
	"log"
	"time"
)

// CopyFn inserts rows, aligned to columns, and returns how many it inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize
// and calls copyFn for each non-empty batch. It returns the number of rows
// copyFn reported and the first error. Progress is logged per batch.
func LoadBatches(
	ctx context.Context,
	table string,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, errors.New("cssfile: batch size must be > 0")
	}
	if copyFn == nil {
		return 0, errors.New("cssfile: nil copy function")
	}

	var (
		total   int64
		batches int
		batch   = make([][]any, 0, batchSize)
		start   = time.Now()
		last    = start
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Printf("cssfile: table=%s copy failed after=%d total=%d err=%v", table, n, total, err)
			return err
		}
		batches++
		now := time.Now()
		rps := 0.0
		if d := now.Sub(last); d > 0 {
			rps = float64(n) / d.Seconds()
		}
		log.Printf("cssfile: table=%s batch=%d rps=%.0f inserted=%d total=%d elapsed=%s",
			table, batches, rps, n, total, now.Sub(start).Truncate(time.Millisecond))
		last = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				return total, flush()
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
