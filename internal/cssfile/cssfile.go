// Package cssfile reads and writes CSS3.0 flat files, the fixed-width text
// tables a Datascope database keeps on disk. A database is a path prefix;
// table "wfdisc" of database "/data/db/land" lives in "/data/db/land.wfdisc".
package cssfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"seisadapt/internal/schema"
)

// Path returns the file holding table of the database at prefix.
func Path(prefix, table string) string { return prefix + "." + table }

// ReadTable reads every row of table t from the database at prefix. Values
// are in field order. A malformed row fails the whole read.
func ReadTable(ctx context.Context, prefix string, t schema.Table) ([][]any, error) {
	f, err := os.Open(Path(prefix, t.Name))
	if err != nil {
		return nil, fmt.Errorf("cssfile: %w", err)
	}
	defer f.Close()

	var rows [][]any
	err = scan(ctx, f, t, false, func(_ int, row []any) error {
		rows = append(rows, row)
		return nil
	}, func(line int, err error) error {
		return fmt.Errorf("cssfile: %s line %d: %w", f.Name(), line, err)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteTable writes rows of t to w, one fixed-width line each.
func WriteTable(w io.Writer, t schema.Table, rows [][]any) error {
	bw := bufio.NewWriter(w)
	for i, r := range rows {
		line, err := t.FormatLine(r)
		if err != nil {
			return fmt.Errorf("cssfile: %s row %d: %w", t.Name, i, err)
		}
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
