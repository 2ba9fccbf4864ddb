package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"seisadapt/internal/cssfile"
	"seisadapt/internal/datascope"
	"seisadapt/internal/schema"
)

func noenv(string) string { return "" }

func writeSite(t *testing.T) string {
	t.Helper()
	st, _ := schema.Lookup("site")
	rows := [][]any{
		{"TOL0", int64(2008001), int64(-1), 44.5, -123.25, 0.12, "Toledo", "ss", "-", 0.0, 0.0, 0.0},
		{"HOOD", int64(2007120), int64(2009001), 45.3, -121.6, 1.5, "Mt Hood", "ss", "-", 0.0, 0.0, 0.0},
	}
	var buf bytes.Buffer
	if err := cssfile.WriteTable(&buf, st, append(rows, rows[1])); err != nil {
		t.Fatal(err)
	}
	buf.WriteString("garbage\n")
	prefix := filepath.Join(t.TempDir(), "land")
	if err := os.WriteFile(cssfile.Path(prefix, "site"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return prefix
}

func TestRunCopiesToSQLite(t *testing.T) {
	ctx := context.Background()
	src := writeSite(t)
	target := filepath.Join(t.TempDir(), "land.db")

	var out bytes.Buffer
	args := []string{"--src", src, "--engine", "sqlite", "--dsn", target, "--batch", "1", "--dedupe"}
	if err := run(ctx, args, &out, noenv); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := out.String(); got != "site: 2 rows\n" {
		t.Fatalf("output = %q", got)
	}

	db, err := datascope.Open(ctx, datascope.Config{Engine: "sqlite", DSN: target, ReadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	v, err := db.Lookup(ctx, "site")
	if err != nil {
		t.Fatalf("Lookup(site) error = %v", err)
	}
	if n, _ := v.Count(ctx); n != 2 {
		t.Fatalf("Count() = %d, want 2", n)
	}
	sub, err := v.Subset(ctx, datascope.Match{Field: "sta", Pattern: "HOOD"})
	if err != nil {
		t.Fatal(err)
	}
	if name, _ := sub.Get(ctx, 0, "staname"); name != "Mt Hood" {
		t.Fatalf("staname = %#v", name)
	}
}

func TestRunErrors(t *testing.T) {
	src := writeSite(t)
	target := filepath.Join(t.TempDir(), "x.db")
	tests := [][]string{
		{"--engine", "sqlite", "--dsn", target},
		{"--src", filepath.Join(t.TempDir(), "empty"), "--engine", "sqlite", "--dsn", target},
		{"--src", src, "--tables", "nosuch", "--engine", "sqlite", "--dsn", target},
		{"--src", src, "--engine", "flatfile", "--dsn", src},
		{"--src", src, "--batch", "0", "--engine", "sqlite", "--dsn", target},
	}
	for _, args := range tests {
		if err := run(context.Background(), args, &bytes.Buffer{}, noenv); err == nil {
			t.Errorf("run(%v) error = nil", args)
		}
	}
}
