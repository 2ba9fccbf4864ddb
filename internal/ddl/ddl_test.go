package ddl

import (
	"strings"
	"testing"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "public.t"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			errContains: "missing SQLType",
		},
		{
			name:    "single nullable column",
			def:     TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id", SQLType: "INT", Nullable: true}}},
			wantSQL: "CREATE TABLE t (\n  id INT\n);",
		},
		{
			name: "not null, default and composite key",
			def: TableDef{FQN: "wfdisc", Columns: []ColumnDef{
				{Name: "sta", SQLType: "TEXT", PrimaryKey: true},
				{Name: "time", SQLType: "REAL", PrimaryKey: true},
				{Name: "calib", SQLType: "REAL", Nullable: true, Default: "0"},
			}},
			wantSQL: "CREATE TABLE wfdisc (\n  sta TEXT NOT NULL,\n  time REAL NOT NULL,\n  calib REAL DEFAULT 0,\n  PRIMARY KEY (sta, time)\n);",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildCreateTableSQL(tt.def)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("BuildCreateTableSQL() error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL() error = %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("BuildCreateTableSQL() =\n%s\nwant\n%s", got, tt.wantSQL)
			}
		})
	}
}

func TestStyles(t *testing.T) {
	t.Parallel()

	def := TableDef{FQN: "css.site", Columns: []ColumnDef{{Name: "sta", SQLType: "T", PrimaryKey: true}}}
	tests := []struct {
		style Style
		want  string
	}{
		{SQLite, "CREATE TABLE IF NOT EXISTS \"css\".\"site\" (\n  \"sta\" T NOT NULL,\n  PRIMARY KEY (\"sta\")\n);"},
		{MySQL, "CREATE TABLE IF NOT EXISTS `css`.`site` (\n  `sta` T NOT NULL,\n  PRIMARY KEY (`sta`)\n);"},
		{MSSQL, "IF OBJECT_ID(N'[css].[site]', N'U') IS NULL\nBEGIN\n  CREATE TABLE [css].[site] (\n    [sta] T NOT NULL,\n    PRIMARY KEY ([sta])\n  );\nEND;"},
	}
	for _, tt := range tests {
		got, err := tt.style.CreateTable(def)
		if err != nil {
			t.Fatalf("%s: CreateTable() error = %v", tt.style.Name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: CreateTable() =\n%s\nwant\n%s", tt.style.Name, got, tt.want)
		}
	}

	if _, err := MSSQL.CreateTable(TableDef{}); err == nil || !strings.HasPrefix(err.Error(), "mssql ddl:") {
		t.Fatalf("MSSQL.CreateTable() error = %v, want mssql ddl prefix", err)
	}
}

func TestQuoteEscapes(t *testing.T) {
	t.Parallel()

	if got := QuoteBracket("weird]id"); got != "[weird]]id]" {
		t.Fatalf("QuoteBracket() = %q", got)
	}
	if got := QuoteDouble(`a"b`); got != `"a""b"` {
		t.Fatalf("QuoteDouble() = %q", got)
	}
	if got := QuoteBacktick("a`b"); got != "`a``b`" {
		t.Fatalf("QuoteBacktick() = %q", got)
	}
}
