package sqlview

import (
	"fmt"
	"strconv"

	"seisadapt/internal/ddl"
	"seisadapt/internal/schema"
)

// Dialect is the engine-specific spelling used by a View.
type Dialect struct {
	Name        string
	Style       ddl.Style
	Placeholder func(n int) string // n is 1-based
	MapType     func(f schema.Field) string
}

func (d Dialect) quote(id string) string { return d.Style.FQN(id) }

func question(int) string { return "?" }

func width(f schema.Field, fallback int) int {
	if f.Width > 0 {
		return f.Width
	}
	return fallback
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		Style:       ddl.SQLite,
		Placeholder: question,
		MapType: func(f schema.Field) string {
			switch f.Kind {
			case schema.Int:
				return "INTEGER"
			case schema.Float, schema.Time:
				return "REAL"
			default:
				return "TEXT"
			}
		},
	}

	Postgres = Dialect{
		Name:        "postgres",
		Style:       ddl.Postgres,
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		MapType: func(f schema.Field) string {
			switch f.Kind {
			case schema.Int:
				return "BIGINT"
			case schema.Float, schema.Time:
				return "DOUBLE PRECISION"
			default:
				return fmt.Sprintf("VARCHAR(%d)", width(f, 255))
			}
		},
	}

	MySQL = Dialect{
		Name:        "mysql",
		Style:       ddl.MySQL,
		Placeholder: question,
		MapType: func(f schema.Field) string {
			switch f.Kind {
			case schema.Int:
				return "BIGINT"
			case schema.Float, schema.Time:
				return "DOUBLE"
			default:
				return fmt.Sprintf("VARCHAR(%d)", width(f, 255))
			}
		},
	}

	MSSQL = Dialect{
		Name:        "mssql",
		Style:       ddl.MSSQL,
		Placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
		MapType: func(f schema.Field) string {
			switch f.Kind {
			case schema.Int:
				return "BIGINT"
			case schema.Float, schema.Time:
				return "FLOAT"
			default:
				return fmt.Sprintf("NVARCHAR(%d)", width(f, 255))
			}
		},
	}
)
