// Package all wires every built-in datascope engine into the registry.
//
// Importing it (as a blank import) runs the init functions of:
//
//   - "flatfile" (seisadapt/internal/datascope/flatfile)
//   - "memdb"    (seisadapt/internal/datascope/memdb)
//   - "sqlite", "mysql", "mssql" (seisadapt/internal/datascope/sqldb)
//   - "postgres" (seisadapt/internal/datascope/pgdb)
//
// Binaries that need only some engines can import those packages directly.
package all

import (
	_ "seisadapt/internal/datascope/flatfile"
	_ "seisadapt/internal/datascope/memdb"
	_ "seisadapt/internal/datascope/pgdb"
	_ "seisadapt/internal/datascope/sqldb"
)
