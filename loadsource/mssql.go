package loadsource

import (
	"database/sql"

	_ "github.com/denisenkom/go-mssqldb"
)

// mssqlOpen registers the MSSQL driver the same way
// database/mssql/database.go's NewDatabase does, under the "sqlserver"
// driver name go-mssqldb registers.
func mssqlOpen(dsn string) (*sql.DB, error) {
	return sql.Open("sqlserver", dsn)
}
