package loadsource

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// mysqlOpen registers the MySQL driver the same way
// database/mysql/database.go's NewDatabase does, but here the DSN is
// taken straight from the LOAD DATA statement rather than built from a
// database.Config.
func mysqlOpen(dsn string) (*sql.DB, error) {
	return sql.Open("mysql", dsn)
}
