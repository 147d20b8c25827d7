package loadsource

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// sqlite3Open registers the pure-Go sqlite driver the same way
// database/sqlite3/database.go's NewDatabase does.
func sqlite3Open(dsn string) (*sql.DB, error) {
	return sql.Open("sqlite", dsn)
}
