package loadsource

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	pg_query "github.com/pganalyze/pg_query_go/v2"
)

// postgresOpen registers the Postgres driver the same way
// database/postgres/database.go's NewDatabase does.
func postgresOpen(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

// postgresValidate parses query against the real Postgres grammar before
// it is shipped over lib/pq, exactly the defense
// database/postgres/parser.go applies to a DDL statement before handing
// it to the server: a LOAD DATA source query only ever reaches the wire
// once it has round-tripped through pg_query_go as a single SELECT.
func postgresValidate(query string) error {
	result, err := pg_query.Parse(query)
	if err != nil {
		return fmt.Errorf("loadsource: source query is not valid Postgres SQL: %w", err)
	}
	if len(result.Stmts) != 1 {
		return fmt.Errorf("loadsource: source query must be exactly one statement, got %d", len(result.Stmts))
	}
	if _, ok := result.Stmts[0].Stmt.Node.(*pg_query.Node_SelectStmt); !ok {
		return fmt.Errorf("loadsource: source query must be a SELECT statement")
	}
	return nil
}
