// Package loadsource implements the LOAD DATA statement: connecting to an
// external relational database, running a source query against it, and
// inserting every row it returns into a miniql table. One file per
// dialect (mysql.go, postgres.go, mssql.go, sqlite3.go) registers that
// dialect's database/sql driver and, for Postgres, validates the
// user-supplied source query against the real grammar first — grounded on
// database/{mysql,postgres,mssql,sqlite3}/database.go's per-dialect
// NewDatabase constructors, repurposed here for reading rows out of an
// external source instead of dumping DDL out of one. The session layer is
// the only caller: physical.Passthrough's KindLoadData case explicitly
// defers to this package so physical stays free of DB-driver imports.
package loadsource

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/minidb/miniql/physical"
	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/stmt"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

// dialect bundles one external source's connection opener and (where the
// grammar is available as a library) source-query validator.
type dialect struct {
	open     func(dsn string) (*sql.DB, error)
	validate func(query string) error
}

var dialects = map[string]dialect{
	"mysql":    {open: mysqlOpen, validate: noValidate},
	"postgres": {open: postgresOpen, validate: postgresValidate},
	"mssql":    {open: mssqlOpen, validate: noValidate},
	"sqlite3":  {open: sqlite3Open, validate: noValidate},
}

func noValidate(string) error { return nil }

// sourceQuery turns a LOAD DATA statement's SourceTable into the SELECT
// run against the external database: a bare identifier is wrapped into a
// `SELECT * FROM` of it, text that already looks like a SELECT is used
// as-is so a caller can filter or project columns before they ever reach
// miniql.
func sourceQuery(sourceTable string) string {
	trimmed := strings.TrimSpace(sourceTable)
	if len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "select") {
		return trimmed
	}
	return "SELECT * FROM " + trimmed
}

// Load runs one LOAD DATA statement: opens s.DSN with the s.SourceKind
// driver, runs the source query, and inserts every returned row into
// s.Relation's table positionally through tx (the same txn.Trx seam
// Insert writes through), converting each source column's text form into
// the target field's AttrType. Returns the number of rows inserted.
func Load(e *physical.Engine, tx txn.Trx, s *stmt.LoadDataStmt) (int, error) {
	if s.Relation.View != nil {
		return 0, rc.New(rc.UNSUPPORTED, "LOAD DATA into view %s is not supported, target a base table", s.Relation.View.Name)
	}
	d, ok := dialects[s.SourceKind]
	if !ok {
		return 0, fmt.Errorf("loadsource: unknown source kind %q", s.SourceKind)
	}

	query := sourceQuery(s.SourceTable)
	if err := d.validate(query); err != nil {
		return 0, err
	}

	db, err := d.open(s.DSN)
	if err != nil {
		return 0, fmt.Errorf("loadsource: open %s source: %w", s.SourceKind, err)
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return 0, fmt.Errorf("loadsource: query %s source: %w", s.SourceKind, err)
	}
	defer rows.Close()

	meta := s.Relation.Table
	tbl, err := e.Table(meta)
	if err != nil {
		return 0, err
	}

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	if len(cols) != len(meta.UserFields) {
		return 0, fmt.Errorf("loadsource: source query returns %d columns, table %s has %d", len(cols), meta.Name, len(meta.UserFields))
	}

	raw := make([]sql.RawBytes, len(cols))
	scanDest := make([]any, len(cols))
	for i := range raw {
		scanDest[i] = &raw[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return count, fmt.Errorf("loadsource: scan row %d: %w", count, err)
		}
		values := make([]value.Value, len(cols))
		for i, f := range meta.UserFields {
			v, err := convertCell(e, meta, f, raw[i])
			if err != nil {
				return count, fmt.Errorf("loadsource: row %d column %s: %w", count, f.Name, err)
			}
			values[i] = v
		}
		rec, err := record.MakeRecord(meta, values)
		if err != nil {
			return count, fmt.Errorf("loadsource: build row %d: %w", count, err)
		}
		if _, err := tx.InsertRecord(tbl, rec.Data); err != nil {
			return count, fmt.Errorf("loadsource: insert row %d: %w", count, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, err
	}
	return count, nil
}

// convertCell parses one source column's text form into the target
// field's AttrType via value.SetFromString (spec.md §4.1's
// set_value_from_str), then materializes a TEXTS/VECTORS result into the
// table's blob file the same way Insert.buildRow does for a literal.
func convertCell(e *physical.Engine, meta *record.TableMeta, f record.FieldMeta, raw sql.RawBytes) (value.Value, error) {
	if raw == nil {
		if !f.Nullable {
			return value.Value{}, fmt.Errorf("column %s is NOT NULL and the source value was NULL", f.Name)
		}
		return value.Null(), nil
	}
	v, err := value.SetFromString(f.Type, string(raw))
	if err != nil {
		return value.Value{}, err
	}
	if v.OwnsHeap && (v.Tag == value.TEXTS || v.Tag == value.VECTORS) {
		return materializeBlob(e, meta, v)
	}
	return v, nil
}

func materializeBlob(e *physical.Engine, meta *record.TableMeta, v value.Value) (value.Value, error) {
	if v.Tag == value.TEXTS {
		return e.AppendText(meta, v.Text().Bytes)
	}
	return e.AppendVector(meta, v.Vector().Floats)
}
