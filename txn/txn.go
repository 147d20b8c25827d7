// Package txn implements spec.md §6's transaction contract: the core
// never writes to a table directly, it always goes through a Trx. This
// keeps the MVCC/locking machinery pluggable without having to change any
// operator code (spec.md §9's "swap the Trx contract for a seam a teaching
// implementation can fill in").
package txn

import (
	"github.com/google/uuid"

	"github.com/minidb/miniql/value"
)

// Table is the narrow slice of storage/table.Table that a Trx needs to
// apply writes; declared here (rather than importing storage/table) to
// keep txn a leaf package with no storage dependency.
type Table interface {
	Name() string
	InsertRecordData(data []byte) (value.RID, error)
	DeleteRecordData(rid value.RID) error
	VisitRecordData(rid value.RID, fn func(data []byte) error) error
}

// Trx is the contract every write-path operator calls through: insert,
// delete, and an atomic read-modify-write visitor used by Update. Core
// code calls these; it does not implement them — a real MVCC/locking
// transaction manager fills this in, this package only supplies the
// default "no concurrency control" implementation and the dry-run
// decorator.
type Trx interface {
	InsertRecord(table Table, data []byte) (value.RID, error)
	DeleteRecord(table Table, rid value.RID) error
	VisitRecord(table Table, rid value.RID, fn func(data []byte) error) error
	Commit() error
	Rollback() error

	// ID identifies this transaction in logs and BEGIN/COMMIT/ROLLBACK
	// session output; a random v4 UUID stands in for the monotonic
	// transaction id a real MVCC manager would assign, since this package
	// only supplies the no-concurrency-control default.
	ID() string
}

// SimpleTrx applies writes directly to the table with no isolation beyond
// what the underlying buffer pool gives for free; Commit/Rollback are
// no-ops since there is no undo log to replay. It exists so the rest of
// the core has a concrete Trx to run against without a real MVCC layer.
type SimpleTrx struct {
	id string
}

func NewSimpleTrx() *SimpleTrx { return &SimpleTrx{id: uuid.NewString()} }

func (t *SimpleTrx) ID() string { return t.id }

func (t *SimpleTrx) InsertRecord(table Table, data []byte) (value.RID, error) {
	return table.InsertRecordData(data)
}

func (t *SimpleTrx) DeleteRecord(table Table, rid value.RID) error {
	return table.DeleteRecordData(rid)
}

func (t *SimpleTrx) VisitRecord(table Table, rid value.RID, fn func(data []byte) error) error {
	return table.VisitRecordData(rid, fn)
}

func (t *SimpleTrx) Commit() error   { return nil }
func (t *SimpleTrx) Rollback() error { return nil }
