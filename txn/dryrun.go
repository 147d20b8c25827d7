package txn

import "github.com/minidb/miniql/value"

// Action records one write a DryRunTrx intercepted instead of applying,
// surfaced to EXPLAIN ANALYZE-style tooling or tests that want to assert
// "this statement would have inserted N rows" without mutating storage.
type Action struct {
	Kind  string // "insert", "delete", "update"
	Table string
	RID   value.RID
}

// DryRunTrx wraps a real Trx and no-ops every write while recording what
// would have happened, mirroring the teacher's DryRunDatabase: same
// wrap-and-intercept shape, generalized from "fake SQL driver" to "fake
// storage writes". Reads (VisitRecord's callback still runs, since callers
// use it to inspect the current value) pass through unchanged.
type DryRunTrx struct {
	wrapped Trx
	Actions []Action
}

func NewDryRunTrx(wrapped Trx) *DryRunTrx {
	return &DryRunTrx{wrapped: wrapped}
}

func (d *DryRunTrx) InsertRecord(table Table, data []byte) (value.RID, error) {
	d.Actions = append(d.Actions, Action{Kind: "insert", Table: table.Name()})
	return value.RID{}, nil
}

func (d *DryRunTrx) DeleteRecord(table Table, rid value.RID) error {
	d.Actions = append(d.Actions, Action{Kind: "delete", Table: table.Name(), RID: rid})
	return nil
}

// VisitRecord still calls fn against the table's current data so callers
// relying on its return value (e.g. to compute "would this row satisfy the
// predicate after update") keep working, but the resulting write is never
// actually persisted back.
func (d *DryRunTrx) VisitRecord(table Table, rid value.RID, fn func(data []byte) error) error {
	d.Actions = append(d.Actions, Action{Kind: "update", Table: table.Name(), RID: rid})
	return table.VisitRecordData(rid, func(data []byte) error {
		scratch := append([]byte(nil), data...)
		return fn(scratch)
	})
}

func (d *DryRunTrx) Commit() error   { return nil }
func (d *DryRunTrx) Rollback() error { return nil }
func (d *DryRunTrx) ID() string      { return d.wrapped.ID() }
