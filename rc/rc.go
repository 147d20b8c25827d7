// Package rc defines the flat return-code enum shared by every layer of the
// query execution core, plus the small error wrapper used where returning a
// Go error is more idiomatic than a bare code (constructors, I/O helpers).
package rc

import "fmt"

// RC is the return code threaded through the pull-based operator protocol.
// RECORD_EOF is a non-error terminal signal, not a failure: callers on the
// iterator path must distinguish it from every other code.
type RC int

const (
	SUCCESS RC = iota
	INVALID_ARGUMENT
	UNIMPLEMENTED
	SQL_SYNTAX
	INTERNAL
	NOMEM
	NOTFOUND
	EMPTY
	FULL
	EXIST
	NOT_EXIST
	RECORD_EOF
	RECORD_DUPLICATE_KEY
	SCHEMA_TABLE_NOT_EXIST
	SCHEMA_FIELD_MISSING
	SCHEMA_FIELD_TYPE_MISMATCH
	SCHEMA_INDEX_NAME_REPEAT
	IOERR_READ
	IOERR_WRITE
	IOERR_OPEN
	IOERR_SYNC
	LOCKED_CONCURRENCY_CONFLICT
	LOGBUF_FULL
	UNSUPPORTED
	VALUE_TYPE_MISMATCH
)

var names = map[RC]string{
	SUCCESS:                     "SUCCESS",
	INVALID_ARGUMENT:            "INVALID_ARGUMENT",
	UNIMPLEMENTED:               "UNIMPLEMENTED",
	SQL_SYNTAX:                  "SQL_SYNTAX",
	INTERNAL:                    "INTERNAL",
	NOMEM:                       "NOMEM",
	NOTFOUND:                    "NOTFOUND",
	EMPTY:                       "EMPTY",
	FULL:                        "FULL",
	EXIST:                       "EXIST",
	NOT_EXIST:                   "NOT_EXIST",
	RECORD_EOF:                  "RECORD_EOF",
	RECORD_DUPLICATE_KEY:        "RECORD_DUPLICATE_KEY",
	SCHEMA_TABLE_NOT_EXIST:      "SCHEMA_TABLE_NOT_EXIST",
	SCHEMA_FIELD_MISSING:        "SCHEMA_FIELD_MISSING",
	SCHEMA_FIELD_TYPE_MISMATCH:  "SCHEMA_FIELD_TYPE_MISMATCH",
	SCHEMA_INDEX_NAME_REPEAT:    "SCHEMA_INDEX_NAME_REPEAT",
	IOERR_READ:                  "IOERR_READ",
	IOERR_WRITE:                 "IOERR_WRITE",
	IOERR_OPEN:                  "IOERR_OPEN",
	IOERR_SYNC:                  "IOERR_SYNC",
	LOCKED_CONCURRENCY_CONFLICT: "LOCKED_CONCURRENCY_CONFLICT",
	LOGBUF_FULL:                 "LOGBUF_FULL",
	UNSUPPORTED:                 "UNSUPPORTED",
	VALUE_TYPE_MISMATCH:         "VALUE_TYPE_MISMATCH",
}

func (c RC) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("RC(%d)", int(c))
}

// Succeeded reports whether c represents a non-error outcome. RECORD_EOF is
// a terminal iterator signal, not success, so it is excluded here; callers
// that pull tuples must check for it separately with c == RECORD_EOF.
func Succeeded(c RC) bool { return c == SUCCESS }

// Failed is the complement of Succeeded.
func Failed(c RC) bool { return c != SUCCESS }

// Error adapts an RC to the standard error interface for call sites where a
// Go error return is the idiomatic shape (constructors, file I/O, binder
// failures) rather than the bare-RC pull-iterator surface.
type Error struct {
	Code RC
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error carrying code with a formatted message.
func New(code RC, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches code to an existing error.
func Wrap(code RC, err error, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the RC from err if it is (or wraps) an *Error, otherwise
// returns INTERNAL for a non-nil err and SUCCESS for nil.
func CodeOf(err error) RC {
	if err == nil {
		return SUCCESS
	}
	var rcErr *Error
	if as(err, &rcErr) {
		return rcErr.Code
	}
	return INTERNAL
}

func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
