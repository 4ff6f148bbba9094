package store

import (
	"errors"
	"fmt"
)

// ErrUnknownFilterColumn is returned when a load filter references a column
// that is not a declared partition column.
var ErrUnknownFilterColumn = errors.New("unknown filter column")

// SchemaValidationError reports a record or file that does not match the
// descriptor's declared record type. It fails the whole read or write call;
// on writes it is raised before any transaction is opened.
type SchemaValidationError struct {
	RecordType string
	Detail     string
	Err        error
}

func (e *SchemaValidationError) Error() string {
	msg := fmt.Sprintf("schema validation for %s: %s", e.RecordType, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// TransactionError reports a failed write transaction and the stage it
// failed in. Commit failures are reported after rollback has restored the
// destination.
type TransactionError struct {
	Stage string // "staging", "backup", "commit" or "rollback"
	Path  string
	Err   error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("write transaction on %s: %s failed: %v", e.Path, e.Stage, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
