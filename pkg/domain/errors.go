package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or incomplete change payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid change: %s %s", e.Field, e.Reason)
}

// ReferentialError reports an edge whose endpoint is missing from the graph.
type ReferentialError struct {
	NodeID string
	Role   string // "source" or "target"
}

func (e ReferentialError) Error() string {
	return fmt.Sprintf("%s node %s does not exist", e.Role, e.NodeID)
}

// DuplicateError reports a create targeting an id that already exists.
type DuplicateError struct {
	ID string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("node %s already exists", e.ID)
}

// NotFoundError reports an update or delete on a missing node or edge.
type NotFoundError struct {
	Kind string // "node" or "edge"
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// CodecError reports an archive encode or decode failure.
type CodecError struct {
	Op  string
	Err error
}

func (e CodecError) Error() string {
	return fmt.Sprintf("codec %s: %v", e.Op, e.Err)
}

func (e CodecError) Unwrap() error { return e.Err }

// recordFault marks errors that abort only the current change record.
type recordFault interface{ recordFault() }

func (ValidationError) recordFault()  {}
func (ReferentialError) recordFault() {}
func (DuplicateError) recordFault()   {}
func (NotFoundError) recordFault()    {}
func (CodecError) recordFault()       {}

// RecordFault reports whether err is a per-record fault: the kind of error
// that aborts only the current change and lets the worker continue. IO and
// storage failures are not record faults.
func RecordFault(err error) bool {
	var rf recordFault
	return errors.As(err, &rf)
}
