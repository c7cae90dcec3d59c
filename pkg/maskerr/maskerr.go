// Package maskerr defines the error taxonomy shared by the ingestion
// and masking pipeline: InputFormatError and UnresolvedReferenceError
// are recoverable at the outermost boundary, InvariantViolationError
// is a programming-error grade fault with no partial-failure recovery,
// and IOError wraps the underlying filesystem/stream failure.
package maskerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// InputFormatError reports a malformed netlist document: a missing
// netname, an unsupported InOut port, or a constant wired to a primary
// input.
type InputFormatError struct {
	Path   string
	Reason string
}

func (e *InputFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("input format error: %s", e.Reason)
	}
	return fmt.Sprintf("input format error in %s: %s", e.Path, e.Reason)
}

// NewInputFormatError wraps a reason string as an InputFormatError,
// optionally tagging it with the source path.
func NewInputFormatError(path, reason string) error {
	return &InputFormatError{Path: path, Reason: reason}
}

// UnresolvedReferenceError reports a signal id with no driver, or a
// requested top module that does not exist.
type UnresolvedReferenceError struct {
	RefKind string // "signal" | "module"
	Ref     string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved %s reference: %s", e.RefKind, e.Ref)
}

// NewUnresolvedSignal reports a signal id with no recorded driver.
func NewUnresolvedSignal(sig string) error {
	return &UnresolvedReferenceError{RefKind: "signal", Ref: sig}
}

// NewUnresolvedModule reports a missing top (or named) module.
func NewUnresolvedModule(name string) error {
	return &UnresolvedReferenceError{RefKind: "module", Ref: name}
}

// InvariantViolationError reports a programming-error grade fault: a
// duplicate role registration, a duplicate signal driver, a missing
// predecessor replica, or a non-expandable node found inside the
// secure cone. NodeIndex/NodeKind are opaque diagnostic strings so
// this package has no dependency on pkg/circuit or pkg/gate.
type InvariantViolationError struct {
	NodeIndex string
	NodeKind  string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation at node %s (%s): %s", e.NodeIndex, e.NodeKind, e.Detail)
}

// Panic raises an InvariantViolationError as a panic, matching the
// spec's "programming error, no partial-failure recovery" policy: the
// masking pass never returns this error, it terminates the pass
// immediately and lets the outermost boundary recover it.
func Panic(nodeIndex, nodeKind, detail string) {
	panic(&InvariantViolationError{NodeIndex: nodeIndex, NodeKind: nodeKind, Detail: detail})
}

// RecoverInvariantViolation turns a panic raised by Panic back into an
// error. Intended for use in a deferred recover() at the outermost
// pipeline boundary; re-panics anything that isn't ours.
func RecoverInvariantViolation(recovered interface{}) error {
	if recovered == nil {
		return nil
	}
	if iv, ok := recovered.(*InvariantViolationError); ok {
		return iv
	}
	panic(recovered)
}

// Wrap annotates err with additional context using pkg/errors, the
// error-wrapping library used throughout the example corpus's
// operator tooling.
func Wrap(err error, context string) error {
	return errors.Wrap(err, context)
}

// IOError wraps a filesystem or stream failure encountered reading the
// input document or writing DOT output.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err, recording which operation failed.
func NewIOError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}
