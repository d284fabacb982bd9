// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import "fmt"

// FatalKind enumerates the conditions that abort a domain outright. None of
// these are retried locally; the caller is expected to abort the owning
// domain.
type FatalKind int

const (
	// OrderingViolation: a received label was <= the previously recorded
	// one for that sender, or an outbound label skipped ahead non-sequentially.
	OrderingViolation FatalKind = iota
	// PersistenceIOError: open/write/sync of a log file failed.
	PersistenceIOError
	// InvariantViolation: a structural assumption the core relies on (a
	// pending packet that isn't a VtMessage, a link mismatch within a
	// batch, assign_time called on an empty batch) did not hold.
	InvariantViolation
	// NodeTypeMismatch: resume_at was called on a node that is not an
	// Egress, or with an Egress that has no processor attached.
	NodeTypeMismatch
)

func (k FatalKind) String() string {
	switch k {
	case OrderingViolation:
		return "OrderingViolation"
	case PersistenceIOError:
		return "PersistenceIOError"
	case InvariantViolation:
		return "InvariantViolation"
	case NodeTypeMismatch:
		return "NodeTypeMismatch"
	default:
		return "UnknownFatalKind"
	}
}

// FatalError wraps one of the above conditions with enough context to log
// and abort the owning domain. It is never used for a paused send, which is
// recoverable and not an error at all; the gate functions return a plain
// bool instead.
type FatalError struct {
	Kind FatalKind
	// Op names the operation that detected the violation, e.g.
	// "GroupCommitQueueSet.Append" or "NodeRouting.ReceivePacket".
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *FatalError) Unwrap() error { return e.Err }

func ordering(op string, err error) *FatalError {
	return &FatalError{Kind: OrderingViolation, Op: op, Err: err}
}

func invariant(op string, err error) *FatalError {
	return &FatalError{Kind: InvariantViolation, Op: op, Err: err}
}

func persistence(op string, err error) *FatalError {
	return &FatalError{Kind: PersistenceIOError, Op: op, Err: err}
}

func nodeTypeMismatch(op string, err error) *FatalError {
	return &FatalError{Kind: NodeTypeMismatch, Op: op, Err: err}
}
