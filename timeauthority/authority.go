// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeauthority provides a reference TransactionTimeClient: an
// in-memory transaction time authority that hands out monotonically
// increasing (time, source, prev) assignments per base node, grounded in
// the transactions::DomainState contract described in
// dataflow/src/persistence/mod.rs of the original Rust source. It is
// intentionally outside the core package; the time authority is an
// external collaborator the core only consumes.
package timeauthority

import (
	"github.com/google/uuid"

	"github.com/arborflow/dataplane"
)

type baseState struct {
	next uint64
}

// Authority is a single time-authority replica. Its identity (Source) is
// minted once and attached to every assignment it issues. Authority is not
// safe for concurrent use: it relies on the packet plane's
// single-threaded-per-domain model, where each domain owns its own
// Authority and calls AssignTime only from the domain's own goroutine. A
// caller sharing one Authority across domains must serialize access
// itself.
type Authority struct {
	source dataplane.SourceID
	bases  map[dataplane.NodeIndex]*baseState
}

// New returns a fresh Authority with a random source identity.
func New() *Authority {
	return &Authority{
		source: dataplane.SourceID(uuid.New().String()),
		bases:  map[dataplane.NodeIndex]*baseState{},
	}
}

// AssignTime implements dataplane.TransactionTimeClient. It returns a
// strictly increasing time per base, along with the previous time that was
// assigned to that base (0 if this is the first assignment).
func (a *Authority) AssignTime(base dataplane.NodeIndex) (dataplane.Assignment, error) {
	st, ok := a.bases[base]
	if !ok {
		st = &baseState{}
		a.bases[base] = st
	}

	prev := st.next
	st.next++

	return dataplane.Assignment{
		Time:   st.next,
		Source: a.source,
		Prev:   prev,
	}, nil
}
