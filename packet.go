// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import (
	"github.com/mitchellh/copystructure"
)

// Kind discriminates the variants a Packet can hold. Only the fields
// relevant to a given Kind are meaningful on that packet; code that branches
// on variant does so with a switch over Kind.
type Kind int

const (
	// KindMessage is a normal data packet carrying a per-sender label.
	KindMessage Kind = iota
	// KindReplayPiece is a replay packet; same id/label discipline as Message.
	KindReplayPiece
	// KindVtMessage is a batched base-node write produced by the
	// group-commit queue.
	KindVtMessage
	// KindInput arrives from external clients and is excluded from label
	// tracking entirely.
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "Message"
	case KindReplayPiece:
		return "ReplayPiece"
	case KindVtMessage:
		return "VtMessage"
	case KindInput:
		return "Input"
	default:
		return "Unknown"
	}
}

// TxnState is the commit state carried by a VtMessage packet.
type TxnState int

const (
	// Uncommitted is the state of a VtMessage before assign_time runs.
	Uncommitted TxnState = iota
	// Committed is the state after a transaction assignment has been attached.
	Committed
)

// Assignment is the (time, source, prev) triple a TransactionTimeClient
// hands back once a committed batch has been assigned a transaction time.
type Assignment struct {
	Time   uint64
	Source SourceID
	Prev   uint64
}

// Packet is the tagged variant that flows through a domain. Only the
// fields relevant to Kind are meaningful; fields outside that set are the
// zero value and must not be inspected.
type Packet struct {
	Kind Kind

	// ID is populated for Message and ReplayPiece; it is the packet's
	// label/sender pair used by the label tracker.
	ID PacketID

	// Link carries the local src/dst for Message, ReplayPiece, and
	// VtMessage packets.
	Link Link

	// Data is the record batch carried by every variant except Input,
	// which instead uses Input below.
	Data RecordBatch

	// Tracer optionally rides along; nil means "not being debugged".
	Tracer *Tracer

	// State is meaningful only for KindVtMessage.
	State TxnState
	// At (which carries the assignment's Prev) and Base are populated on
	// KindVtMessage once State == Committed.
	At   Assignment
	Base NodeIndex

	// Input carries the raw client payload for KindInput packets.
	Input RecordBatch
}

// CloneData deep-clones the packet's Data field via copystructure, leaving
// the rest of the packet shared by value. Callers use this before a packet
// is stored in the outgoing buffer or replayed to a resuming child, so that
// downstream mutation of a replayed batch is never observable in the
// buffered original.
func (p *Packet) CloneData() *Packet {
	clone := *p

	if p.Data == nil {
		return &clone
	}

	copied, err := copystructure.Copy(p.Data)
	if err != nil {
		// RecordBatch holds only map[string]interface{} rows produced by
		// this process; a copy failure means the invariant that rows are
		// plain data has already been broken upstream.
		panic(&FatalError{Kind: InvariantViolation, Op: "Packet.CloneData", Err: err})
	}

	clone.Data = copied.(RecordBatch)
	return &clone
}

// IsVtMessage reports whether p is a VtMessage, the only variant the
// group commit queue ever buffers.
func (p *Packet) IsVtMessage() bool {
	return p.Kind == KindVtMessage
}
