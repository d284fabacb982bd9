// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import (
	"testing"
	"time"
)

type fakeNodeView struct {
	internal bool
	base     NodeIndex
	isBase   bool
	global   NodeIndex
}

func (v *fakeNodeView) IsInternal() bool          { return v.internal }
func (v *fakeNodeView) GetBase() (NodeIndex, bool) { return v.base, v.isBase }
func (v *fakeNodeView) GlobalAddr() NodeIndex      { return v.global }

type fakeDomainNodes map[LocalNodeIndex]*fakeNodeView

func (n fakeDomainNodes) Node(local LocalNodeIndex) (NodeView, bool) {
	v, ok := n[local]
	if !ok {
		return nil, false
	}
	return v, true
}

type fakeTxnClient struct {
	next map[NodeIndex]uint64
	err  error
}

func newFakeTxnClient() *fakeTxnClient {
	return &fakeTxnClient{next: map[NodeIndex]uint64{}}
}

func (c *fakeTxnClient) AssignTime(base NodeIndex) (Assignment, error) {
	if c.err != nil {
		return Assignment{}, c.err
	}
	prev := c.next[base]
	c.next[base] = prev + 1
	return Assignment{Time: prev + 1, Source: "test", Prev: prev}, nil
}

func baseVtPacket(dst LocalNodeIndex, rows ...Record) *Packet {
	return &Packet{
		Kind: KindVtMessage,
		Link: Link{Src: 0, Dst: dst},
		Data: RecordBatch(rows),
	}
}

func TestShouldAppendOnlyForInternalBaseVtMessages(t *testing.T) {
	nodes := fakeDomainNodes{
		1: {internal: true, isBase: true, base: 10, global: 10},
		2: {internal: true, isBase: false},
		3: {internal: false, isBase: true, base: 11, global: 11},
	}

	q, err := NewGroupCommitQueueSet(0, 0, DefaultParameters(), nil)
	if err != nil {
		t.Fatalf("NewGroupCommitQueueSet: %v", err)
	}

	if !q.ShouldAppend(baseVtPacket(1), nodes) {
		t.Errorf("expected internal base node to be appendable")
	}
	if q.ShouldAppend(baseVtPacket(2), nodes) {
		t.Errorf("expected non-base internal node to be rejected")
	}
	if q.ShouldAppend(baseVtPacket(3), nodes) {
		t.Errorf("expected non-internal node to be rejected")
	}
	if q.ShouldAppend(&Packet{Kind: KindMessage, Link: Link{Dst: 1}}, nodes) {
		t.Errorf("expected non-VtMessage packet to be rejected")
	}
}

func TestAppendFlushesAtCapacity(t *testing.T) {
	nodes := fakeDomainNodes{1: {internal: true, isBase: true, base: 10, global: 10}}
	txn := newFakeTxnClient()

	params := DefaultParameters()
	params.Capacity = 2
	params.Mode = MemoryOnly

	q, err := NewGroupCommitQueueSet(0, 0, params, nil)
	if err != nil {
		t.Fatalf("NewGroupCommitQueueSet: %v", err)
	}

	merged, err := q.Append(baseVtPacket(1, Record{"a": 1}), nodes, txn)
	if err != nil || merged != nil {
		t.Fatalf("first append should not flush yet: merged=%v err=%v", merged, err)
	}

	merged, err = q.Append(baseVtPacket(1, Record{"a": 2}), nodes, txn)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if merged == nil {
		t.Fatalf("expected capacity flush to produce a merged packet")
	}
	if len(merged.Data) != 2 {
		t.Fatalf("expected merged batch of 2 records, got %d", len(merged.Data))
	}
	if merged.State != Committed {
		t.Fatalf("expected merged packet to be Committed")
	}
	if merged.At.Time != 1 {
		t.Fatalf("expected first assignment to be time 1, got %d", merged.At.Time)
	}
}

func TestAppendRejectsNonVtMessage(t *testing.T) {
	nodes := fakeDomainNodes{1: {internal: true, isBase: true, base: 10, global: 10}}
	q, _ := NewGroupCommitQueueSet(0, 0, DefaultParameters(), nil)

	_, err := q.Append(&Packet{Kind: KindMessage, Link: Link{Dst: 1}}, nodes, newFakeTxnClient())
	if err == nil {
		t.Fatalf("expected an error for a non-VtMessage append")
	}
	var fe *FatalError
	if !asFatalError(err, &fe) || fe.Kind != InvariantViolation {
		t.Fatalf("expected InvariantViolation, got %v", err)
	}
}

func TestFlushIfNecessaryRespectsTimeout(t *testing.T) {
	nodes := fakeDomainNodes{1: {internal: true, isBase: true, base: 10, global: 10}}
	txn := newFakeTxnClient()

	params := DefaultParameters()
	params.Capacity = 100
	params.FlushTimeout = 50 * time.Millisecond
	params.Mode = MemoryOnly

	q, _ := NewGroupCommitQueueSet(0, 0, params, nil)

	restoreClock := fakeClock(time.Unix(0, 0))
	defer restoreClock()

	if _, err := q.Append(baseVtPacket(1, Record{"a": 1}), nodes, txn); err != nil {
		t.Fatalf("Append: %v", err)
	}

	merged, err := q.FlushIfNecessary(nodes, txn)
	if err != nil {
		t.Fatalf("FlushIfNecessary: %v", err)
	}
	if merged != nil {
		t.Fatalf("expected no flush before timeout elapses")
	}

	advanceClock(60 * time.Millisecond)

	merged, err = q.FlushIfNecessary(nodes, txn)
	if err != nil {
		t.Fatalf("FlushIfNecessary: %v", err)
	}
	if merged == nil {
		t.Fatalf("expected flush after timeout elapses")
	}
}

func TestDurationUntilFlushNoneWhenEmpty(t *testing.T) {
	q, _ := NewGroupCommitQueueSet(0, 0, DefaultParameters(), nil)

	if _, ok := q.DurationUntilFlush(); ok {
		t.Fatalf("expected no pending duration when nothing is queued")
	}
}

func TestReplySinkRegistryRoundTrips(t *testing.T) {
	q, _ := NewGroupCommitQueueSet(0, 0, DefaultParameters(), nil)

	sink := &fakeReplySink{}
	q.SetReplySink("peer-a", sink)

	got, ok := q.ReplySink("peer-a")
	if !ok || got != sink {
		t.Fatalf("expected registered sink to round-trip")
	}

	q.DeleteReplySink("peer-a")
	if _, ok := q.ReplySink("peer-a"); ok {
		t.Fatalf("expected sink to be gone after delete")
	}
}

type fakeReplySink struct{}

func (s *fakeReplySink) Send(result int64, err error) error { return nil }

// asFatalError is a small helper so tests can assert on *FatalError.Kind
// without importing errors.As boilerplate at every call site.
func asFatalError(err error, target **FatalError) bool {
	fe, ok := err.(*FatalError)
	if !ok {
		return false
	}
	*target = fe
	return true
}
