// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import (
	"context"
	"fmt"
)

// bufferEntry is one slot of the outgoing buffer: the payload that was
// sent, and the set of children it has been recorded as going to.
type bufferEntry struct {
	payload *Packet
	to      ToSet
}

// NodeRouting is a node's routing state: incoming label tracking, the
// outgoing buffer, and resume-at replay all live on the same struct (this
// file, outgoingbuffer.go, and resume.go), because they share data rather
// than just a name. Computing the next outgoing packet id needs the
// buffer's length, sending needs both the buffer and the per-child send
// cursor, and resuming a replay needs the buffer plus the egress processor.
// Splitting the state across separate types would mean threading it back
// together at every call site for no benefit.
type NodeRouting struct {
	self LocalNodeIndex

	lastPacketReceived map[NodeIndex]uint64
	nextPacketToSend   map[NodeIndex]uint64
	buffer             []bufferEntry

	egress EgressProcessor
}

// NewNodeRouting returns empty routing state for the node identified
// locally as self. All maps and the buffer start empty; children are
// registered via InitChild as the domain finalizes them.
func NewNodeRouting(self LocalNodeIndex) *NodeRouting {
	return &NodeRouting{
		self:               self,
		lastPacketReceived: map[NodeIndex]uint64{},
		nextPacketToSend:   map[NodeIndex]uint64{},
	}
}

// InitChild starts a downstream child's send cursor at 1, as every
// downstream child present when the node is finalized into the domain
// requires.
func (n *NodeRouting) InitChild(child NodeIndex) {
	n.nextPacketToSend[child] = 1
}

// SetEgress attaches the EgressProcessor used by ResumeAt. Only egress
// nodes need one; ResumeAt fails with NodeTypeMismatch if it is nil.
func (n *NodeRouting) SetEgress(p EgressProcessor) {
	n.egress = p
}

// ReceivePacket records the label of an inbound Message or ReplayPiece.
// Input packets are ignored entirely. The label must be strictly greater
// than the previously recorded one for that sender; gaps are permitted.
func (n *NodeRouting) ReceivePacket(p *Packet) error {
	if p.Kind == KindInput {
		return nil
	}
	if p.Kind != KindMessage && p.Kind != KindReplayPiece {
		return invariant("NodeRouting.ReceivePacket", fmt.Errorf("unexpected packet kind %s", p.Kind))
	}

	from := p.ID.From
	label := p.ID.Label

	old := n.lastPacketReceived[from]
	if label <= old {
		return ordering("NodeRouting.ReceivePacket", fmt.Errorf("label %d from %v is not greater than previously recorded %d", label, from, old))
	}

	receiveCounter.Record(context.Background(), int64(label))
	n.lastPacketReceived[from] = label
	return nil
}

// NewIncoming replaces the key old with new, carrying over the stored
// label, and returns that label plus one: the label the caller should ask
// the new peer to begin sending from.
func (n *NodeRouting) NewIncoming(old, new NodeIndex) uint64 {
	label := n.lastPacketReceived[old]
	delete(n.lastPacketReceived, old)
	n.lastPacketReceived[new] = label
	return label + 1
}

// LastReceived exposes the currently recorded label for from, defaulting
// to 0 if nothing has been received yet. Exported for tests and for the
// domain loop's diagnostics; not part of the component's core contract.
func (n *NodeRouting) LastReceived(from NodeIndex) uint64 {
	return n.lastPacketReceived[from]
}

// NextExpected reports the label currently expected for to, and whether
// that child has a send cursor; false means it is paused (absent, awaiting
// a ResumeAt).
func (n *NodeRouting) NextExpected(to NodeIndex) (uint64, bool) {
	v, ok := n.nextPacketToSend[to]
	return v, ok
}
