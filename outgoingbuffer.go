// Copyright © 2020 Jonathan Whitaker <github@whitaker.io>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dataplane

import (
	"context"
	"fmt"
)

// NextPacketID returns the id the next outgoing packet from this node
// should carry: its label is one past the current buffer length.
func (n *NodeRouting) NextPacketID() PacketID {
	return PacketID{Label: uint64(len(n.buffer)) + 1, From: NodeIndex(n.self)}
}

// SendExternalPacket is the send gate for an outgoing packet. Precondition:
// p.ID.From == self.
//
// It records p in the outgoing buffer indexed by its 1-based label
// (cloning the payload the first time a label is seen, and simply adding
// to to the destination set on a repeat), then gates delivery: if to is
// currently expected (has a send cursor recorded), every buffered entry
// between that cursor and label must not already list to, since those
// packets were legitimately skipped for this destination, and the cursor
// advances to label+1, returning true. If to has no cursor recorded
// (paused awaiting ResumeAt) it returns false; the caller must hold the
// packet, since a subsequent ResumeAt will replay it.
func (n *NodeRouting) SendExternalPacket(p *Packet, to NodeIndex) bool {
	if p.ID.From != NodeIndex(n.self) {
		panic(&FatalError{Kind: InvariantViolation, Op: "NodeRouting.SendExternalPacket", Err: fmt.Errorf("packet from %v does not match sender %v", p.ID.From, n.self)})
	}

	label := p.ID.Label

	if label > uint64(len(n.buffer)) {
		if label != uint64(len(n.buffer))+1 {
			panic(&FatalError{Kind: OrderingViolation, Op: "NodeRouting.SendExternalPacket", Err: fmt.Errorf("outgoing label %d is not sequential after buffer length %d", label, len(n.buffer))})
		}
		n.buffer = append(n.buffer, bufferEntry{
			payload: p.CloneData(),
			to:      NewToSet(to),
		})
	} else {
		n.buffer[label-1].to[to] = struct{}{}
	}

	oldLabel, waiting := n.nextPacketToSend[to]
	if !waiting {
		return false
	}

	for i := oldLabel; i < label; i++ {
		if n.buffer[i-1].to.Contains(to) {
			panic(&FatalError{Kind: InvariantViolation, Op: "NodeRouting.SendExternalPacket", Err: fmt.Errorf("label %d was already sent to %v while it was supposedly skipped", i, to)})
		}
	}

	sendCounter.Record(context.Background(), int64(label))
	n.nextPacketToSend[to] = label + 1
	return true
}

// SendInternalPacket wraps SendExternalPacket with the global address of
// an intra-domain child resolved through nodes; it asserts the gate
// returned true, since children in the same domain are never paused.
func (n *NodeRouting) SendInternalPacket(p *Packet, toLocal LocalNodeIndex, nodes DomainNodes) error {
	view, ok := nodes.Node(toLocal)
	if !ok {
		return invariant("NodeRouting.SendInternalPacket", fmt.Errorf("unknown local child %v", toLocal))
	}

	if !n.SendExternalPacket(p, view.GlobalAddr()) {
		return invariant("NodeRouting.SendInternalPacket", fmt.Errorf("intra-domain child %v was unexpectedly paused", toLocal))
	}

	return nil
}

// BufferLen exposes the current buffer length for tests and diagnostics.
func (n *NodeRouting) BufferLen() int {
	return len(n.buffer)
}
